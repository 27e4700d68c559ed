package sqlinline

const QInsertJob = `--sql a3c7931e-5fc3-4425-8008-7a45e70c9fd2
insert into video_jobs(
  id,
  user_id,
  org_id,
  job_type,
  status,
  progress,
  provider_id,
  model_key,
  quality_tier,
  duration_seconds,
  aspect_ratio,
  input_json,
  created_at,
  updated_at
) values (
  $1::uuid,
  $2::uuid,
  nullif($3::text, '')::uuid,
  $4::text,
  $5::text,
  $6::int,
  $7::text,
  $8::text,
  $9::text,
  $10::int,
  $11::text,
  $12::jsonb,
  now(),
  now()
);
`

const QSelectJobByID = `--sql 5f44abf0-ab1b-418f-bf6d-8504f74eade6
select id, user_id, coalesce(org_id::text, ''), job_type, status, progress,
       provider_id, model_key, quality_tier, duration_seconds, aspect_ratio,
       input_json, coalesce(task_handle, ''), coalesce(output_key, ''),
       coalesce(error_message, ''), created_at, updated_at
from video_jobs
where id = $1::uuid
limit 1;
`

const QSelectJobForOwner = `--sql ebe8dcfd-f25c-4859-b250-069f673e6efa
select id, user_id, coalesce(org_id::text, ''), job_type, status, progress,
       provider_id, model_key, quality_tier, duration_seconds, aspect_ratio,
       input_json, coalesce(task_handle, ''), coalesce(output_key, ''),
       coalesce(error_message, ''), created_at, updated_at
from video_jobs
where id = $1::uuid and user_id = $2::uuid
limit 1;
`

const QListJobsByOwner = `--sql dfa08888-63e9-4efa-a07b-df563c35043c
select id, user_id, coalesce(org_id::text, ''), job_type, status, progress,
       provider_id, model_key, quality_tier, duration_seconds, aspect_ratio,
       input_json, coalesce(task_handle, ''), coalesce(output_key, ''),
       coalesce(error_message, ''), created_at, updated_at
from video_jobs
where user_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`

const QMarkJobProcessing = `--sql be54acf8-4fd3-403a-904b-291deb1abd3b
update video_jobs
set status = 'processing',
    task_handle = nullif($2::text, ''),
    progress = greatest(progress, $3::int),
    updated_at = now()
where id = $1::uuid and status = 'queued';
`

const QUpdateJobProgress = `--sql 5557d7af-874c-41a2-af30-a1459cf09a46
update video_jobs
set progress = greatest(progress, $2::int),
    updated_at = now()
where id = $1::uuid and status = 'processing';
`

const QMarkJobCompleted = `--sql 9d48e51a-58c0-42dc-bbfd-45d12a3dad18
update video_jobs
set status = 'completed',
    progress = 100,
    output_key = $2::text,
    updated_at = now()
where id = $1::uuid and status in ('queued', 'processing');
`

const QMarkJobFailed = `--sql db3c0b93-1d94-4a45-b3c9-e0cc860b149b
update video_jobs
set status = 'failed',
    error_message = $2::text,
    updated_at = now()
where id = $1::uuid and status in ('queued', 'processing');
`

const QClaimStalledJob = `--sql 1a7fa746-dbf2-43d8-a33e-dcb9dc64f817
with stalled as (
    select id
    from video_jobs
    where status = 'processing'
      and task_handle is not null
      and updated_at < now() - ($1::int * interval '1 second')
    order by updated_at asc
    for update skip locked
    limit 1
),
claimed as (
    update video_jobs
    set updated_at = now()
    where id in (select id from stalled)
    returning id, user_id, coalesce(org_id::text, ''), job_type, status, progress,
              provider_id, model_key, quality_tier, duration_seconds, aspect_ratio,
              input_json, coalesce(task_handle, ''), coalesce(output_key, ''),
              coalesce(error_message, ''), created_at, updated_at
)
select * from claimed;
`

const QFailStalledSyncJobs = `--sql 7b1f6c0d-4a92-4e1e-9c55-2d8fb0a6c3e1
with stranded as (
    select id
    from video_jobs
    where status = 'processing'
      and task_handle is null
      and updated_at < now() - ($1::int * interval '1 second')
    for update skip locked
),
failed as (
    update video_jobs
    set status = 'failed',
        error_message = $2::text,
        updated_at = now()
    where id in (select id from stranded)
    returning id, user_id, coalesce(org_id::text, ''), job_type, status, progress,
              provider_id, model_key, quality_tier, duration_seconds, aspect_ratio,
              input_json, coalesce(task_handle, ''), coalesce(output_key, ''),
              coalesce(error_message, ''), created_at, updated_at
)
select * from failed;
`

const QFailOrphanJobs = `--sql c2d10a8f-155d-475a-afcd-92cc0f17116c
with orphans as (
    select id
    from video_jobs
    where status = 'queued'
      and updated_at < now() - ($1::int * interval '1 second')
    for update skip locked
),
failed as (
    update video_jobs
    set status = 'failed',
        error_message = $2::text,
        updated_at = now()
    where id in (select id from orphans)
    returning id, user_id, coalesce(org_id::text, ''), job_type, status, progress,
              provider_id, model_key, quality_tier, duration_seconds, aspect_ratio,
              input_json, coalesce(task_handle, ''), coalesce(output_key, ''),
              coalesce(error_message, ''), created_at, updated_at
)
select * from failed;
`
