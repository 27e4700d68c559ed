package sqlinline

const QSelectUserCredits = `--sql 3c05fb73-9e4f-4093-bb9c-536477c24245
select coalesce((properties->>'generation_credits')::int, 0)
from users
where id = $1::uuid
limit 1;
`

const QSelectOrgQuotaLimits = `--sql 5be080bd-b4e7-47db-98ea-16e5fda9ec9f
select id,
       coalesce((properties->>'daily_seconds_limit')::int, 120),
       coalesce((properties->>'monthly_seconds_limit')::int, 1800),
       coalesce((properties->>'max_concurrent_jobs')::int, 3)
from organizations
where id = $1::uuid
limit 1;
`

const QUpdateOrgQuotaLimits = `--sql f9ee1c5a-2fc1-4d11-b6ff-9fee654fbaa4
update organizations
set properties = properties
      || jsonb_build_object('daily_seconds_limit', $2::int)
      || jsonb_build_object('monthly_seconds_limit', $3::int)
      || jsonb_build_object('max_concurrent_jobs', $4::int),
    updated_at = now()
where id = $1::uuid
returning id,
          (properties->>'daily_seconds_limit')::int,
          (properties->>'monthly_seconds_limit')::int,
          (properties->>'max_concurrent_jobs')::int;
`
