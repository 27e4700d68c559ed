package sqlinline

const QSelectProviderByID = `--sql 3bfeafb9-9886-4ce9-912a-52c81d6dbf1d
select id, name, provider_type, status, default_model_key,
       supports_t2v, supports_i2v, supports_a2v, supports_retake
from video_providers
where id = $1::text
limit 1;
`

const QResolveRoutingRule = `--sql a23f1209-6da8-4d09-80d3-096d1ee01728
select id, job_type, quality_tier, provider_id, priority, is_active
from routing_rules
where job_type = $1::text
  and quality_tier = $2::text
  and is_active
order by priority desc
limit 1;
`

const QFirstEnabledModel = `--sql a4f4b633-c883-4268-a2a2-801b3feb8f0f
select model_key
from provider_models
where provider_id = $1::text
  and quality_tier = $2::text
  and enabled
order by model_key asc
limit 1;
`
