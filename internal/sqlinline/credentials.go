package sqlinline

const QSelectActiveCredential = `--sql c07edc6e-6ede-4990-b7c4-56a8834d71a7
select id, org_id, provider_id, secret, is_active, created_at
from org_credentials
where org_id = $1::uuid
  and provider_id = $2::text
  and is_active
order by created_at desc
limit 1;
`
