package sqlinline

const QInsertAuditEntry = `--sql baa2f976-6de4-40ca-9bf4-8f309700104c
insert into audit_log(id, actor, action, metadata, created_at)
values ($1::uuid, $2::text, $3::text, coalesce($4::jsonb, '{}'::jsonb), now());
`
