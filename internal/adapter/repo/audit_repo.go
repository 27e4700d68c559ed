package repo

import (
	"context"
	"encoding/json"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// AuditRepositoryPG appends to the audit_log table. Entries are never read
// back by the orchestrator.
type AuditRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAuditRepository creates an audit repository backed by PostgreSQL.
func NewAuditRepository(sql infra.SQLExecutor) *AuditRepositoryPG {
	return &AuditRepositoryPG{sql: sql}
}

// Append inserts one immutable entry.
func (r *AuditRepositoryPG) Append(ctx context.Context, entry *domain.AuditEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertAuditEntry, entry.ID, entry.Actor, entry.Action, raw)
	return err
}

var _ domain.AuditRepository = (*AuditRepositoryPG)(nil)
