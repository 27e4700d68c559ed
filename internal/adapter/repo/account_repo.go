package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// AccountRepositoryPG reads the narrow account state the orchestrator needs.
// Account lifecycle (signup, plans, soft-delete) is owned elsewhere.
type AccountRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAccountRepository creates an account repository backed by PostgreSQL.
func NewAccountRepository(sql infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{sql: sql}
}

// Credits returns the user's remaining generation credits.
func (r *AccountRepositoryPG) Credits(ctx context.Context, userID string) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserCredits, userID)
	var credits int
	if err := row.Scan(&credits); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return credits, nil
}

// QuotaLimits returns the organization's quota ceilings.
func (r *AccountRepositoryPG) QuotaLimits(ctx context.Context, orgID string) (*domain.QuotaLimits, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectOrgQuotaLimits, orgID)
	var limits domain.QuotaLimits
	if err := row.Scan(
		&limits.OrgID,
		&limits.DailySecondsLimit,
		&limits.MonthlySecondsLimit,
		&limits.MaxConcurrentJobs,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &limits, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
