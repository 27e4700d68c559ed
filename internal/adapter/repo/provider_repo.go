package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ProviderRepositoryPG implements domain.ProviderRepository.
type ProviderRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProviderRepository creates a provider repository backed by PostgreSQL.
func NewProviderRepository(sql infra.SQLExecutor) *ProviderRepositoryPG {
	return &ProviderRepositoryPG{sql: sql}
}

// GetByID fetches a registered provider.
func (r *ProviderRepositoryPG) GetByID(ctx context.Context, providerID string) (*domain.Provider, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProviderByID, providerID)
	var p domain.Provider
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.Status,
		&p.DefaultModelKey,
		&p.SupportsT2V,
		&p.SupportsI2V,
		&p.SupportsA2V,
		&p.SupportsRetake,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ResolveRoute returns the winning routing rule for (modality, tier).
func (r *ProviderRepositoryPG) ResolveRoute(ctx context.Context, t domain.JobType, tier domain.QualityTier) (*domain.RoutingRule, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QResolveRoutingRule, t, tier)
	var rule domain.RoutingRule
	if err := row.Scan(
		&rule.ID,
		&rule.JobType,
		&rule.QualityTier,
		&rule.ProviderID,
		&rule.Priority,
		&rule.IsActive,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FirstEnabledModel returns the first enabled model key for the tier.
func (r *ProviderRepositoryPG) FirstEnabledModel(ctx context.Context, providerID string, tier domain.QualityTier) (string, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QFirstEnabledModel, providerID, tier)
	var modelKey string
	if err := row.Scan(&modelKey); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return modelKey, nil
}

var _ domain.ProviderRepository = (*ProviderRepositoryPG)(nil)
