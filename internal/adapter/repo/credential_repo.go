package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// CredentialRepositoryPG implements domain.CredentialRepository over the
// org_credentials table.
type CredentialRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCredentialRepository creates a credential repository backed by PostgreSQL.
func NewCredentialRepository(sql infra.SQLExecutor) *CredentialRepositoryPG {
	return &CredentialRepositoryPG{sql: sql}
}

// ActiveForOrg returns the organization's newest active credential for a
// provider, or domain.ErrNotFound when none is configured.
func (r *CredentialRepositoryPG) ActiveForOrg(ctx context.Context, orgID, providerID string) (*domain.Credential, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectActiveCredential, orgID, providerID)
	var c domain.Credential
	if err := row.Scan(&c.ID, &c.OrgID, &c.ProviderID, &c.Secret, &c.IsActive, &c.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ domain.CredentialRepository = (*CredentialRepositoryPG)(nil)
