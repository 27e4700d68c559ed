// Package videogen orchestrates video generation jobs: intake, routing,
// provider submission, completion tracking and output persistence.
package videogen

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"server/internal/audit"
	"server/internal/domain"
)

// Route is a fully resolved execution target for one job.
type Route struct {
	Provider   *domain.Provider
	ModelKey   string
	Credential *domain.Credential // nil for first-party providers
}

// Router resolves which provider and model a job runs on. Resolution order:
// an explicitly pinned provider wins; otherwise the highest-priority routing
// rule for the (job type, quality tier) pair; otherwise the configured
// default provider.
type Router struct {
	providers         domain.ProviderRepository
	credentials       domain.CredentialRepository
	audit             *audit.Recorder
	defaultProviderID string
	log               zerolog.Logger
}

func NewRouter(providers domain.ProviderRepository, credentials domain.CredentialRepository, rec *audit.Recorder, defaultProviderID string, log zerolog.Logger) *Router {
	return &Router{
		providers:         providers,
		credentials:       credentials,
		audit:             rec,
		defaultProviderID: defaultProviderID,
		log:               log,
	}
}

// Resolve picks the provider, model and credential for a job. A pinned
// bring-your-own provider without an active org credential fails here; there
// is no silent fallback to a first-party provider.
func (r *Router) Resolve(ctx context.Context, userID, orgID string, t domain.JobType, tier domain.QualityTier, pinnedProviderID string) (*Route, error) {
	pinned := pinnedProviderID != ""

	providerID := pinnedProviderID
	if !pinned {
		rule, err := r.providers.ResolveRoute(ctx, t, tier)
		switch {
		case err == nil:
			providerID = rule.ProviderID
		case errors.Is(err, domain.ErrNotFound):
			providerID = r.defaultProviderID
		default:
			return nil, err
		}
	}

	provider, err := r.providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: provider %q is not registered", domain.ErrProviderNotConfigured, providerID)
		}
		return nil, err
	}
	if provider.Status != domain.ProviderActive {
		return nil, fmt.Errorf("%w: provider %q is not active", domain.ErrProviderNotConfigured, providerID)
	}
	if !provider.Supports(t) {
		return nil, fmt.Errorf("%w: provider %q does not support %s", domain.ErrInvalidInput, providerID, t)
	}

	var cred *domain.Credential
	if provider.Type == domain.ProviderBYO {
		cred, err = r.credentials.ActiveForOrg(ctx, orgID, provider.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: no active credential for provider %q", domain.ErrProviderNotConfigured, provider.ID)
			}
			return nil, err
		}
	}

	model, err := r.providers.FirstEnabledModel(ctx, provider.ID, tier)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		model = provider.DefaultModelKey
	}
	if model == "" {
		return nil, fmt.Errorf("%w: provider %q has no usable model for tier %s", domain.ErrProviderNotConfigured, provider.ID, tier)
	}

	r.audit.Record(ctx, userID, domain.AuditActionRouteResolved, map[string]any{
		"job_type":     string(t),
		"quality_tier": string(tier),
		"provider_id":  provider.ID,
		"model_key":    model,
		"pinned":       pinned,
	})
	r.log.Debug().
		Str("provider_id", provider.ID).
		Str("model_key", model).
		Bool("pinned", pinned).
		Msg("route resolved")

	return &Route{Provider: provider, ModelKey: model, Credential: cred}, nil
}
