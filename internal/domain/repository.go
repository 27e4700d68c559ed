package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for the job ledger.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	GetForOwner(ctx context.Context, jobID, userID string) (*Job, error)
	ListByOwner(ctx context.Context, userID string, limit, offset int) ([]Job, error)
	// MarkProcessing records a successful submission: the async task handle
	// (empty for synchronous providers) and the accepted-progress baseline.
	MarkProcessing(ctx context.Context, jobID, taskHandle string, progress int) error
	// UpdateProgress raises the job's progress. Implementations must never
	// let progress decrease.
	UpdateProgress(ctx context.Context, jobID string, progress int) error
	MarkCompleted(ctx context.Context, jobID, outputKey string) error
	MarkFailed(ctx context.Context, jobID, message string) error
	// ClaimStalled atomically claims one processing job with a task handle
	// whose last update is older than the threshold, for tracker re-attach.
	ClaimStalled(ctx context.Context, olderThan time.Duration) (*Job, error)
	// FailOrphans marks queued jobs older than the threshold as failed;
	// their submission never happened. Returns the failed jobs.
	FailOrphans(ctx context.Context, olderThan time.Duration, message string) ([]Job, error)
	// FailStalledSync marks stale processing jobs without a task handle as
	// failed; they cannot be re-polled. Returns the failed jobs.
	FailStalledSync(ctx context.Context, olderThan time.Duration, message string) ([]Job, error)
}

// ProviderRepository resolves providers, models and routing rules.
type ProviderRepository interface {
	GetByID(ctx context.Context, providerID string) (*Provider, error)
	// ResolveRoute returns the highest-priority active rule for the pair, or
	// ErrNotFound when no rule matches.
	ResolveRoute(ctx context.Context, t JobType, tier QualityTier) (*RoutingRule, error)
	// FirstEnabledModel returns the first enabled model key for the tier, or
	// ErrNotFound; callers treat absence as non-fatal.
	FirstEnabledModel(ctx context.Context, providerID string, tier QualityTier) (string, error)
}

// CredentialRepository looks up organization-scoped BYO provider secrets.
type CredentialRepository interface {
	ActiveForOrg(ctx context.Context, orgID, providerID string) (*Credential, error)
}

// AccountRepository exposes the narrow slice of account state the
// orchestrator reads: user credits and organization quota limits. Account
// lifecycle itself belongs to an external collaborator.
type AccountRepository interface {
	Credits(ctx context.Context, userID string) (int, error)
	QuotaLimits(ctx context.Context, orgID string) (*QuotaLimits, error)
}

// AuditRepository appends immutable audit entries. Write-only from the
// orchestrator's perspective.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
