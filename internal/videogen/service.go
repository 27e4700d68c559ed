package videogen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/audit"
	"server/internal/domain"
	"server/internal/providers/video"
)

// Duration bounds accepted at intake, in seconds.
const (
	MinDurationSeconds = 1
	MaxDurationSeconds = 120
)

// QuotaGate is the slice of the quota enforcer the orchestrator uses.
// Reserve admits a job; ReleaseReservation fully refunds a reservation whose
// job never ran; ReleaseSlot frees only the concurrency slot once a job that
// ran reaches a terminal state.
type QuotaGate interface {
	Reserve(ctx context.Context, limits *domain.QuotaLimits, seconds int) error
	ReleaseReservation(ctx context.Context, orgID string, seconds int) error
	ReleaseSlot(ctx context.Context, orgID string) error
	Usage(ctx context.Context, limits *domain.QuotaLimits) (*domain.QuotaUsage, error)
}

// GenerateRequest is the validated-at-intake submission payload.
type GenerateRequest struct {
	UserID          string
	OrgID           string
	Type            domain.JobType
	QualityTier     domain.QualityTier
	ProviderID      string // optional pin; empty means auto-route
	DurationSeconds int
	AspectRatio     string
	Input           domain.InputParams
}

// Service is the orchestrator's front door. Generate performs the whole
// intake synchronously: validation, quota reservation, routing, the job row,
// and the provider submission. Only the completion tracking that follows a
// successful submission runs in the background.
type Service struct {
	jobs     domain.JobRepository
	accounts domain.AccountRepository
	quota    QuotaGate
	registry *video.Registry
	router   *Router
	tracker  *Tracker
	audit    *audit.Recorder
	log      zerolog.Logger
}

func NewService(jobs domain.JobRepository, accounts domain.AccountRepository, quota QuotaGate, registry *video.Registry, router *Router, tracker *Tracker, rec *audit.Recorder, log zerolog.Logger) *Service {
	return &Service{
		jobs:     jobs,
		accounts: accounts,
		quota:    quota,
		registry: registry,
		router:   router,
		tracker:  tracker,
		audit:    rec,
		log:      log,
	}
}

// Generate admits, routes and submits one generation job. On success the
// returned job is already processing and a tracker goroutine owns it. Any
// rejection before the job row exists leaves no trace except a released
// reservation; a submission failure leaves a failed row.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*domain.Job, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown job type %q", domain.ErrInvalidInput, req.Type)
	}
	if req.QualityTier == "" {
		req.QualityTier = domain.TierBalanced
	}
	if !req.QualityTier.Valid() {
		return nil, fmt.Errorf("%w: unknown quality tier %q", domain.ErrInvalidInput, req.QualityTier)
	}
	if req.DurationSeconds < MinDurationSeconds || req.DurationSeconds > MaxDurationSeconds {
		return nil, fmt.Errorf("%w: duration must be between %d and %d seconds", domain.ErrInvalidInput, MinDurationSeconds, MaxDurationSeconds)
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if err := req.Input.Validate(req.Type); err != nil {
		return nil, err
	}

	credits, err := s.accounts.Credits(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if credits < req.DurationSeconds {
		return nil, domain.ErrInsufficientCredits
	}

	// Organization members pass the quota gate; personal accounts are
	// bounded by credits alone.
	reserved := false
	if req.OrgID != "" {
		limits, err := s.accounts.QuotaLimits(ctx, req.OrgID)
		if err != nil {
			return nil, err
		}
		if err := s.quota.Reserve(ctx, limits, req.DurationSeconds); err != nil {
			return nil, err
		}
		reserved = true
	}
	refund := func() {
		if reserved {
			if err := s.quota.ReleaseReservation(ctx, req.OrgID, req.DurationSeconds); err != nil {
				s.log.Error().Err(err).Str("org_id", req.OrgID).Msg("release quota reservation")
			}
		}
	}

	route, err := s.router.Resolve(ctx, req.UserID, req.OrgID, req.Type, req.QualityTier, req.ProviderID)
	if err != nil {
		refund()
		return nil, err
	}
	adapter, err := s.registry.Get(route.Provider.ID)
	if err != nil {
		refund()
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderNotConfigured, err)
	}

	input, err := json.Marshal(req.Input)
	if err != nil {
		refund()
		return nil, err
	}
	job := &domain.Job{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		OrgID:           req.OrgID,
		Type:            req.Type,
		Status:          domain.JobStatusQueued,
		ProviderID:      route.Provider.ID,
		ModelKey:        route.ModelKey,
		QualityTier:     req.QualityTier,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Input:           input,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		refund()
		return nil, err
	}

	sub, err := adapter.Submit(ctx, submitRequest(job, req.Input), route.Credential)
	if err != nil {
		// The row already exists, so the failure stays visible in the
		// ledger. Nothing ran, so the whole reservation is refunded.
		if markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Str("job_id", job.ID).Msg("mark failed after submit error")
		}
		refund()
		s.audit.Record(ctx, req.UserID, domain.AuditActionJobFailed, map[string]any{
			"job_id":      job.ID,
			"provider_id": route.Provider.ID,
			"error":       err.Error(),
		})
		return nil, err
	}

	if err := s.jobs.MarkProcessing(ctx, job.ID, sub.TaskHandle, domain.ProgressAccepted); err != nil {
		// The provider already accepted this job; a full refund here would
		// be handed out again when the orphan sweep finds the queued row.
		// Finalize the row instead and free only the concurrency slot.
		if markErr := s.jobs.MarkFailed(ctx, job.ID, "submission accepted but status update failed: "+err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Str("job_id", job.ID).Msg("mark failed after status write error")
		}
		if req.OrgID != "" {
			if relErr := s.quota.ReleaseSlot(ctx, req.OrgID); relErr != nil {
				s.log.Error().Err(relErr).Str("org_id", req.OrgID).Msg("release concurrency slot")
			}
		}
		s.audit.Record(ctx, req.UserID, domain.AuditActionJobFailed, map[string]any{
			"job_id":      job.ID,
			"provider_id": route.Provider.ID,
			"task_handle": sub.TaskHandle,
			"error":       err.Error(),
		})
		return nil, err
	}
	job.Status = domain.JobStatusProcessing
	job.Progress = domain.ProgressAccepted
	job.TaskHandle = sub.TaskHandle

	s.audit.Record(ctx, req.UserID, domain.AuditActionJobSubmitted, map[string]any{
		"job_id":           job.ID,
		"provider_id":      route.Provider.ID,
		"model_key":        route.ModelKey,
		"task_handle":      sub.TaskHandle,
		"duration_seconds": req.DurationSeconds,
	})

	// The tracker outlives the request; it must not die with the request
	// context.
	tracked := *job
	go s.tracker.Track(context.WithoutCancel(ctx), &tracked, adapter, route.Credential, sub.Sync)

	return job, nil
}

// GetJob returns a job only to its owner.
func (s *Service) GetJob(ctx context.Context, userID, jobID string) (*domain.Job, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.jobs.GetForOwner(ctx, jobID, userID)
}

// ListJobs returns the owner's jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, userID string, limit, offset int) ([]domain.Job, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.ListByOwner(ctx, userID, limit, offset)
}

// QuotaUsage reports the org's current counters against its limits.
func (s *Service) QuotaUsage(ctx context.Context, orgID string) (*domain.QuotaUsage, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: quota usage requires an organization", domain.ErrInvalidInput)
	}
	limits, err := s.accounts.QuotaLimits(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.quota.Usage(ctx, limits)
}

// Resume re-attaches a tracker to a previously submitted job. The worker uses
// it after claiming a stalled processing row.
func (s *Service) Resume(ctx context.Context, job *domain.Job) error {
	route, err := s.router.Resolve(ctx, job.UserID, job.OrgID, job.Type, job.QualityTier, job.ProviderID)
	if err != nil {
		return err
	}
	adapter, err := s.registry.Get(job.ProviderID)
	if err != nil {
		return err
	}
	go s.tracker.Track(context.WithoutCancel(ctx), job, adapter, route.Credential, nil)
	return nil
}

func submitRequest(job *domain.Job, input domain.InputParams) video.SubmitRequest {
	source := input.SourceImageURL
	if source == "" {
		source = input.SourceAudioURL
	}
	if source == "" {
		source = input.SourceVideoURL
	}
	return video.SubmitRequest{
		JobID:           job.ID,
		JobType:         job.Type,
		ModelKey:        job.ModelKey,
		Prompt:          input.Prompt,
		NegativePrompt:  input.NegativePrompt,
		SourceMediaURL:  source,
		DurationSeconds: job.DurationSeconds,
		AspectRatio:     job.AspectRatio,
		Seed:            input.Seed,
	}
}
