package videogen

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"server/internal/audit"
	"server/internal/domain"
	"server/internal/providers/video"
)

// ArtifactPersister stores a finished provider output and returns its key.
type ArtifactPersister interface {
	Persist(ctx context.Context, job *domain.Job, out *video.Output) (string, error)
}

// Tracker drives a submitted job to a terminal state. One Track call owns one
// job: it polls the provider on a fixed cadence, maps provider progress into
// the reserved band, persists the artifact and records the outcome. Every
// path out of Track leaves the job terminal and the org's concurrency slot
// released.
type Tracker struct {
	jobs        domain.JobRepository
	quota       QuotaGate
	persist     ArtifactPersister
	audit       *audit.Recorder
	log         zerolog.Logger
	interval    time.Duration
	maxAttempts int
}

func NewTracker(jobs domain.JobRepository, quota QuotaGate, persist ArtifactPersister, rec *audit.Recorder, log zerolog.Logger, interval time.Duration, maxAttempts int) *Tracker {
	return &Tracker{
		jobs:        jobs,
		quota:       quota,
		persist:     persist,
		audit:       rec,
		log:         log,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Track runs until the job is terminal. A synchronous output skips polling
// entirely and goes straight to persistence.
func (t *Tracker) Track(ctx context.Context, job *domain.Job, adapter video.Adapter, cred *domain.Credential, sync *video.Output) {
	log := t.log.With().Str("job_id", job.ID).Str("provider_id", job.ProviderID).Logger()

	if sync != nil {
		t.complete(ctx, job, sync, log)
		return
	}

	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			t.fail(ctx, job, "tracker aborted: "+ctx.Err().Error(), log)
			return
		case <-timer.C:
		}
		timer.Reset(t.interval)

		res, err := adapter.Poll(ctx, job.TaskHandle, cred)
		if err != nil {
			// Poll errors are treated as transient; the attempt budget
			// bounds how long we keep retrying.
			log.Warn().Err(err).Int("attempt", attempt).Msg("poll failed")
			continue
		}

		switch res.Status {
		case video.StatusProcessing:
			if err := t.jobs.UpdateProgress(ctx, job.ID, mapProgress(res.Progress)); err != nil {
				log.Error().Err(err).Msg("update progress")
			}
		case video.StatusCompleted:
			t.complete(ctx, job, res.Output, log)
			return
		case video.StatusFailed:
			msg := res.Message
			if msg == "" {
				msg = "provider reported failure"
			}
			t.fail(ctx, job, msg, log)
			return
		}
	}

	t.fail(ctx, job, domain.ErrProcessingTimeout.Error(), log)
}

// complete persists the artifact first; only then does the job become
// completed. A transfer failure fails the job instead.
func (t *Tracker) complete(ctx context.Context, job *domain.Job, out *video.Output, log zerolog.Logger) {
	key, err := t.persist.Persist(ctx, job, out)
	if err != nil {
		t.fail(ctx, job, err.Error(), log)
		return
	}
	if err := t.jobs.MarkCompleted(ctx, job.ID, key); err != nil {
		log.Error().Err(err).Msg("mark completed")
		return
	}
	t.releaseSlot(ctx, job, log)
	t.audit.Record(ctx, job.UserID, domain.AuditActionJobCompleted, map[string]any{
		"job_id":      job.ID,
		"provider_id": job.ProviderID,
		"output_key":  key,
	})
	log.Info().Str("output_key", key).Msg("job completed")
}

func (t *Tracker) fail(ctx context.Context, job *domain.Job, message string, log zerolog.Logger) {
	if err := t.jobs.MarkFailed(ctx, job.ID, message); err != nil {
		log.Error().Err(err).Msg("mark failed")
		return
	}
	t.releaseSlot(ctx, job, log)
	t.audit.Record(ctx, job.UserID, domain.AuditActionJobFailed, map[string]any{
		"job_id":      job.ID,
		"provider_id": job.ProviderID,
		"error":       message,
	})
	log.Warn().Str("error", message).Msg("job failed")
}

// releaseSlot frees the org's concurrency slot; the reserved seconds stay
// consumed because the job ran.
func (t *Tracker) releaseSlot(ctx context.Context, job *domain.Job, log zerolog.Logger) {
	if job.OrgID == "" {
		return
	}
	if err := t.quota.ReleaseSlot(ctx, job.OrgID); err != nil {
		log.Error().Err(err).Str("org_id", job.OrgID).Msg("release concurrency slot")
	}
}

// mapProgress translates provider-native 0-100 progress into the band
// reserved for the polling phase. The result never exceeds the ceiling; the
// tail is reserved for artifact transfer.
func mapProgress(p int) int {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	band := domain.ProgressPollCeil - domain.ProgressPollFloor
	return domain.ProgressPollFloor + p*band/100
}
