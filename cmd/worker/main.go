// The worker is a recovery daemon. The API process tracks its own jobs; this
// process re-attaches trackers to processing jobs whose owner died, fails
// queued rows whose submission never happened, and fails processing rows
// with no task handle left to poll.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/audit"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/video"
	"server/internal/quota"
	"server/internal/storage"
	"server/internal/videogen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	jobs := repo.NewJobRepository(sqlRunner)
	providers := repo.NewProviderRepository(sqlRunner)
	credentials := repo.NewCredentialRepository(sqlRunner)
	accounts := repo.NewAccountRepository(sqlRunner)
	auditRepo := repo.NewAuditRepository(sqlRunner)

	recorder := audit.NewRecorder(auditRepo, logger)
	enforcer := quota.NewEnforcer(rdb)

	registry := video.NewRegistry(
		video.NewVeoAdapter(cfg.VeoBaseURL, cfg.VeoAPIKey),
		video.NewKlingAdapter(cfg.KlingBaseURL),
		video.NewLTXAdapter(cfg.LTXBaseURL, cfg.LTXAPIKey),
	)

	router := videogen.NewRouter(providers, credentials, recorder, cfg.DefaultProviderID, logger)
	persister := videogen.NewPersister(fileStore, &http.Client{Timeout: 5 * time.Minute})
	tracker := videogen.NewTracker(jobs, enforcer, persister, recorder, logger, cfg.PollInterval, cfg.MaxPollAttempts)
	svc := videogen.NewService(jobs, accounts, enforcer, registry, router, tracker, recorder, logger)

	logger.Info().
		Dur("sweep_interval", cfg.SweepInterval).
		Dur("stall_threshold", cfg.StallThreshold).
		Msg("recovery worker started")

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("recovery worker stopped")
			return
		case <-ticker.C:
			sweep(ctx, cfg, logger, jobs, svc, enforcer, recorder)
		}
	}
}

// sweep claims every stalled processing job and fails every orphaned queued
// row it can find in one pass.
func sweep(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, jobs domain.JobRepository, svc *videogen.Service, enforcer *quota.Enforcer, recorder *audit.Recorder) {
	for {
		job, err := jobs.ClaimStalled(ctx, cfg.StallThreshold)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error().Err(err).Msg("claim stalled job")
			}
			break
		}
		logger.Info().Str("job_id", job.ID).Str("provider_id", job.ProviderID).Msg("re-attaching tracker to stalled job")
		if err := svc.Resume(ctx, job); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("resume stalled job")
			if markErr := jobs.MarkFailed(ctx, job.ID, "recovery failed: "+err.Error()); markErr != nil {
				logger.Error().Err(markErr).Str("job_id", job.ID).Msg("mark stalled job failed")
				continue
			}
			releaseSlot(ctx, logger, enforcer, job)
			recorder.Record(ctx, job.UserID, domain.AuditActionJobFailed, map[string]any{
				"job_id":      job.ID,
				"provider_id": job.ProviderID,
				"error":       err.Error(),
			})
		}
	}

	stranded, err := jobs.FailStalledSync(ctx, cfg.StallThreshold, "synchronous render lost before its artifact was persisted")
	if err != nil {
		logger.Error().Err(err).Msg("fail stranded synchronous jobs")
		return
	}
	for i := range stranded {
		job := &stranded[i]
		logger.Warn().Str("job_id", job.ID).Msg("failed stranded synchronous job")
		// No task handle means nothing to re-poll; the render ran, so only
		// the concurrency slot comes back.
		releaseSlot(ctx, logger, enforcer, job)
		recorder.Record(ctx, job.UserID, domain.AuditActionJobFailed, map[string]any{
			"job_id":      job.ID,
			"provider_id": job.ProviderID,
			"error":       "synchronous render lost before its artifact was persisted",
		})
	}

	orphans, err := jobs.FailOrphans(ctx, cfg.StallThreshold, "submission interrupted before reaching the provider")
	if err != nil {
		logger.Error().Err(err).Msg("fail orphan jobs")
		return
	}
	for i := range orphans {
		job := &orphans[i]
		logger.Warn().Str("job_id", job.ID).Msg("failed orphaned queued job")
		// The orphan never ran, so the whole reservation is refunded.
		if job.OrgID != "" {
			if err := enforcer.ReleaseReservation(ctx, job.OrgID, job.DurationSeconds); err != nil {
				logger.Error().Err(err).Str("org_id", job.OrgID).Msg("release orphan reservation")
			}
		}
		recorder.Record(ctx, job.UserID, domain.AuditActionJobFailed, map[string]any{
			"job_id":      job.ID,
			"provider_id": job.ProviderID,
			"error":       "submission interrupted before reaching the provider",
		})
	}
}

func releaseSlot(ctx context.Context, logger zerolog.Logger, enforcer *quota.Enforcer, job *domain.Job) {
	if job.OrgID == "" {
		return
	}
	if err := enforcer.ReleaseSlot(ctx, job.OrgID); err != nil {
		logger.Error().Err(err).Str("org_id", job.OrgID).Msg("release concurrency slot")
	}
}
