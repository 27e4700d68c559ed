package repo

import (
	"context"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on top of Postgres. The
// video_jobs table doubles as the durable work queue: the recovery worker
// claims stalled rows with FOR UPDATE SKIP LOCKED.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new ledger row.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.UserID,
		job.OrgID,
		job.Type,
		job.Status,
		job.Progress,
		job.ProviderID,
		job.ModelKey,
		job.QualityTier,
		job.DurationSeconds,
		job.AspectRatio,
		job.Input,
	)
	return err
}

// GetByID fetches a job regardless of owner.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID)
	return scanJob(row)
}

// GetForOwner fetches a job scoped to its owning user.
func (r *JobRepositoryPG) GetForOwner(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobForOwner, jobID, userID)
	return scanJob(row)
}

// ListByOwner returns the owner's jobs, newest first.
func (r *JobRepositoryPG) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]domain.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListJobsByOwner, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkProcessing records a successful submission.
func (r *JobRepositoryPG) MarkProcessing(ctx context.Context, jobID, taskHandle string, progress int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkJobProcessing, jobID, taskHandle, progress)
	return err
}

// UpdateProgress raises progress; the query uses GREATEST so progress can
// never go backwards even under a stray late poll.
func (r *JobRepositoryPG) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateJobProgress, jobID, progress)
	return err
}

// MarkCompleted finalizes a job with its persisted output key.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID, outputKey string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkJobCompleted, jobID, outputKey)
	return err
}

// MarkFailed finalizes a job with an error message.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, message string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkJobFailed, jobID, message)
	return err
}

// ClaimStalled claims one stalled processing job for tracker re-attach.
func (r *JobRepositoryPG) ClaimStalled(ctx context.Context, olderThan time.Duration) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimStalledJob, int(olderThan.Seconds()))
	return scanJob(row)
}

// FailStalledSync fails stale processing rows without a task handle. These
// come from synchronous submissions interrupted before persistence; with no
// handle there is nothing left to poll.
func (r *JobRepositoryPG) FailStalledSync(ctx context.Context, olderThan time.Duration, message string) ([]domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QFailStalledSyncJobs, int(olderThan.Seconds()), message)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// FailOrphans fails queued rows whose submission never happened.
func (r *JobRepositoryPG) FailOrphans(ctx context.Context, olderThan time.Duration, message string) ([]domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QFailOrphanJobs, int(olderThan.Seconds()), message)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.OrgID,
		&job.Type,
		&job.Status,
		&job.Progress,
		&job.ProviderID,
		&job.ModelKey,
		&job.QualityTier,
		&job.DurationSeconds,
		&job.AspectRatio,
		&job.Input,
		&job.TaskHandle,
		&job.OutputKey,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
