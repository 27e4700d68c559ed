// Package audit records orchestrator decisions as append-only entries.
// An audit failure never fails the operation being audited; it is logged
// and dropped.
package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
)

// Recorder writes audit entries and mirrors them to the structured log.
type Recorder struct {
	repo domain.AuditRepository
	log  zerolog.Logger
}

func NewRecorder(repo domain.AuditRepository, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Record appends one entry. Best effort: persistence errors are logged, not
// returned, so a full audit table cannot take down job processing.
func (r *Recorder) Record(ctx context.Context, actor, action string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if country := middleware.CountryFromContext(ctx); country != "" {
		metadata["country"] = country
	}
	if locale := middleware.LocaleFromContext(ctx); locale != "" {
		metadata["locale"] = locale
	}
	entry := &domain.AuditEntry{
		ID:       uuid.NewString(),
		Actor:    actor,
		Action:   action,
		Metadata: metadata,
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		r.log.Error().Err(err).Str("action", action).Str("actor", actor).Msg("audit append failed")
		return
	}
	r.log.Info().Str("action", action).Str("actor", actor).Fields(metadata).Msg("audit")
}
