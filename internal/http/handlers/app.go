package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/videogen"
)

// VideoService is the slice of the orchestrator the HTTP layer calls.
type VideoService interface {
	Generate(ctx context.Context, req videogen.GenerateRequest) (*domain.Job, error)
	GetJob(ctx context.Context, userID, jobID string) (*domain.Job, error)
	ListJobs(ctx context.Context, userID string, limit, offset int) ([]domain.Job, error)
	QuotaUsage(ctx context.Context, orgID string) (*domain.QuotaUsage, error)
}

type App struct {
	Videos VideoService
	Log    zerolog.Logger
}

func NewApp(videos VideoService, log zerolog.Logger) *App {
	return &App{Videos: videos, Log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// domainError maps orchestrator errors onto HTTP responses. Each quota limit
// keeps its own error code so callers can tell them apart.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var apiErr *domain.ProviderAPIError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusForbidden, "insufficient_credits", err.Error())
	case errors.Is(err, domain.ErrDailyQuotaExceeded):
		a.error(w, http.StatusTooManyRequests, "daily_quota_exceeded", err.Error())
	case errors.Is(err, domain.ErrMonthlyQuotaExceeded):
		a.error(w, http.StatusTooManyRequests, "monthly_quota_exceeded", err.Error())
	case errors.Is(err, domain.ErrConcurrencyLimitReached):
		a.error(w, http.StatusTooManyRequests, "concurrency_limit_reached", err.Error())
	case errors.Is(err, domain.ErrProviderNotConfigured):
		a.error(w, http.StatusConflict, "provider_not_configured", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, &apiErr):
		a.error(w, http.StatusBadGateway, "provider_error", apiErr.Error())
	default:
		a.Log.Error().Err(err).Msg("unhandled request error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) currentOrgID(r *http.Request) string {
	return middleware.OrgIDFromContext(r.Context())
}
