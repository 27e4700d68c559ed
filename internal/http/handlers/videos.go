package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/videogen"
)

type videoGenerateRequest struct {
	Type            string             `json:"type"`
	QualityTier     string             `json:"quality_tier"`
	Provider        string             `json:"provider"`
	DurationSeconds int                `json:"duration_seconds"`
	AspectRatio     string             `json:"aspect_ratio"`
	Input           domain.InputParams `json:"input"`
}

type videoJobView struct {
	JobID           string `json:"job_id"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	Provider        string `json:"provider"`
	ModelKey        string `json:"model_key"`
	QualityTier     string `json:"quality_tier"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	OutputKey       string `json:"output_key,omitempty"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

type videoCreateResponse struct {
	videoJobView
	RemainingDailySeconds *int `json:"remaining_daily_seconds,omitempty"`
}

func viewJob(j *domain.Job) videoJobView {
	v := videoJobView{
		JobID:           j.ID,
		Type:            string(j.Type),
		Status:          string(j.Status),
		Progress:        j.Progress,
		Provider:        j.ProviderID,
		ModelKey:        j.ModelKey,
		QualityTier:     string(j.QualityTier),
		DurationSeconds: j.DurationSeconds,
		AspectRatio:     j.AspectRatio,
		OutputKey:       j.OutputKey,
		Error:           j.ErrorMessage,
	}
	if !j.CreatedAt.IsZero() {
		v.CreatedAt = j.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !j.UpdatedAt.IsZero() {
		v.UpdatedAt = j.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

// VideosGenerate admits a new generation job. The whole intake runs inside
// this request; a 202 means the job was accepted by the provider.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Videos.Generate(r.Context(), videogen.GenerateRequest{
		UserID:          userID,
		OrgID:           a.currentOrgID(r),
		Type:            domain.JobType(req.Type),
		QualityTier:     domain.QualityTier(req.QualityTier),
		ProviderID:      req.Provider,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Input:           req.Input,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	resp := videoCreateResponse{videoJobView: viewJob(job)}
	if orgID := a.currentOrgID(r); orgID != "" {
		if usage, uerr := a.Videos.QuotaUsage(r.Context(), orgID); uerr == nil {
			remaining := usage.DailySecondsLimit - usage.UsedSecondsToday
			if remaining < 0 {
				remaining = 0
			}
			resp.RemainingDailySeconds = &remaining
		} else {
			a.Log.Warn().Err(uerr).Str("org_id", orgID).Msg("quota snapshot after create failed")
		}
	}
	a.json(w, http.StatusAccepted, resp)
}

// VideosGet returns one of the caller's jobs.
func (a *App) VideosGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	job, err := a.Videos.GetJob(r.Context(), userID, chi.URLParam(r, "jobID"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, viewJob(job))
}

// VideosList returns the caller's jobs, newest first.
func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	jobs, err := a.Videos.ListJobs(r.Context(), userID, limit, offset)
	if err != nil {
		a.domainError(w, err)
		return
	}
	views := make([]videoJobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, viewJob(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": views})
}

// QuotaUsage reports the caller's organization counters.
func (a *App) QuotaUsage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	orgID := a.currentOrgID(r)
	if orgID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "quota usage requires an organization account")
		return
	}
	usage, err := a.Videos.QuotaUsage(r.Context(), orgID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, usage)
}
