package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// maxSyncArtifact bounds how much of a synchronous response body we buffer.
const maxSyncArtifact = 512 << 20 // 512 MiB

// LTXAdapter drives an LTX-style render endpoint that usually answers the
// submit call with the finished video itself. A JSON response body instead
// means the render queued server-side and carries an async task id.
type LTXAdapter struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewLTXAdapter(baseURL, apiKey string) *LTXAdapter {
	if baseURL == "" {
		baseURL = "https://api.ltx.video/v1"
	}
	return &LTXAdapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		// Synchronous renders hold the connection open for the whole job.
		Client: &http.Client{Timeout: 15 * time.Minute},
	}
}

func (a *LTXAdapter) Name() string { return "ltx" }

type ltxSubmitReq struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	SourceURL      string `json:"source_url,omitempty"`
	Duration       int    `json:"duration"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	Seed           int    `json:"seed,omitempty"`
}

type ltxSubmitResp struct {
	TaskID string `json:"task_id"`
}

type ltxPollResp struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	URL      string `json:"url"`
	Error    string `json:"error"`
}

// Submit renders a video. A non-JSON 2xx body is the artifact itself and is
// returned inline; a JSON body carries a task handle to poll.
func (a *LTXAdapter) Submit(ctx context.Context, req SubmitRequest, _ *domain.Credential) (*Submission, error) {
	if strings.TrimSpace(a.APIKey) == "" {
		return nil, errors.New("ltx: api key is required")
	}

	body, err := json.Marshal(ltxSubmitReq{
		Model:          req.ModelKey,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		SourceURL:      req.SourceMediaURL,
		Duration:       req.DurationSeconds,
		AspectRatio:    req.AspectRatio,
		Seed:           req.Seed,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(a.Name(), resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var decoded ltxSubmitResp
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
		}
		if decoded.TaskID == "" {
			return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: "empty task id"}
		}
		return &Submission{TaskHandle: decoded.TaskID}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSyncArtifact))
	if err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	if len(data) == 0 {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: "empty artifact body"}
	}
	if contentType == "" {
		contentType = "video/mp4"
	}
	return &Submission{Sync: &Output{Data: data, Format: contentType}}, nil
}

// Poll checks on a render that queued instead of finishing inline.
func (a *LTXAdapter) Poll(ctx context.Context, taskHandle string, _ *domain.Credential) (*PollResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/generations/"+taskHandle, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(a.Name(), resp)
	}

	var decoded ltxPollResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}

	switch decoded.Status {
	case "completed":
		if decoded.URL == "" {
			return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: "completed task has no url"}
		}
		return &PollResult{Status: StatusCompleted, Progress: 100, Output: &Output{URL: decoded.URL, Format: "video/mp4"}}, nil
	case "failed":
		msg := decoded.Error
		if msg == "" {
			msg = "generation failed"
		}
		return &PollResult{Status: StatusFailed, Message: msg}, nil
	default:
		return &PollResult{Status: StatusProcessing, Progress: decoded.Progress}, nil
	}
}

var _ Adapter = (*LTXAdapter)(nil)
