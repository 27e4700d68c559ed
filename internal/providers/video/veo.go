package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// VeoAdapter drives Google's Veo long-running video generation API. It is a
// first-party provider: the platform credential is configured on the adapter
// and the per-request credential is ignored.
type VeoAdapter struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVeoAdapter constructs an adapter with sane defaults.
func NewVeoAdapter(baseURL, apiKey string) *VeoAdapter {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &VeoAdapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *VeoAdapter) Name() string { return "veo" }

type veoSubmitReq struct {
	Prompt          string `json:"prompt"`
	NegativePrompt  string `json:"negative_prompt,omitempty"`
	SourceMediaURI  string `json:"source_media_uri,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	Seed            int    `json:"seed,omitempty"`
}

type veoSubmitResp struct {
	OperationID string `json:"operation_id"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type veoPollResp struct {
	State           string `json:"state"`
	ProgressPercent int    `json:"progress_percent"`
	VideoURI        string `json:"video_uri"`
	Error           *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Submit starts a Veo operation and returns its handle.
func (a *VeoAdapter) Submit(ctx context.Context, req SubmitRequest, _ *domain.Credential) (*Submission, error) {
	if a.Client == nil {
		return nil, errors.New("veo: http client is nil")
	}
	if strings.TrimSpace(a.APIKey) == "" {
		return nil, errors.New("veo: api key is required")
	}
	model := strings.TrimSpace(req.ModelKey)
	if model == "" {
		model = "veo-3.0-generate"
	}

	body, err := json.Marshal(veoSubmitReq{
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		SourceMediaURI:  req.SourceMediaURL,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Seed:            req.Seed,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateVideo", a.BaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", a.APIKey)

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(a.Name(), resp)
	}

	var decoded veoSubmitResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: decoded.Error.Message}
	}
	if decoded.OperationID == "" {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: "empty operation id"}
	}
	return &Submission{TaskHandle: decoded.OperationID}, nil
}

// Poll translates Veo operation states into the normalized three-way status.
func (a *VeoAdapter) Poll(ctx context.Context, taskHandle string, _ *domain.Credential) (*PollResult, error) {
	url := fmt.Sprintf("%s/operations/%s", a.BaseURL, taskHandle)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Goog-Api-Key", a.APIKey)

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(a.Name(), resp)
	}

	var decoded veoPollResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}

	switch strings.ToUpper(decoded.State) {
	case "SUCCEEDED":
		return &PollResult{
			Status:   StatusCompleted,
			Progress: 100,
			Output:   &Output{URL: decoded.VideoURI, Format: "video/mp4"},
		}, nil
	case "FAILED", "CANCELLED":
		msg := "generation failed"
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return &PollResult{Status: StatusFailed, Message: msg}, nil
	default:
		// PENDING and RUNNING both map to processing.
		return &PollResult{Status: StatusProcessing, Progress: decoded.ProgressPercent}, nil
	}
}

func apiError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &domain.ProviderAPIError{Provider: provider, StatusCode: resp.StatusCode, Message: msg}
}

var _ Adapter = (*VeoAdapter)(nil)
