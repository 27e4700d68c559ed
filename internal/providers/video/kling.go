package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"server/internal/domain"
)

// KlingAdapter drives the Kling video API. It is a bring-your-own provider:
// every call is signed with the organization's stored secret, and a nil
// credential is rejected before any network traffic.
type KlingAdapter struct {
	BaseURL string
	Client  *http.Client
}

func NewKlingAdapter(baseURL string) *KlingAdapter {
	if baseURL == "" {
		baseURL = "https://api.klingai.com"
	}
	return &KlingAdapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *KlingAdapter) Name() string { return "kling" }

type klingSubmitReq struct {
	ModelName      string `json:"model_name"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Image          string `json:"image,omitempty"`
	Duration       string `json:"duration"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
}

type klingEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID        string `json:"task_id"`
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

// Submit creates a Kling task under the org's own account.
func (a *KlingAdapter) Submit(ctx context.Context, req SubmitRequest, cred *domain.Credential) (*Submission, error) {
	if cred == nil || strings.TrimSpace(cred.Secret) == "" {
		return nil, errors.New("kling: credential is required")
	}
	model := strings.TrimSpace(req.ModelKey)
	if model == "" {
		model = "kling-v1-6"
	}

	body, err := json.Marshal(klingSubmitReq{
		ModelName:      model,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Image:          req.SourceMediaURL,
		Duration:       strconv.Itoa(req.DurationSeconds),
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, err
	}

	path := "/v1/videos/text2video"
	if req.JobType == domain.JobTypeImageToVideo {
		path = "/v1/videos/image2video"
	}
	decoded, err := a.call(ctx, http.MethodPost, path, bytes.NewReader(body), cred)
	if err != nil {
		return nil, err
	}
	if decoded.Data.TaskID == "" {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: "empty task id"}
	}
	return &Submission{TaskHandle: decoded.Data.TaskID}, nil
}

// Poll maps Kling's task_status vocabulary onto the normalized status.
func (a *KlingAdapter) Poll(ctx context.Context, taskHandle string, cred *domain.Credential) (*PollResult, error) {
	if cred == nil || strings.TrimSpace(cred.Secret) == "" {
		return nil, errors.New("kling: credential is required")
	}
	decoded, err := a.call(ctx, http.MethodGet, "/v1/videos/tasks/"+taskHandle, nil, cred)
	if err != nil {
		return nil, err
	}

	switch decoded.Data.TaskStatus {
	case "succeed":
		var url string
		if vids := decoded.Data.TaskResult.Videos; len(vids) > 0 {
			url = vids[0].URL
		}
		if url == "" {
			return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: "succeeded task has no video url"}
		}
		return &PollResult{Status: StatusCompleted, Progress: 100, Output: &Output{URL: url, Format: "video/mp4"}}, nil
	case "failed":
		msg := decoded.Data.TaskStatusMsg
		if msg == "" {
			msg = "generation failed"
		}
		return &PollResult{Status: StatusFailed, Message: msg}, nil
	case "submitted", "processing":
		return &PollResult{Status: StatusProcessing}, nil
	default:
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: fmt.Sprintf("unknown task_status %q", decoded.Data.TaskStatus)}
	}
}

func (a *KlingAdapter) call(ctx context.Context, method, path string, body io.Reader, cred *domain.Credential) (*klingEnvelope, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(a.Name(), resp)
	}

	var decoded klingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: err.Error()}
	}
	if decoded.Code != 0 {
		return nil, &domain.ProviderAPIError{Provider: a.Name(), Message: fmt.Sprintf("code %d: %s", decoded.Code, decoded.Message)}
	}
	return &decoded, nil
}

var _ Adapter = (*KlingAdapter)(nil)
