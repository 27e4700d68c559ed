// Package video contains the uniform adapter seam over third-party video
// generation APIs. Adapters translate provider-native request/response shapes
// and status vocabularies into the normalized types below; orchestration code
// never sees a provider-specific payload.
package video

import (
	"context"

	"server/internal/domain"
)

// SubmitRequest is the normalized submission payload handed to an adapter.
type SubmitRequest struct {
	JobID           string
	JobType         domain.JobType
	ModelKey        string
	Prompt          string
	NegativePrompt  string
	SourceMediaURL  string
	DurationSeconds int
	AspectRatio     string
	Seed            int
}

// Status is the three-way normalized poll status.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Output references a finished artifact: either inline bytes or a remote URL.
type Output struct {
	URL    string
	Data   []byte
	Format string // MIME type, e.g. video/mp4
}

// Submission is the result of a submit call. Exactly one of TaskHandle and
// Sync is set: an async handle to poll later, or the finished artifact when
// the provider rendered synchronously.
type Submission struct {
	TaskHandle string
	Sync       *Output
}

// PollResult is a normalized provider poll response.
type PollResult struct {
	Status   Status
	Progress int // provider-native 0-100
	Output   *Output
	Message  string // failure detail, provider vocabulary already stripped
}

// Adapter is implemented once per third-party provider. New providers plug in
// here without touching orchestration logic. cred is nil for first-party
// providers; BYO adapters must reject a nil credential.
type Adapter interface {
	Name() string
	Submit(ctx context.Context, req SubmitRequest, cred *domain.Credential) (*Submission, error)
	Poll(ctx context.Context, taskHandle string, cred *domain.Credential) (*PollResult, error)
}
