package domain

import "time"

// JobType enumerates the supported video generation modalities.
type JobType string

const (
	JobTypeTextToVideo  JobType = "text_to_video"
	JobTypeImageToVideo JobType = "image_to_video"
	JobTypeAudioToVideo JobType = "audio_to_video"
	JobTypeRetake       JobType = "retake"
)

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeTextToVideo, JobTypeImageToVideo, JobTypeAudioToVideo, JobTypeRetake:
		return true
	}
	return false
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// QualityTier is the coarse cost/fidelity bucket used for routing.
type QualityTier string

const (
	TierFast      QualityTier = "fast"
	TierBalanced  QualityTier = "balanced"
	TierCinematic QualityTier = "cinematic"
)

// Valid reports whether q is a known tier.
func (q QualityTier) Valid() bool {
	switch q {
	case TierFast, TierBalanced, TierCinematic:
		return true
	}
	return false
}

// Progress milestones. Provider-reported progress maps into the
// [ProgressPollFloor, ProgressPollCeil] band; the tail above the ceiling is
// reserved for artifact transfer.
const (
	ProgressAccepted  = 10
	ProgressPollFloor = 25
	ProgressPollCeil  = 90
	ProgressDone      = 100
)

// Job is the durable record of a single generation request. Rows are created
// by intake, mutated only by submission and the completion tracker, and never
// deleted by this subsystem.
type Job struct {
	ID              string
	UserID          string
	OrgID           string // empty for personal accounts
	Type            JobType
	Status          JobStatus
	Progress        int
	ProviderID      string
	ModelKey        string
	QualityTier     QualityTier
	DurationSeconds int
	AspectRatio     string
	Input           []byte // validated InputParams stored as JSON
	TaskHandle      string // provider task id; empty for synchronous providers
	OutputKey       string // set once completed
	ErrorMessage    string // set once failed
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
