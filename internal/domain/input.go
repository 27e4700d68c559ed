package domain

import (
	"fmt"
	"strings"
)

// InputParams is the validated, strongly-typed parameter structure attached
// to a job. Which fields are required depends on the job type; validation
// happens at intake, before any persistent state is written.
type InputParams struct {
	Prompt         string `json:"prompt,omitempty"`
	SourceImageURL string `json:"source_image_url,omitempty"`
	SourceAudioURL string `json:"source_audio_url,omitempty"`
	SourceVideoURL string `json:"source_video_url,omitempty"`
	SegmentStart   int    `json:"segment_start,omitempty"` // retake only, seconds
	SegmentEnd     int    `json:"segment_end,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Seed           int    `json:"seed,omitempty"`
}

// Validate checks the params against the requirements of the given job type.
func (p *InputParams) Validate(t JobType) error {
	switch t {
	case JobTypeTextToVideo:
		if strings.TrimSpace(p.Prompt) == "" {
			return fmt.Errorf("%w: prompt is required for text-to-video", ErrInvalidInput)
		}
	case JobTypeImageToVideo:
		if strings.TrimSpace(p.SourceImageURL) == "" {
			return fmt.Errorf("%w: source_image_url is required for image-to-video", ErrInvalidInput)
		}
	case JobTypeAudioToVideo:
		if strings.TrimSpace(p.SourceAudioURL) == "" {
			return fmt.Errorf("%w: source_audio_url is required for audio-to-video", ErrInvalidInput)
		}
	case JobTypeRetake:
		if strings.TrimSpace(p.SourceVideoURL) == "" {
			return fmt.Errorf("%w: source_video_url is required for retake", ErrInvalidInput)
		}
		if p.SegmentEnd <= p.SegmentStart {
			return fmt.Errorf("%w: retake segment must end after it starts", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrInvalidInput, t)
	}
	return nil
}
