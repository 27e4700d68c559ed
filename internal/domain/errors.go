package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInsufficientCredits     = errors.New("insufficient generation credits")
	ErrDailyQuotaExceeded      = errors.New("daily generation quota exceeded")
	ErrMonthlyQuotaExceeded    = errors.New("monthly generation quota exceeded")
	ErrConcurrencyLimitReached = errors.New("concurrent job limit reached")
	ErrProviderNotConfigured   = errors.New("provider not configured")
	ErrArtifactTransfer        = errors.New("artifact transfer failed")
	ErrProcessingTimeout       = errors.New("processing timed out")
)

// ProviderAPIError carries the upstream status and message from a failed
// provider call.
type ProviderAPIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: provider api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: provider api error: %s", e.Provider, e.Message)
}
