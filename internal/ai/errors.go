package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when no LLM provider is available.
var ErrNotConfigured = errors.New("LLM provider is not configured")

// ErrAPI indicates the provider rejected the request, e.g. quota,
// rate limit, or billing.
type ErrAPI struct {
	StatusCode int
	Err        error
}

func (e *ErrAPI) Error() string {
	return fmt.Sprintf("LLM API error (status %d): %v", e.StatusCode, e.Err)
}

func (e *ErrAPI) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider could not be reached or
// failed in a way that is not an API rejection.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrInvalidOutput indicates the LLM reply is not the JSON we asked for.
type ErrInvalidOutput struct {
	Raw     string
	Missing []string
	Err     error
}

func (e *ErrInvalidOutput) Error() string {
	if len(e.Missing) > 0 {
		return "必要フィールドが不足: " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("invalid LLM output: %v", e.Err)
}

func (e *ErrInvalidOutput) Unwrap() error { return e.Err }
