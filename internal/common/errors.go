// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Configuration errors surfaced directly to the user.
	ErrNoBudget         = errors.New("no budget configured for this chat")
	ErrNoDefaultAccount = errors.New("no default paying account configured")

	// Inference errors. All of these degrade to the manual-entry flow.
	ErrInferenceFailed   = errors.New("inference call failed")
	ErrMalformedResponse = errors.New("malformed inference response")

	// Audio validation errors.
	ErrAudioTooLong    = errors.New("audio exceeds the duration ceiling")
	ErrAudioTooLarge   = errors.New("audio exceeds the size ceiling")
	ErrAudioNotGrasped = errors.New("audio could not be transcribed")

	// Undo errors.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// UserError represents an error that should be shown to the user. The message
// is always actionable: it tells the user what input would resolve it.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
