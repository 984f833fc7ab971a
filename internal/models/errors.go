package models

import (
	"errors"
)

var (
	// Text service failures
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrQuotaExhausted    = errors.New("AI credits exhausted")
	ErrTextService       = errors.New("text service request failed")
	ErrMalformedResponse = errors.New("malformed text service response")

	// Workflow failures
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrConversationLocked = errors.New("conversation is locked")
	ErrTurnInProgress     = errors.New("a previous message is still being processed")
	ErrPersistence        = errors.New("failed to persist project")

	// Auth failures
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrUnauthenticated    = errors.New("not signed in")
)

// ValidationError is a local form or input failure that never reaches an external service
type ValidationError struct {
	Message string
}

// NewValidationError creates a validation error with a user-facing message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes ValidationError match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UserMessage converts an error into the notification text shown to users
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	case errors.Is(err, ErrQuotaExhausted):
		return "AI credits have been exhausted. Please add more credits."
	case errors.Is(err, ErrMalformedResponse):
		return "The AI response could not be understood. Please try again."
	case errors.Is(err, ErrTextService):
		return "Failed to get AI response. Please try again."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrAlreadyRegistered):
		return "This email is already registered. Please sign in instead."
	case errors.Is(err, ErrTurnInProgress):
		return "Please wait for the assistant to reply before sending another message."
	default:
		return err.Error()
	}
}
