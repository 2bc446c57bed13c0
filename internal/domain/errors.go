package domain

import (
	"errors"
	"fmt"
	"time"
)

// AppError is the base domain error type. Every failure the engine reports
// to the outer layer is one of these, so transport mapping never needs to
// inspect message text.
type AppError struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	Status            int    `json:"-"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	Cause             error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// CodeOf returns the AppError code for err, or "" if err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// Ledger and board-engine error constructors.

func ErrInsufficientCredits() *AppError {
	return &AppError{Code: "INSUFFICIENT_CREDITS", Message: "insufficient credits", Status: 400}
}

func ErrGameClosed(gameID string) *AppError {
	return &AppError{Code: "GAME_CLOSED", Message: fmt.Sprintf("game %s is not accepting purchases", gameID), Status: 409}
}

func ErrGameStillOpen(gameID string) *AppError {
	return &AppError{Code: "GAME_STILL_OPEN", Message: fmt.Sprintf("game %s has not closed yet", gameID), Status: 409}
}

func ErrAlreadyPublished(gameID string) *AppError {
	return &AppError{Code: "ALREADY_PUBLISHED", Message: fmt.Sprintf("winning sequence for game %s already published", gameID), Status: 409}
}

func ErrInvalidSelection(index int, msg string) *AppError {
	return &AppError{Code: "INVALID_SELECTION", Message: fmt.Sprintf("selection %d: %s", index, msg), Status: 400}
}

// ErrConcurrencyConflict is surfaced only after internal retries exhaust.
func ErrConcurrencyConflict(cause error) *AppError {
	return &AppError{Code: "CONCURRENCY_CONFLICT", Message: "transient write conflict, retry the request", Status: 503, Cause: cause}
}

// ErrRateLimited carries the retry-after duration unchanged to the caller.
func ErrRateLimited(retryAfter time.Duration) *AppError {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &AppError{
		Code:              "RATE_LIMITED",
		Message:           fmt.Sprintf("too many requests, retry in %ds", secs),
		Status:            429,
		RetryAfterSeconds: secs,
	}
}
