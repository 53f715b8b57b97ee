// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Grid errors
	ErrOutOfBounds = errors.New("coordinates out of bounds")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyChecked  = errors.New("tile already checked")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "board", "drop", "notify"
	Op      string // Operation that failed, e.g., "Create", "UpdateTile"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Board domain errors
var (
	ErrBoardNotFound      = NewDomainError("board", "Find", ErrNotFound, "board not found")
	ErrBoardAlreadyExists = NewDomainError("board", "Create", ErrAlreadyExists, "board name already taken")
	ErrTeamNotFound       = NewDomainError("board", "FindTeam", ErrNotFound, "team not found on board")
	ErrDuplicateTeam      = NewDomainError("board", "Create", ErrInvalidInput, "duplicate team name")
	ErrTileOutOfBounds    = NewDomainError("board", "FindTile", ErrOutOfBounds, "tile coordinates outside grid")
	ErrInvalidPassword    = NewDomainError("board", "Authorize", ErrForbidden, "invalid password")
	ErrAdminRequired      = NewDomainError("board", "Authorize", ErrForbidden, "admin password required")
	ErrTileChecked        = NewDomainError("board", "UpdateTile", ErrAlreadyChecked, "tile is already checked")
	ErrEmptyGrid          = NewDomainError("board", "Validate", ErrInvalidInput, "board grid cannot be empty")
	ErrRaggedGrid         = NewDomainError("board", "Validate", ErrInvalidFormat, "board grid rows must have equal length")
)

// Drop domain errors
var (
	ErrDropNotFound    = NewDomainError("drop", "Find", ErrNotFound, "drop not found")
	ErrInvalidDrop     = NewDomainError("drop", "Validate", ErrInvalidInput, "invalid drop record")
	ErrEmptyItemName   = NewDomainError("drop", "Validate", ErrEmptyValue, "item name cannot be empty")
	ErrInvalidQuantity = NewDomainError("drop", "Validate", ErrValueOutOfRange, "quantity must be at least 1")
)

// Stats provider errors
var (
	ErrPlayerNotFound    = NewDomainError("stats", "Fetch", ErrNotFound, "player not found")
	ErrStatsUnavailable  = NewDomainError("stats", "Fetch", ErrServiceUnavailable, "stats provider is unavailable")
	ErrStatsTimeout      = NewDomainError("stats", "Fetch", ErrTimeout, "stats provider request timeout")
	ErrStatsRateLimited  = NewDomainError("stats", "Fetch", ErrRateLimited, "stats provider rate limit exceeded")
	ErrStatsInvalidReply = NewDomainError("stats", "Parse", ErrInvalidFormat, "invalid response from stats provider")
)

// Notification errors
var (
	ErrWebhookFailed        = NewDomainError("notify", "Deliver", ErrExternalService, "webhook delivery failed")
	ErrWebhookNotConfigured = NewDomainError("notify", "Resolve", ErrNotFound, "no webhook configured for category")
	ErrDispatcherClosed     = NewDomainError("notify", "Enqueue", ErrInvalidState, "dispatcher is closed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsForbidden checks if the error is an authorization error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsOutOfBounds checks if the error is a grid-bounds error.
func IsOutOfBounds(err error) bool {
	return errors.Is(err, ErrOutOfBounds)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
