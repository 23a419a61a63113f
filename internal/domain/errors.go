package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a node or parent was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// NotOwnerError indicates the actor does not own the node and holds
	// no grant that would allow the operation
	NotOwnerError struct {
		Message string
	}

	// CycleError indicates a move that would make a folder its own ancestor
	CycleError struct {
		Message string
	}

	// InvalidStateError indicates an operation applied in the wrong trash
	// state (restoring a live node, re-trashing a trashed node)
	InvalidStateError struct {
		Message string
	}

	// LocationUnavailableError indicates a restore blocked because the
	// original parent is gone or itself trashed
	LocationUnavailableError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string            { return e.Message }
func (e *ValidationError) Error() string          { return e.Message }
func (e *UnauthorizedError) Error() string        { return e.Message }
func (e *NotOwnerError) Error() string            { return e.Message }
func (e *CycleError) Error() string               { return e.Message }
func (e *InvalidStateError) Error() string        { return e.Message }
func (e *LocationUnavailableError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int            { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int          { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int        { return http.StatusUnauthorized }
func (e *NotOwnerError) StatusCode() int            { return http.StatusForbidden }
func (e *CycleError) StatusCode() int               { return http.StatusConflict }
func (e *InvalidStateError) StatusCode() int        { return http.StatusConflict }
func (e *LocationUnavailableError) StatusCode() int { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotOwner            = errors.New("not owner")
	ErrCycle               = errors.New("cyclic operation")
	ErrInvalidState        = errors.New("invalid state")
	ErrLocationUnavailable = errors.New("original location unavailable")
)

// Is hooks so the structured types match their sentinels with errors.Is()
func (e *NotFoundError) Is(target error) bool            { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool          { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool        { return target == ErrUnauthorized }
func (e *NotOwnerError) Is(target error) bool            { return target == ErrNotOwner }
func (e *CycleError) Is(target error) bool               { return target == ErrCycle }
func (e *InvalidStateError) Is(target error) bool        { return target == ErrInvalidState }
func (e *LocationUnavailableError) Is(target error) bool { return target == ErrLocationUnavailable }

// ConflictError represents an unresolved duplicate name. It carries enough
// structured detail (kind, offending name, existing resource ID) for the
// calling layer to offer a replace/keep-both choice instead of a generic
// failure.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Kind of resource (folder, file)
	ResourceID   string // ID of the existing/conflicting resource
	Name         string // The name that collided
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
