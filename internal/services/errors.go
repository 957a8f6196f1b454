package services

import "github.com/pkg/errors"

// Sentinel errors the handlers map to HTTP statuses. Services wrap these
// with context; callers match with errors.Is.
var (
	// ErrInvalidInput marks validation failures caught before any store call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied is returned when the caller holds no permission on the
	// project. It deliberately reads like "not found" to avoid leaking
	// project existence.
	ErrAccessDenied = errors.New("project not found or access denied")

	// ErrNotOwner is returned when a collaborator attempts an owner-only
	// operation.
	ErrNotOwner = errors.New("not authorized to modify this project")

	// ErrNodeNotFound is returned when an inspect request addresses a node
	// index the loaded model does not contain.
	ErrNodeNotFound = errors.New("scene node not found")
)
