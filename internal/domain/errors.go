package domain

import "errors"

var (
	// ErrValidation signals a malformed request. Caller's fault, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrCourseNotFound signals a missing course record.
	ErrCourseNotFound = errors.New("course not found")
	// ErrUpstreamUnavailable signals an embedding or generation provider failure.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
)
