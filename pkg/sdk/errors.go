package courserec

import "github.com/kailas-cloud/courserec/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation          = domain.ErrValidation
	ErrNotFound            = domain.ErrNotFound
	ErrCourseNotFound      = domain.ErrCourseNotFound
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
)
