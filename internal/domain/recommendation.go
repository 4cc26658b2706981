package domain

import (
	"fmt"
	"strings"
	"time"
)

// Request bounds.
const (
	MaxQueryLength = 1000
	MaxResultCount = 50
	MinResultCount = 1
)

// RecommendationRequest describes one recommendation query.
type RecommendationRequest struct {
	Query               string `json:"query"`
	Levels              []int  `json:"levels,omitempty"`
	MaxResults          int    `json:"max_results"`
	IncludeExplanations bool   `json:"include_explanations"`
	IncludeInactive     bool   `json:"include_inactive"`
}

// Validate checks request bounds and normalizes MaxResults.
func (r *RecommendationRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query must not be empty", ErrValidation)
	}
	if len(r.Query) > MaxQueryLength {
		return fmt.Errorf("%w: query exceeds %d characters", ErrValidation, MaxQueryLength)
	}
	if r.MaxResults == 0 {
		r.MaxResults = 10
	}
	if r.MaxResults < MinResultCount || r.MaxResults > MaxResultCount {
		return fmt.Errorf("%w: max_results must be between %d and %d",
			ErrValidation, MinResultCount, MaxResultCount)
	}
	for _, lvl := range r.Levels {
		if lvl < 100 || lvl > 900 {
			return fmt.Errorf("%w: invalid course level %d", ErrValidation, lvl)
		}
	}
	return nil
}

// RecommendationResult is the ordered outcome of one pipeline invocation.
// Matches are ranked best first.
type RecommendationResult struct {
	Matches              []SimilarityMatch
	Query                string
	TotalCoursesSearched int
	SearchTime           time.Duration
	RequestID            string
	SearchExplanation    string
	GeneratedDescription string
}
