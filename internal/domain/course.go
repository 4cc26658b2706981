package domain

import "time"

// CourseRecord is a catalog course with its precomputed embedding.
// Records are immutable after load except through explicit embedding
// update/delete; a nil Embedding is a valid state (no match possible).
type CourseRecord struct {
	ID          string    `json:"id"`
	Code        string    `json:"course_code"` // e.g. "EECS485"
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       int       `json:"level"` // 100, 200, 300, ...
	Department  string    `json:"department"`
	Active      bool      `json:"is_active"`
	Embedding   []float32 `json:"embedding,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasEmbedding reports whether the record can participate in similarity search.
func (c *CourseRecord) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// CourseFilter narrows the candidate set before ranking.
type CourseFilter struct {
	Levels          []int
	Departments     []string
	IncludeInactive bool
}

// Matches reports whether a course passes the filter.
func (f CourseFilter) Matches(c *CourseRecord) bool {
	if !f.IncludeInactive && !c.Active {
		return false
	}
	if len(f.Levels) > 0 && !containsInt(f.Levels, c.Level) {
		return false
	}
	if len(f.Departments) > 0 && !containsString(f.Departments, c.Department) {
		return false
	}
	return true
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// SimilarityMatch pairs a course with its similarity score against a query
// vector. Explanation is filled lazily during enrichment and may stay empty.
type SimilarityMatch struct {
	Course      *CourseRecord `json:"course"`
	Score       float64       `json:"similarity_score"`
	Explanation string        `json:"relevance_explanation,omitempty"`
}
