package courserec

import (
	"context"
	"time"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// Identity is the caller on whose behalf requests are counted. An empty
// UserID is treated as an anonymous guest.
type Identity struct {
	UserID     string
	Role       string // guest, student, graduate_student, staff, faculty, admin
	Department string
}

func (i Identity) requester() domain.Requester {
	if i.UserID == "" {
		return domain.Guest("sdk")
	}
	return domain.Requester{
		ID:         i.UserID,
		Role:       domain.ParseRole(i.Role),
		Department: i.Department,
	}
}

// Request describes one recommendation query.
type Request struct {
	Query               string
	Levels              []int // course levels to include, e.g. 200, 300
	MaxResults          int   // 1..50, default 10
	IncludeExplanations bool
	IncludeInactive     bool
}

func (r Request) internal() *domain.RecommendationRequest {
	return &domain.RecommendationRequest{
		Query:               r.Query,
		Levels:              r.Levels,
		MaxResults:          r.MaxResults,
		IncludeExplanations: r.IncludeExplanations,
		IncludeInactive:     r.IncludeInactive,
	}
}

// Course is a catalog entry.
type Course struct {
	ID          string
	Code        string
	Title       string
	Description string
	Level       int
	Department  string
	Active      bool
}

// Match pairs a course with its similarity to the query.
type Match struct {
	Course      Course
	Similarity  float64
	Explanation string
}

// Result is the outcome of one recommendation call. Matches are ranked
// best first.
type Result struct {
	Matches              []Match
	Query                string
	TotalCoursesSearched int
	SearchTime           time.Duration
	RequestID            string
	SearchExplanation    string
	GeneratedDescription string
}

// Embedder is the public text vectorization contract for custom providers.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator is the public text generation contract for custom providers.
// Stream chunks end with an empty string and io.EOF.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string) (TextStream, error)
}

// TextStream is a finite sequence of generated text chunks.
type TextStream interface {
	Recv() (string, error)
	Close() error
}

func fromInternalCourse(c *domain.CourseRecord) Course {
	if c == nil {
		return Course{}
	}
	return Course{
		ID:          c.ID,
		Code:        c.Code,
		Title:       c.Title,
		Description: c.Description,
		Level:       c.Level,
		Department:  c.Department,
		Active:      c.Active,
	}
}

func fromInternalMatches(matches []domain.SimilarityMatch) []Match {
	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = Match{
			Course:      fromInternalCourse(m.Course),
			Similarity:  m.Score,
			Explanation: m.Explanation,
		}
	}
	return out
}

func fromInternalResult(r *domain.RecommendationResult) Result {
	return Result{
		Matches:              fromInternalMatches(r.Matches),
		Query:                r.Query,
		TotalCoursesSearched: r.TotalCoursesSearched,
		SearchTime:           r.SearchTime,
		RequestID:            r.RequestID,
		SearchExplanation:    r.SearchExplanation,
		GeneratedDescription: r.GeneratedDescription,
	}
}
