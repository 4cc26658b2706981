package courserec

import (
	"context"
	"fmt"
	"time"
)

// CourseInfo pairs a catalog entry with its embedding availability.
type CourseInfo struct {
	Course       Course
	HasEmbedding bool
}

// CatalogStats summarizes corpus size and embedding coverage.
type CatalogStats struct {
	TotalCourses          int
	CoursesWithEmbeddings int
	EmbeddingCoverage     float64
}

// Course returns one catalog entry by ID.
func (c *Client) Course(ctx context.Context, id string) (_ CourseInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("course.get", start, err) }()

	details, err := c.recommendSvc.CourseDetails(ctx, id)
	if err != nil {
		return CourseInfo{}, fmt.Errorf("get course: %w", err)
	}
	return CourseInfo{
		Course:       fromInternalCourse(details.Course),
		HasEmbedding: details.HasEmbedding,
	}, nil
}

// CatalogStats reports how much of the catalog participates in similarity
// search.
func (c *Client) CatalogStats(ctx context.Context) CatalogStats {
	start := time.Now()
	defer func() { c.obs.observe("catalog.stats", start, nil) }()

	stats := c.recommendSvc.Stats(ctx)
	return CatalogStats{
		TotalCourses:          stats.TotalCourses,
		CoursesWithEmbeddings: stats.CoursesWithEmbeddings,
		EmbeddingCoverage:     stats.EmbeddingCoverage,
	}
}
