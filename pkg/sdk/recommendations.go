package courserec

import (
	"context"
	"fmt"
	"time"
)

// Recommend runs the blocking recommendation pipeline for the given
// identity. The call is admitted through the identity's rate and quota
// windows and recorded in the usage ledger.
func (c *Client) Recommend(ctx context.Context, req Request, id Identity) (_ Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()

	requester := id.requester()
	if err = c.admit(ctx, requester); err != nil {
		return Result{}, err
	}

	result, err := c.recommendSvc.Recommend(ctx, req.internal(), requester)
	if err != nil {
		return Result{}, fmt.Errorf("recommend: %w", err)
	}

	c.quotaSvc.RecordRequest(ctx, requester)
	return fromInternalResult(result), nil
}

// RecommendStream runs the streaming pipeline. The returned channel emits
// progress markers and narrative chunks, and closes when the stream ends.
// Cancel ctx to abandon the stream early.
func (c *Client) RecommendStream(ctx context.Context, req Request, id Identity) (_ <-chan string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend.stream", start, err) }()

	requester := id.requester()
	if err = c.admit(ctx, requester); err != nil {
		return nil, err
	}

	stream, err := c.recommendSvc.RecommendStream(ctx, req.internal(), requester)
	if err != nil {
		return nil, fmt.Errorf("recommend stream: %w", err)
	}

	c.quotaSvc.RecordRequest(ctx, requester)
	return stream, nil
}

// Similar returns courses close to the given one in embedding space.
// limit outside 1..50 falls back to 10.
func (c *Client) Similar(ctx context.Context, courseID string, limit int) (_ []Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe("similar", start, err) }()

	matches, err := c.recommendSvc.SimilarCourses(ctx, courseID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar courses: %w", err)
	}
	return fromInternalMatches(matches), nil
}

// Explain generates a short relevance explanation for a course against a
// query. Provider failures degrade to a fixed fallback text.
func (c *Client) Explain(ctx context.Context, courseID, query string) (_ string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("explain", start, err) }()

	explanation, err := c.recommendSvc.ExplainCourse(ctx, courseID, query)
	if err != nil {
		return "", fmt.Errorf("explain course: %w", err)
	}
	return explanation, nil
}
