package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// Stage markers interleaved with generated text on the streaming path.
const (
	markerAnalyzing = "🔍 Analyzing your interests...\n\n"
	markerEmbedding = "🧠 Understanding your preferences...\n\n"
	markerSearching = "📚 Searching through course catalog...\n\n"
	markerNoResults = "❌ No courses found matching your criteria. Try adjusting your query or level preferences.\n"
)

// RecommendStream runs the pipeline lazily, delivering stage markers and
// generated text over the returned channel. The channel is closed when the
// pipeline finishes, fails, or the consumer's context is cancelled; in every
// case usage is recorded exactly once. Validation errors surface before any
// work starts.
func (s *Service) RecommendStream(
	ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester,
) (<-chan string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	out := make(chan string)
	go s.streamPipeline(ctx, req, requester, out)
	return out, nil
}

func (s *Service) streamPipeline(
	ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester, out chan<- string,
) {
	defer close(out)

	start := s.now()
	requestID := s.newID()
	log := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("user_id", requester.ID),
	)
	log.Info("Starting streaming recommendation request")

	var pipelineErr error
	cancelled := false
	defer func() {
		meta := map[string]string{
			"request_id":   requestID,
			"query_length": strconv.Itoa(len(req.Query)),
		}
		if cancelled {
			meta["cancelled"] = "true"
		}
		// The consumer may already be gone; the ledger write must not be
		// cut short by its context.
		s.record(context.WithoutCancel(ctx), requester, "streaming_course_recommendation",
			start, pipelineErr, meta)
	}()

	emit := func(chunk string) bool {
		select {
		case out <- chunk:
			return true
		case <-ctx.Done():
			cancelled = true
			return false
		}
	}
	fail := func(err error) {
		if ctx.Err() != nil {
			cancelled = true
			return
		}
		pipelineErr = err
		log.Error("Streaming recommendation failed", zap.Error(err))
		emit(fmt.Sprintf("\n\n❌ Error generating recommendations: %s", err))
	}

	if !emit(markerAnalyzing) {
		return
	}
	description, err := s.generator.Generate(ctx, describePrompt(req.Query))
	if err != nil {
		fail(fmt.Errorf("describe query: %w", err))
		return
	}

	if !emit(markerEmbedding) {
		return
	}
	embedded, err := s.retriever.Embed(ctx, description)
	if err != nil {
		fail(err)
		return
	}

	if !emit(markerSearching) {
		return
	}
	filter := domain.CourseFilter{Levels: req.Levels, IncludeInactive: req.IncludeInactive}
	matches := s.retriever.Search(ctx, embedded.Embedding, filter, candidateLimit(req.MaxResults))
	if len(matches) == 0 {
		emit(markerNoResults)
		return
	}

	if !emit(fmt.Sprintf(
		"✅ Found %d relevant courses! Generating personalized recommendations...\n\n", len(matches))) {
		return
	}

	// More candidates than results improves ranking context, but the prompt
	// has to stay inside the model's token budget.
	promptMatches := matches
	if len(promptMatches) > req.MaxResults*2 {
		promptMatches = promptMatches[:req.MaxResults*2]
	}

	stream, err := s.generator.GenerateStream(ctx, narrativePrompt(req.Query, promptMatches, req.MaxResults))
	if err != nil {
		fail(fmt.Errorf("open narrative stream: %w", err))
		return
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fail(fmt.Errorf("narrative stream: %w", err))
			return
		}
		if !emit(chunk) {
			return
		}
	}
	log.Info("Completed streaming recommendation request",
		zap.Duration("elapsed", s.now().Sub(start)))
}
