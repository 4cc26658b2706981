package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/courserec/internal/domain"
)

func collect(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var chunks []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, chunk)
		case <-timeout:
			t.Fatal("stream did not close")
		}
	}
}

func waitRecord(t *testing.T, ledger *mockLedger) domain.UsageRecord {
	t.Helper()
	select {
	case <-ledger.done:
	case <-time.After(5 * time.Second):
		t.Fatal("no usage record observed")
	}
	records := ledger.all()
	if len(records) != 1 {
		t.Fatalf("usage records = %d, want exactly 1", len(records))
	}
	return records[0]
}

func TestRecommendStream_DeliversMarkersAndChunks(t *testing.T) {
	retriever := &mockRetriever{
		searchFn: func(_ context.Context, _ []float32, _ domain.CourseFilter, _ int) []domain.SimilarityMatch {
			return []domain.SimilarityMatch{match("1", 0.9), match("2", 0.8)}
		},
	}
	stream := &mockStream{chunks: []string{"1. **CS1: Course 1**\n", "Rationale: fits.\n"}}
	generator := &mockGenerator{
		streamFn: func(context.Context, string) (domain.TextStream, error) { return stream, nil },
	}
	ledger := newMockLedger()
	svc := newTestService(retriever, generator, ledger)

	ch, err := svc.RecommendStream(context.Background(),
		&domain.RecommendationRequest{Query: "databases"}, testRequester)
	if err != nil {
		t.Fatalf("RecommendStream() error = %v", err)
	}
	chunks := collect(t, ch)

	want := []string{markerAnalyzing, markerEmbedding, markerSearching}
	for i, marker := range want {
		if chunks[i] != marker {
			t.Errorf("chunk %d = %q, want marker %q", i, chunks[i], marker)
		}
	}
	if !strings.HasPrefix(chunks[3], "✅ Found 2") {
		t.Errorf("chunk 3 = %q, want found marker", chunks[3])
	}
	if got := strings.Join(chunks[4:], ""); got != "1. **CS1: Course 1**\nRationale: fits.\n" {
		t.Errorf("generated text = %q", got)
	}
	if !stream.isClosed() {
		t.Error("upstream stream left open")
	}

	rec := waitRecord(t, ledger)
	if !rec.Success || rec.RequestType != "streaming_course_recommendation" {
		t.Errorf("usage record = %+v", rec)
	}
}

func TestRecommendStream_EmptyCorpus(t *testing.T) {
	ledger := newMockLedger()
	svc := newTestService(&mockRetriever{}, &mockGenerator{}, ledger)

	ch, err := svc.RecommendStream(context.Background(),
		&domain.RecommendationRequest{Query: "underwater archery"}, testRequester)
	if err != nil {
		t.Fatalf("RecommendStream() error = %v", err)
	}
	chunks := collect(t, ch)
	if chunks[len(chunks)-1] != markerNoResults {
		t.Errorf("last chunk = %q, want no-results marker", chunks[len(chunks)-1])
	}
	if rec := waitRecord(t, ledger); !rec.Success {
		t.Errorf("usage record = %+v, want success", rec)
	}
}

func TestRecommendStream_ValidationError(t *testing.T) {
	svc := newTestService(&mockRetriever{}, &mockGenerator{}, newMockLedger())

	_, err := svc.RecommendStream(context.Background(),
		&domain.RecommendationRequest{Query: ""}, testRequester)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestRecommendStream_ProviderErrorEmitsMarker(t *testing.T) {
	generator := &mockGenerator{
		generateFn: func(context.Context, string) (string, error) {
			return "", domain.ErrUpstreamUnavailable
		},
	}
	ledger := newMockLedger()
	svc := newTestService(&mockRetriever{}, generator, ledger)

	ch, err := svc.RecommendStream(context.Background(),
		&domain.RecommendationRequest{Query: "robotics"}, testRequester)
	if err != nil {
		t.Fatalf("RecommendStream() error = %v", err)
	}
	chunks := collect(t, ch)
	last := chunks[len(chunks)-1]
	if !strings.Contains(last, "❌ Error generating recommendations") {
		t.Errorf("last chunk = %q, want error marker", last)
	}
	rec := waitRecord(t, ledger)
	if rec.Success || rec.ErrorMessage == "" {
		t.Errorf("usage record = %+v, want failure", rec)
	}
}

func TestRecommendStream_CancelRecordsUsageOnce(t *testing.T) {
	retriever := &mockRetriever{
		searchFn: func(_ context.Context, _ []float32, _ domain.CourseFilter, _ int) []domain.SimilarityMatch {
			return []domain.SimilarityMatch{match("1", 0.9)}
		},
	}
	stream := &mockStream{chunks: []string{"a", "b", "c"}}
	generator := &mockGenerator{
		streamFn: func(context.Context, string) (domain.TextStream, error) { return stream, nil },
	}
	ledger := newMockLedger()
	svc := newTestService(retriever, generator, ledger)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.RecommendStream(ctx,
		&domain.RecommendationRequest{Query: "graphics"}, testRequester)
	if err != nil {
		t.Fatalf("RecommendStream() error = %v", err)
	}

	// Read the first marker, then walk away.
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no first chunk")
	}
	cancel()

	rec := waitRecord(t, ledger)
	if !rec.Success {
		t.Errorf("cancelled stream record = %+v, want success", rec)
	}
	if rec.Metadata["cancelled"] != "true" {
		t.Errorf("metadata = %v, want cancelled=true", rec.Metadata)
	}

	// Channel must close without further reads.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream did not close after cancellation")
		}
	}
}
