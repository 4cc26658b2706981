package chi

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// limitsMiddleware gates a route behind the requester's per-minute rate
// window and daily quota, and consumes one quota unit once the handler
// returns without a client or server error. Streaming responses commit
// their status early, so a drained stream bills like a blocking response.
func (s *Server) limitsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requester := RequesterFrom(r.Context())

		rate := s.quota.CheckRateLimit(r.Context(), requester)
		if !rate.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(ceilSeconds(rate.RetryAfter)))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", rate.ResetAt.UTC().Format(time.RFC3339))
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
			return
		}

		daily := s.quota.CheckQuota(r.Context(), requester)
		if !daily.Allowed {
			w.Header().Set("X-Quota-Remaining", "0")
			w.Header().Set("X-Quota-Reset", daily.ResetAt.UTC().Format(time.RFC3339))
			writeError(w, http.StatusTooManyRequests, CodeQuotaExceeded,
				fmt.Sprintf("Quota exceeded. Limit: %d", daily.Limit))
			return
		}

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if ww.Status() < http.StatusBadRequest {
			// The client may have hung up mid-stream; billing still goes
			// through.
			s.quota.RecordRequest(context.WithoutCancel(r.Context()), requester)
		}
	})
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
