package chi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	quotauc "github.com/kailas-cloud/courserec/internal/usecase/quota"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/courserec/internal/usecase/usage"
)

// Consumer interfaces over the usecase layer (ISP).
type recommender interface {
	Recommend(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (*domain.RecommendationResult, error)
	RecommendStream(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (<-chan string, error)
	CourseDetails(ctx context.Context, id string) (*recommenduc.CourseDetails, error)
	SimilarCourses(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error)
	ExplainCourse(ctx context.Context, courseID, query string) (string, error)
	Stats(ctx context.Context) recommenduc.Stats
}

type quotaController interface {
	CheckRateLimit(ctx context.Context, req domain.Requester) quotauc.Decision
	CheckQuota(ctx context.Context, req domain.Requester) quotauc.Decision
	RecordRequest(ctx context.Context, req domain.Requester)
	QuotaInfo(ctx context.Context, req domain.Requester) quotauc.Info
	ResetQuota(ctx context.Context, userID string) bool
	SetQuotaOverride(ctx context.Context, userID string, limit int) bool
}

type usageReporter interface {
	UserRecords(userID string, period usageuc.Period) []domain.UsageRecord
	SystemStats(period usageuc.Period) usageuc.SystemStats
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server is the HTTP API over the recommendation pipeline.
type Server struct {
	recommend     recommender
	quota         quotaController
	usage         usageReporter
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend recommender,
	quota quotaController,
	usage usageReporter,
	health healthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend: recommend,
		quota:     quota,
		usage:     usage,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrCourseNotFound, http.StatusNotFound, CodeCourseNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamError),
	}
	return s
}

// Register mounts all routes on the router. Identity middleware is expected
// on the parent router; the rate/quota gate applies to the recommendation
// routes only.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/recommendations", func(r chi.Router) {
			r.Use(s.limitsMiddleware)
			r.Post("/", s.CreateRecommendations)
			r.Post("/stream", s.StreamRecommendations)
		})

		r.Route("/courses/{courseID}", func(r chi.Router) {
			r.Get("/", s.GetCourse)
			r.Get("/similar", s.GetSimilarCourses)
			r.Get("/explain", s.ExplainCourse)
		})

		r.Get("/quota", s.GetQuota)
		r.Get("/stats", s.GetStats)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/usage", s.GetSystemUsage)
			r.Get("/usage/{userID}", s.GetUserUsage)
			r.Post("/quota/{userID}/reset", s.ResetQuota)
			r.Put("/quota/{userID}", s.SetQuotaOverride)
		})
	})
}

// CreateRecommendations handles POST /api/v1/recommendations.
func (s *Server) CreateRecommendations(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.recommend.Recommend(r.Context(), &req, RequesterFrom(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendationToResponse(result))
}

// StreamRecommendations handles POST /api/v1/recommendations/stream. Chunks
// are framed as "data: ..." lines; "data: [DONE]" terminates the stream.
func (s *Server) StreamRecommendations(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "streaming unsupported")
		return
	}

	stream, err := s.recommend.RecommendStream(r.Context(), &req, RequesterFrom(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for chunk := range stream {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// GetCourse handles GET /api/v1/courses/{courseID}.
func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	details, err := s.recommend.CourseDetails(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GetSimilarCourses handles GET /api/v1/courses/{courseID}/similar.
func (s *Server) GetSimilarCourses(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < domain.MinResultCount || n > domain.MaxResultCount {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("limit must be between %d and %d", domain.MinResultCount, domain.MaxResultCount))
			return
		}
		limit = n
	}

	courseID := chi.URLParam(r, "courseID")
	matches, err := s.recommend.SimilarCourses(r.Context(), courseID, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarCoursesResponse{
		CourseID:       courseID,
		SimilarCourses: matchesToResponse(matches),
	})
}

// ExplainCourse handles GET /api/v1/courses/{courseID}/explain.
func (s *Server) ExplainCourse(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query parameter is required")
		return
	}

	courseID := chi.URLParam(r, "courseID")
	explanation, err := s.recommend.ExplainCourse(r.Context(), courseID, query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, explanationResponse{
		CourseID:    courseID,
		UserQuery:   query,
		Explanation: explanation,
	})
}

// GetQuota handles GET /api/v1/quota.
func (s *Server) GetQuota(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.quota.QuotaInfo(r.Context(), RequesterFrom(r.Context())))
}

// GetStats handles GET /api/v1/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.recommend.Stats(r.Context()))
}

// GetSystemUsage handles GET /api/v1/admin/usage.
func (s *Server) GetSystemUsage(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, systemStatsToResponse(s.usage.SystemStats(period)))
}

// GetUserUsage handles GET /api/v1/admin/usage/{userID}.
func (s *Server) GetUserUsage(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	userID := chi.URLParam(r, "userID")
	records := s.usage.UserRecords(userID, period)

	items := make([]usageRecordResponse, len(records))
	for i := range records {
		items[i] = usageRecordToResponse(&records[i])
	}
	writeJSON(w, http.StatusOK, userUsageResponse{UserID: userID, Records: items})
}

// ResetQuota handles POST /api/v1/admin/quota/{userID}/reset.
func (s *Server) ResetQuota(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	reset := s.quota.ResetQuota(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "reset": reset})
}

// SetQuotaOverride handles PUT /api/v1/admin/quota/{userID}.
func (s *Server) SetQuotaOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DailyLimit int `json:"daily_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DailyLimit <= 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "daily_limit must be positive")
		return
	}

	userID := chi.URLParam(r, "userID")
	if !s.quota.SetQuotaOverride(r.Context(), userID, req.DailyLimit) {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to store quota override")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "daily_limit": req.DailyLimit})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequesterFrom(r.Context()).Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, CodeForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func periodFromQuery(r *http.Request) (usageuc.Period, error) {
	var period usageuc.Period
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return usageuc.Period{}, fmt.Errorf("start must be RFC 3339: %w", err)
		}
		period.From = t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return usageuc.Period{}, fmt.Errorf("end must be RFC 3339: %w", err)
		}
		period.To = t
	}
	return period, nil
}

// Response DTOs. Durations cross the wire as integer milliseconds.

type matchResponse struct {
	Course               *domain.CourseRecord `json:"course"`
	SimilarityScore      float64              `json:"similarity_score"`
	RelevanceExplanation string               `json:"relevance_explanation,omitempty"`
}

type recommendationResponse struct {
	Recommendations            []matchResponse `json:"recommendations"`
	Query                      string          `json:"query"`
	TotalCoursesSearched       int             `json:"total_courses_searched"`
	SearchTimeMS               int64           `json:"search_time_ms"`
	RequestID                  string          `json:"request_id"`
	SearchExplanation          string          `json:"search_explanation,omitempty"`
	GeneratedCourseDescription string          `json:"generated_course_description,omitempty"`
}

type similarCoursesResponse struct {
	CourseID       string          `json:"course_id"`
	SimilarCourses []matchResponse `json:"similar_courses"`
}

type explanationResponse struct {
	CourseID    string `json:"course_id"`
	UserQuery   string `json:"user_query"`
	Explanation string `json:"explanation"`
}

type usageRecordResponse struct {
	Endpoint       string            `json:"endpoint"`
	RequestType    string            `json:"request_type"`
	Timestamp      time.Time         `json:"timestamp"`
	ResponseTimeMS int64             `json:"response_time_ms"`
	Success        bool              `json:"success"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type userUsageResponse struct {
	UserID  string                `json:"user_id"`
	Records []usageRecordResponse `json:"records"`
}

type systemStatsResponse struct {
	TotalRequests         int        `json:"total_requests"`
	SuccessfulRequests    int        `json:"successful_requests"`
	UniqueUsers           int        `json:"unique_users"`
	SuccessRate           float64    `json:"success_rate"`
	AverageResponseTimeMS int64      `json:"average_response_time_ms"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	EndDate               *time.Time `json:"end_date,omitempty"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

func matchesToResponse(matches []domain.SimilarityMatch) []matchResponse {
	items := make([]matchResponse, len(matches))
	for i, m := range matches {
		items[i] = matchResponse{
			Course:               m.Course,
			SimilarityScore:      m.Score,
			RelevanceExplanation: m.Explanation,
		}
	}
	return items
}

func recommendationToResponse(result *domain.RecommendationResult) recommendationResponse {
	return recommendationResponse{
		Recommendations:            matchesToResponse(result.Matches),
		Query:                      result.Query,
		TotalCoursesSearched:       result.TotalCoursesSearched,
		SearchTimeMS:               result.SearchTime.Milliseconds(),
		RequestID:                  result.RequestID,
		SearchExplanation:          result.SearchExplanation,
		GeneratedCourseDescription: result.GeneratedDescription,
	}
}

func usageRecordToResponse(rec *domain.UsageRecord) usageRecordResponse {
	return usageRecordResponse{
		Endpoint:       rec.Endpoint,
		RequestType:    rec.RequestType,
		Timestamp:      rec.Timestamp,
		ResponseTimeMS: rec.ResponseTime.Milliseconds(),
		Success:        rec.Success,
		ErrorMessage:   rec.ErrorMessage,
		Metadata:       rec.Metadata,
	}
}

func systemStatsToResponse(stats usageuc.SystemStats) systemStatsResponse {
	resp := systemStatsResponse{
		TotalRequests:         stats.TotalRequests,
		SuccessfulRequests:    stats.SuccessfulRequests,
		UniqueUsers:           stats.UniqueUsers,
		SuccessRate:           stats.SuccessRate,
		AverageResponseTimeMS: stats.AverageResponseTime.Milliseconds(),
	}
	if !stats.Period.From.IsZero() {
		from := stats.Period.From
		resp.StartDate = &from
	}
	if !stats.Period.To.IsZero() {
		to := stats.Period.To
		resp.EndDate = &to
	}
	return resp
}
