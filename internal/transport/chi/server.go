// Package chi exposes the HTTP API: consolidated search, autosuggest,
// recommendations, ingestion and admin operations.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nordkart/shopsearch/internal/cache"
	"github.com/nordkart/shopsearch/internal/domain"
	domorder "github.com/nordkart/shopsearch/internal/domain/order"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	domsearch "github.com/nordkart/shopsearch/internal/domain/search"
	"github.com/nordkart/shopsearch/internal/domain/season"
	affinityuc "github.com/nordkart/shopsearch/internal/usecase/affinity"
	healthuc "github.com/nordkart/shopsearch/internal/usecase/health"
	ingestuc "github.com/nordkart/shopsearch/internal/usecase/ingest"
	recommenduc "github.com/nordkart/shopsearch/internal/usecase/recommend"
	searchuc "github.com/nordkart/shopsearch/internal/usecase/search"
)

// maxIngestBatchSize caps one ingestion request.
const maxIngestBatchSize = 1000

// Error response codes.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeUnauthorized         = "unauthorized"
	codeNotFound             = "not_found"
	codeEmbeddingProviderErr = "embedding_provider_error"
	codeStoreUnavailable     = "store_unavailable"
	codeInternalError        = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server holds the use cases behind the HTTP handlers.
type Server struct {
	search    *searchuc.Service
	recommend *recommenduc.Service
	affinity  *affinityuc.Service
	ingest    *ingestuc.Service
	health    *healthuc.Service
	caches    []*cache.Cache
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. caches are the instances exposed
// through the admin endpoints.
func NewServer(
	search *searchuc.Service,
	recommend *recommenduc.Service,
	affinity *affinityuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	caches []*cache.Cache,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:    search,
		recommend: recommend,
		affinity:  affinity,
		ingest:    ingest,
		health:    health,
		caches:    caches,
		logger:    logger,
	}
}

// Routes mounts all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/consolidated-search", s.ConsolidatedSearch)
		r.Post("/search/autosuggest", s.Autosuggest)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/co-occurrence/{id}", s.CoOccurrence)
			r.Get("/user/{id}", s.RecommendationsForUser)
			r.Get("/hybrid/{id}", s.HybridRecommendations)
		})

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/products", s.IngestProducts)
			r.Post("/orders", s.IngestOrders)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/affinity/rebuild", s.RebuildAffinity)
			r.Get("/cache/stats", s.CacheStats)
			r.Post("/cache/clear", s.CacheClear)
			r.Post("/cache/invalidate", s.CacheInvalidate)
		})
	})
}

// ConsolidatedSearch handles POST /api/v1/consolidated-search.
func (s *Server) ConsolidatedSearch(w http.ResponseWriter, r *http.Request) {
	var req searchuc.Query
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.search.Consolidated(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Autosuggest handles POST /api/v1/search/autosuggest.
func (s *Server) Autosuggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prefix string `json:"prefix"`
		Limit  int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	suggestions, err := s.search.Autosuggest(r.Context(), req.Prefix, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []domsearch.Suggestion{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// CoOccurrence handles GET /api/v1/recommendations/co-occurrence/{id}.
func (s *Server) CoOccurrence(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	items, err := s.recommend.CoOccurrence(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": items})
}

// RecommendationsForUser handles GET /api/v1/recommendations/user/{id}.
func (s *Server) RecommendationsForUser(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	items, err := s.recommend.ForUser(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": items})
}

// HybridRecommendations handles GET /api/v1/recommendations/hybrid/{id}.
// An optional season query parameter overrides the calendar season.
func (s *Server) HybridRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	current, ok := seasonParam(w, r)
	if !ok {
		return
	}

	items, err := s.recommend.Hybrid(r.Context(), chi.URLParam(r, "id"), limit, current)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": items})
}

// RebuildAffinity handles POST /api/v1/admin/affinity/rebuild.
func (s *Server) RebuildAffinity(w http.ResponseWriter, r *http.Request) {
	stats, err := s.affinity.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.logger.Info("affinity table rebuilt",
		zap.Int("pairs", stats.Pairs),
		zap.Int("previous_pairs", stats.PreviousPairs),
		zap.Int("baskets", stats.Baskets),
		zap.Int("skipped", stats.Skipped),
	)
	writeJSON(w, http.StatusOK, stats)
}

// IngestProducts handles POST /api/v1/ingest/products.
func (s *Server) IngestProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []domprod.Product `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Products) == 0 || len(req.Products) > maxIngestBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"products count must be between 1 and "+strconv.Itoa(maxIngestBatchSize))
		return
	}

	result, err := s.ingest.Products(r.Context(), req.Products)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// IngestOrders handles POST /api/v1/ingest/orders.
func (s *Server) IngestOrders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Orders []domorder.Line `json:"orders"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Orders) == 0 || len(req.Orders) > maxIngestBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"orders count must be between 1 and "+strconv.Itoa(maxIngestBatchSize))
		return
	}

	result, err := s.ingest.Orders(r.Context(), req.Orders)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CacheStats handles GET /api/v1/admin/cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := make([]cache.Stats, len(s.caches))
	for i, c := range s.caches {
		stats[i] = c.Stats()
	}
	writeJSON(w, http.StatusOK, map[string]any{"caches": stats})
}

// CacheClear handles POST /api/v1/admin/cache/clear. An empty body or
// empty cache name clears every instance.
func (s *Server) CacheClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cache string `json:"cache"`
	}
	// Body is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)

	cleared := make([]string, 0, len(s.caches))
	for _, c := range s.caches {
		if req.Cache != "" && c.Name() != req.Cache {
			continue
		}
		c.Clear()
		cleared = append(cleared, c.Name())
	}
	if req.Cache != "" && len(cleared) == 0 {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown cache "+strconv.Quote(req.Cache))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cleared": cleared})
}

// CacheInvalidate handles POST /api/v1/admin/cache/invalidate. Entries
// whose canonical key contains the pattern are removed.
func (s *Server) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cache   string `json:"cache"`
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Pattern == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "pattern is required")
		return
	}

	removed := 0
	matched := false
	for _, c := range s.caches {
		if req.Cache != "" && c.Name() != req.Cache {
			continue
		}
		matched = true
		removed += c.RemovePattern(req.Pattern)
	}
	if !matched {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown cache "+strconv.Quote(req.Cache))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be an integer")
		return 0, false
	}
	return limit, true
}

func seasonParam(w http.ResponseWriter, r *http.Request) (season.Season, bool) {
	raw := strings.ToLower(r.URL.Query().Get("season"))
	if raw == "" {
		return "", true
	}
	s := season.Season(raw)
	switch s {
	case season.Spring, season.Summer, season.Autumn, season.Winter, season.All:
		return s, true
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown season "+strconv.Quote(raw))
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrQueryTooShort,
		domain.ErrInvalidLimit,
		domain.ErrProductNotFound,
		domain.ErrNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	switch {
	case errors.Is(err, domain.ErrQueryTooShort):
		// The full message names the minimum length.
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, msg)
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		s.logger.Warn("embedding provider error", zap.Error(err))
		writeError(w, http.StatusBadGateway, codeEmbeddingProviderErr, msg)
	case errors.Is(err, domain.ErrStoreUnavailable):
		s.logger.Error("document store unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, msg)
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
