// Package chi is the HTTP transport: hand-written chi routes over the search,
// tools and health services.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/search/result"
	logpkg "github.com/archpilot/archpilot/internal/logger"
	healthuc "github.com/archpilot/archpilot/internal/usecase/health"
	searchuc "github.com/archpilot/archpilot/internal/usecase/search"
	toolsuc "github.com/archpilot/archpilot/internal/usecase/tools"
)

// Error codes returned to clients.
const (
	CodeBadRequest           = "bad_request"
	CodeValidationFailed     = "validation_failed"
	CodeUnknownTool          = "unknown_tool"
	CodeNotReady             = "not_ready"
	CodeEmbeddingUnavailable = "embedding_unavailable"
	CodeEmbeddingTimeout     = "embedding_timeout"
	CodeInternalError        = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the route handlers.
type Server struct {
	search        *searchuc.Service
	tools         *toolsuc.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	tools *toolsuc.Registry,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		tools:  tools,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownTool, http.StatusNotFound, CodeUnknownTool),
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, CodeNotReady),
		sentinelHandler(domain.ErrEmbeddingTimeout, http.StatusGatewayTimeout, CodeEmbeddingTimeout),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, CodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, CodeInternalError),
	}
	return s
}

// Routes mounts all handlers onto the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/search", s.Search)
		r.Get("/tools", s.ListTools)
		r.Post("/tools/{tool}", s.CallTool)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories,omitempty"`
	Limit      *int     `json:"limit,omitempty"`
}

// SearchResultItem is one hit in the search response.
type SearchResultItem struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Rank     int               `json:"rank"`
	Category string            `json:"category"`
	Title    string            `json:"title,omitempty"`
	URL      string            `json:"url,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Absent limit means "use the default". An explicit zero is a client
	// mistake, not a request for the default; out-of-range values are rejected
	// downstream.
	limit := 0
	if req.Limit != nil {
		limit = *req.Limit
		if limit == 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be positive")
			return
		}
	}

	q, err := s.search.NewQuery(req.Query, req.Categories, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToItem(&results[i])
	}

	writeJSON(w, http.StatusOK, SearchResponse{Items: items, Total: len(items)})
}

// ListTools handles GET /api/v1/tools.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.tools.List()})
}

// CallTool handles POST /api/v1/tools/{tool}. The body is passed to the tool
// as its raw argument payload.
func (s *Server) CallTool(w http.ResponseWriter, r *http.Request) {
	name := chirouter.URLParam(r, "tool")

	var args json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx := logpkg.With(r.Context(), zap.String("tool", name))
	out, err := s.tools.Run(ctx, name, args)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"model":  report.Model,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchResultToItem(r *result.Result) SearchResultItem {
	c := r.Chunk()
	meta := c.Meta()
	return SearchResultItem{
		Text:     c.Text(),
		Score:    r.Score(),
		Rank:     r.Rank(),
		Category: string(c.Category()),
		Title:    meta.Title,
		URL:      meta.URL,
		Tags:     meta.Tags,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns an error message safe for the client. Client
// faults keep their full detail; everything else collapses to the sentinel
// message so internals stay hidden.
func safeDomainMessage(err error) string {
	clientFaults := []error{
		domain.ErrInvalidQuery,
		domain.ErrEmptyQuery,
		domain.ErrInvalidArgument,
		domain.ErrUnknownTool,
	}
	for _, s := range clientFaults {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	serverFaults := []error{
		domain.ErrNotReady,
		domain.ErrEmbeddingTimeout,
		domain.ErrEmbeddingUnavailable,
	}
	for _, s := range serverFaults {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
