// Package chi exposes the screening services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
	logpkg "github.com/kailas-cloud/policyscan/internal/logger"
	healthuc "github.com/kailas-cloud/policyscan/internal/usecase/health"
)

// Error response codes.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeProviderError    = "provider_error"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Screener runs single-text and multi-page screenings.
type Screener interface {
	Query(ctx context.Context, text string) (domain.Decision, error)
	Document(ctx context.Context, pages []domain.Page) (domain.DocumentReport, error)
}

// Server handles the screening HTTP API.
type Server struct {
	screener Screener
	health   *healthuc.Service
	maxPages int
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	screener Screener,
	health *healthuc.Service,
	maxPages int,
	logger *zap.Logger,
) *Server {
	return &Server{
		screener: screener,
		health:   health,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/v1/screen/query", s.ScreenQuery)
	r.Post("/v1/screen/document", s.ScreenDocument)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ScreenQueryRequest is the body of POST /v1/screen/query.
type ScreenQueryRequest struct {
	Query string `json:"query"`
}

// ScreenQuery handles POST /v1/screen/query.
func (s *Server) ScreenQuery(w http.ResponseWriter, r *http.Request) {
	var req ScreenQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	decision, err := s.screener.Query(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// ScreenDocumentRequest is the body of POST /v1/screen/document.
type ScreenDocumentRequest struct {
	Pages []domain.Page `json:"pages"`
}

// ScreenDocument handles POST /v1/screen/document.
func (s *Server) ScreenDocument(w http.ResponseWriter, r *http.Request) {
	var req ScreenDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Pages) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "At least one page is required")
		return
	}
	if s.maxPages > 0 && len(req.Pages) > s.maxPages {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Too many pages")
		return
	}

	report, err := s.screener.Document(r.Context(), req.Pages)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
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
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleDomainError maps sentinel errors to HTTP statuses. Provider failures
// are upstream faults, reported as 502 without leaking internals.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the per-request logger installed by the wide-event middleware.
	log := s.logger
	if ctxLog := logpkg.FromContext(r.Context()); ctxLog.Core().Enabled(zap.WarnLevel) {
		log = ctxLog
	}

	providerSentinels := []error{
		domain.ErrEmbeddingProviderError,
		domain.ErrRelevanceProviderError,
		domain.ErrSafetyProviderError,
	}
	for _, sentinel := range providerSentinels {
		if errors.Is(err, sentinel) {
			log.Warn("Provider error during screening", zap.Error(err))
			writeError(w, http.StatusBadGateway, CodeProviderError, sentinel.Error())
			return
		}
	}

	log.Error("Unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
