package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nocap-labs/factstore/internal/domain"
	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/domain/search"
	logpkg "github.com/nocap-labs/factstore/internal/logger"
	"github.com/nocap-labs/factstore/internal/storage/hybrid"
	factsuc "github.com/nocap-labs/factstore/internal/usecase/facts"
	healthuc "github.com/nocap-labs/factstore/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// StorageInfo exposes the storage figures the stats endpoint reports.
type StorageInfo interface {
	State() hybrid.State
	LocalCount() int
}

// Server wires the fact API handlers onto a chi router.
type Server struct {
	facts   *factsuc.Service
	health  *healthuc.Service
	storage StorageInfo
	logger  *zap.Logger

	defaultPageSize int
	maxPageSize     int
	maxBatchSize    int

	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	facts *factsuc.Service,
	health *healthuc.Service,
	storage StorageInfo,
	logger *zap.Logger,
) *Server {
	s := &Server{
		facts:           facts,
		health:          health,
		storage:         storage,
		logger:          logger,
		defaultPageSize: 20,
		maxPageSize:     100,
		maxBatchSize:    factsuc.MaxBatchSize,
	}
	s.errorHandlers = []errorHandler{
		blobTooLargeHandler,
		sentinelHandler(domain.ErrFactNotFound, http.StatusNotFound, ErrorCodeFactNotFound),
		sentinelHandler(domain.ErrBlobNotFound, http.StatusNotFound, ErrorCodeBlobNotFound),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrBlobUnavailable, http.StatusServiceUnavailable, ErrorCodeBlobUnavailable),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, ErrorCodeStorageUnavailable),
		sentinelHandler(domain.ErrIntegrity, http.StatusBadGateway, ErrorCodeIntegrityFailed),
		sentinelHandler(domain.ErrNetwork, http.StatusBadGateway, ErrorCodeNetworkError),
	}
	return s
}

// WithPagination overrides page size limits.
func (s *Server) WithPagination(defaultSize, maxSize int) *Server {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// WithMaxBatchSize overrides the batch retrieve limit.
func (s *Server) WithMaxBatchSize(n int) *Server {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chiv5.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chiv5.Router) {
		r.Route("/facts", func(r chiv5.Router) {
			r.Post("/", s.CreateFact)
			r.Get("/", s.ListFacts)
			r.Post("/search", s.SearchFacts)
			r.Post("/batch/retrieve", s.BatchRetrieve)
			r.Get("/{id}", s.GetFact)
			r.Patch("/{id}", s.PatchFact)
			r.Delete("/{id}", s.DeleteFact)
		})
		r.Get("/stats", s.GetStats)
	})
}

// CreateFact handles POST /api/v1/facts.
func (s *Server) CreateFact(w http.ResponseWriter, r *http.Request) {
	var req CreateFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	f, receipt, err := s.facts.CreateFact(r.Context(), fact.Params{
		ID:          req.ID,
		Title:       req.Title,
		Summary:     req.Summary,
		FullContent: req.FullContent,
		Sources:     req.Sources,
		Author:      req.Author,
		Tags:        tagsFromPayload(req.Tags),
		Importance:  req.Importance,
		Region:      req.Region,
		Status:      fact.Status(req.Status),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/facts/"+f.ID())
	writeJSON(w, http.StatusCreated, CreateFactResponse{
		Fact:    factToResponse(&f),
		Receipt: receiptToResponse(receipt),
	})
}

// GetFact handles GET /api/v1/facts/{id}.
func (s *Server) GetFact(w http.ResponseWriter, r *http.Request) {
	id := chiv5.URLParam(r, "id")

	f, err := s.facts.RetrieveFact(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.Quote(f.ContentHash()))
	writeJSON(w, http.StatusOK, factToResponse(&f))
}

// PatchFact handles PATCH /api/v1/facts/{id}.
func (s *Server) PatchFact(w http.ResponseWriter, r *http.Request) {
	id := chiv5.URLParam(r, "id")

	var req PatchFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p := fact.Patch{
		Title:       req.Title,
		Summary:     req.Summary,
		FullContent: req.FullContent,
		Sources:     req.Sources,
		Importance:  req.Importance,
		Region:      req.Region,
		Votes:       req.Votes,
		Comments:    req.Comments,
	}
	if req.Status != nil {
		st := fact.Status(*req.Status)
		p.Status = &st
	}
	if req.Tags != nil {
		tags := tagsFromPayload(*req.Tags)
		if tags == nil {
			tags = []fact.Tag{}
		}
		p.Tags = tags
	}

	f, err := s.facts.UpdateFact(r.Context(), id, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, factToResponse(&f))
}

// DeleteFact handles DELETE /api/v1/facts/{id}.
func (s *Server) DeleteFact(w http.ResponseWriter, r *http.Request) {
	id := chiv5.URLParam(r, "id")

	if err := s.facts.DeleteFact(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFacts handles GET /api/v1/facts.
func (s *Server) ListFacts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	res := s.facts.ListFacts(r.Context(), limit, offset)

	items := make([]RecordResponse, len(res.Records))
	for i, rec := range res.Records {
		items[i] = recordToResponse(rec)
	}

	writeJSON(w, http.StatusOK, SearchFactsResponse{
		Items:  items,
		Total:  res.Total,
		Limit:  limit,
		Offset: offset,
		TookMs: res.Took.Milliseconds(),
	})
}

// SearchFacts handles POST /api/v1/facts/search.
func (s *Server) SearchFacts(w http.ResponseWriter, r *http.Request) {
	var req SearchFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("limit must not exceed %d", s.maxPageSize))
		return
	}

	statuses := make([]fact.Status, len(req.Statuses))
	for i, st := range req.Statuses {
		statuses[i] = fact.Status(st)
	}

	q, err := search.New(search.Params{
		Keywords: req.Keywords,
		Tags:     req.Tags,
		Authors:  req.Authors,
		Statuses: statuses,
		From:     req.From,
		To:       req.To,
		Limit:    limit,
		Offset:   req.Offset,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	res := s.facts.SearchFacts(r.Context(), &q)

	items := make([]RecordResponse, len(res.Records))
	for i, rec := range res.Records {
		items[i] = recordToResponse(rec)
	}

	writeJSON(w, http.StatusOK, SearchFactsResponse{
		Items:  items,
		Total:  res.Total,
		Limit:  limit,
		Offset: req.Offset,
		TookMs: res.Took.Milliseconds(),
	})
}

// BatchRetrieve handles POST /api/v1/facts/batch/retrieve.
func (s *Server) BatchRetrieve(w http.ResponseWriter, r *http.Request) {
	var req BatchRetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.IDs) == 0 || len(req.IDs) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("ids count must be between 1 and %d", s.maxBatchSize))
		return
	}

	results := s.facts.RetrieveMany(r.Context(), req.IDs)

	succeeded, failed := 0, 0
	items := make([]BatchResultItem, len(results))
	for i, res := range results {
		items[i] = batchResultToItem(res)
		if res.Err() == nil {
			succeeded++
		} else {
			failed++
		}
	}

	writeJSON(w, http.StatusOK, BatchRetrieveResponse{
		Items:     items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// GetStats handles GET /api/v1/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	st := s.facts.IndexStats(r.Context())

	writeJSON(w, http.StatusOK, StatsResponse{
		Facts:        st.Facts,
		Keywords:     st.Keywords,
		Tags:         st.Tags,
		Authors:      st.Authors,
		SizeBytes:    st.SizeBytes,
		StorageState: string(s.storage.State()),
		LocalBlobs:   s.storage.LocalCount(),
	})
}

// HealthCheck handles GET /health. A degraded blob store still answers 200:
// the service keeps accepting writes through the local fallback.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
		Facts:  report.Facts,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) pageParams(r *http.Request) (limit, offset int, err error) {
	limit = s.defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("limit must be a positive integer")
		}
		if limit > s.maxPageSize {
			return 0, 0, fmt.Errorf("limit must not exceed %d", s.maxPageSize)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func batchResultToItem(res factsuc.Result) BatchResultItem {
	item := BatchResultItem{ID: res.ID()}
	if err := res.Err(); err != nil {
		item.Error = &ErrorResponse{
			Code:    batchErrorCode(err),
			Message: safeDomainMessage(err),
		}
		return item
	}
	f := res.Fact()
	fr := factToResponse(&f)
	item.Fact = &fr
	return item
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrFactNotFound):
		return ErrorCodeFactNotFound
	case errors.Is(err, domain.ErrBlobNotFound):
		return ErrorCodeBlobNotFound
	case errors.Is(err, domain.ErrBlobUnavailable):
		return ErrorCodeBlobUnavailable
	case errors.Is(err, domain.ErrStorageUnavailable):
		return ErrorCodeStorageUnavailable
	case errors.Is(err, domain.ErrIntegrity):
		return ErrorCodeIntegrityFailed
	case errors.Is(err, domain.ErrValidation):
		return ErrorCodeValidationFailed
	default:
		return ErrorCodeInternalError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrFactNotFound,
		domain.ErrBlobNotFound,
		domain.ErrValidation,
		domain.ErrBlobUnavailable,
		domain.ErrStorageUnavailable,
		domain.ErrIntegrity,
		domain.ErrNetwork,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// blobTooLargeHandler handles BlobTooLargeError with the size figures included.
func blobTooLargeHandler(w http.ResponseWriter, err error, msg string) bool {
	var btl *domain.BlobTooLargeError
	if !errors.As(err, &btl) {
		return false
	}
	writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
		"code":     ErrorCodeBlobTooLarge,
		"message":  msg,
		"size":     btl.Size,
		"max_size": btl.MaxSize,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// prefer the request-scoped logger so the warn carries the request id
	logpkg.With(r.Context(), zap.Error(err)).Warn("domain error")
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
