package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/domain"
	"github.com/calixflow/knowledge/internal/extract"
	chatuc "github.com/calixflow/knowledge/internal/usecase/chat"
	ingestuc "github.com/calixflow/knowledge/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger reports database liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the knowledge-base API over HTTP.
type Server struct {
	ingest        *ingestuc.Service
	chat          *chatuc.Service
	db            Pinger
	aiHealth      domain.HealthChecker
	maxUploadSize int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	chat *chatuc.Service,
	db Pinger,
	aiHealth domain.HealthChecker,
	maxUploadSize int64,
	logger *zap.Logger,
) *Server {
	if maxUploadSize <= 0 {
		maxUploadSize = ingestuc.MaxFileBytes
	}
	s := &Server{
		ingest:        ingest,
		chat:          chat,
		db:            db,
		aiHealth:      aiHealth,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrTenantRequired, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedFileType, http.StatusBadRequest, codeUnsupportedFileType),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusBadRequest, codeFileTooLarge),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrChatProviderError, http.StatusBadGateway, codeChatProviderError),
	}
	return s
}

// Routes mounts all API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1/tenants/{tenant}", func(r chi.Router) {
		r.Post("/documents", s.UploadDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/chat", s.Chat)
		r.Post("/chat/stream", s.ChatStream)
	})
}

// UploadDocument handles POST /v1/tenants/{tenant}/documents.
// Expects a multipart form with the file under "file". The whole
// ingestion pipeline runs synchronously; the response carries the
// processed document.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	// One extra byte over the cap so the use case can reject with the
	// proper sentinel instead of a generic multipart error.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(s.maxUploadSize + (1 << 20)); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	data, err := extract.ReadAll(file, s.maxUploadSize)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	uploadedBy := r.FormValue("uploaded_by")

	doc, err := s.ingest.UploadAndProcess(r.Context(), tenant, uploadedBy, header.Filename, contentType, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/tenants/%s/documents/%s", tenant, doc.ID))
	writeJSON(w, http.StatusCreated, documentToResponse(doc))
}

// ListDocuments handles GET /v1/tenants/{tenant}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	docs, err := s.ingest.List(r.Context(), tenant)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentResponse, len(docs))
	for i, d := range docs {
		items[i] = documentToResponse(d)
	}
	writeJSON(w, http.StatusOK, documentListResponse{Items: items, Total: len(items)})
}

// GetDocument handles GET /v1/tenants/{tenant}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	id := chi.URLParam(r, "id")

	doc, err := s.ingest.Get(r.Context(), tenant, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// DeleteDocument handles DELETE /v1/tenants/{tenant}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	id := chi.URLParam(r, "id")

	if err := s.ingest.Delete(r.Context(), tenant, id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat handles POST /v1/tenants/{tenant}/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	ans, err := s.chat.Ask(r.Context(), tenant, req.Message, req.historyMessages())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerToResponse(ans))
}

// ChatStream handles POST /v1/tenants/{tenant}/chat/stream. The answer
// is delivered as server-sent events: one "delta" event per model
// token batch, then a final "done" event carrying the sources.
func (s *Server) ChatStream(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	started := false
	ans, err := s.chat.AskStream(r.Context(), tenant, req.Message, req.historyMessages(),
		func(delta string) error {
			started = true
			if err := writeSSE(w, "delta", streamDelta{Delta: delta}); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		})
	if err != nil {
		// Headers are already out once the first delta flushed; the
		// best we can do then is an error event.
		if !started {
			s.handleDomainError(w, err)
			return
		}
		s.logger.Warn("chat stream aborted", zap.Error(err))
		_ = writeSSE(w, "error", errorResponse{Code: codeChatProviderError, Message: safeDomainMessage(err)})
		flusher.Flush()
		return
	}

	_ = writeSSE(w, "done", answerToResponse(ans))
	flusher.Flush()
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if err := s.db.Ping(r.Context()); err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	if s.aiHealth != nil {
		if err := s.aiHealth.HealthCheck(r.Context()); err != nil {
			checks["ai_provider"] = "down"
			healthy = false
		} else {
			checks["ai_provider"] = "up"
		}
	}

	status, httpStatus := "healthy", http.StatusOK
	if !healthy {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: status, Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return chatRequest{}, false
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message is required")
		return chatRequest{}, false
	}
	return req, true
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrTenantRequired,
		domain.ErrUnsupportedFileType,
		domain.ErrFileTooLarge,
		domain.ErrEmptyDocument,
		domain.ErrInvalidRequest,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrChatProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeSSE(w io.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	return nil
}
