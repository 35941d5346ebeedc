package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// maxFormMemory is held in memory before the form spills to temp files
const maxFormMemory = 8 << 20

// maxUploadBody leaves room for a file just over the limit so the size rule
// reports it instead of the transport
const maxUploadBody = 2 * domain.MaxUploadSize

// ErrorResponse represents a bridge error response
// @Description Bridge error response
type ErrorResponse struct {
	Kind    string `json:"kind" example:"upload"`
	Cause   string `json:"cause,omitempty" example:"validation"`
	Code    string `json:"code,omitempty" example:"file_too_large"`
	Message string `json:"message" example:"file size must not exceed 10MB"`
}

// SessionResponse is the session as the front end sees it. The token never leaves the process.
type SessionResponse struct {
	Authenticated bool                `json:"authenticated"`
	Ready         bool                `json:"ready"`
	User          *domain.User        `json:"user,omitempty"`
	LastExpiry    *domain.ClientError `json:"last_expiry,omitempty"`
}

// SummaryStateResponse pairs the current selection with the latest request state
type SummaryStateResponse struct {
	Selected int64               `json:"selected"`
	State    domain.SummaryState `json:"state"`
}

// SelectRequest selects a document for summarization
type SelectRequest struct {
	DocumentID int64 `json:"document_id"`
}

// BatchRequest lists the documents to summarize in one request
type BatchRequest struct {
	DocumentIDs []int64 `json:"document_ids"`
}

// AskRequest asks a question about a document
type AskRequest struct {
	DocumentID int64  `json:"document_id"`
	Question   string `json:"question"`
}

// Health

// handleHealth godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       s.version,
		"session_ready": s.session.Ready(),
	})
}

// Session endpoints

func (s *Server) sessionResponse() SessionResponse {
	current := s.session.Current()
	return SessionResponse{
		Authenticated: current.Authenticated(),
		Ready:         s.session.Ready(),
		User:          current.User,
		LastExpiry:    s.session.LastExpiry(),
	}
}

// handleGetSession godoc
// @Summary      Current session
// @Tags         Session
// @Produce      json
// @Success      200  {object}  SessionResponse
// @Router       /session [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

// handleLogin godoc
// @Summary      Log in
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  SessionResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Router       /session/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.session.Login(r.Context(), req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

// handleRegister godoc
// @Summary      Register an account
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RegisterRequest  true  "Account details"
// @Success      201      {object}  domain.User
// @Failure      400      {object}  ErrorResponse
// @Router       /session/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.session.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleLogout godoc
// @Summary      Log out
// @Tags         Session
// @Produce      json
// @Success      200  {object}  SessionResponse
// @Router       /session/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout(r.Context())
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RefreshToken(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

// Catalog endpoints

// handleGetCatalog godoc
// @Summary      Cached document list with statistics
// @Description  Serves the cached snapshot, refetching when stale or when file_type changes
// @Tags         Catalog
// @Produce      json
// @Param        file_type  query     string  false  "pdf, docx, txt or doc"
// @Success      200        {object}  domain.CatalogSnapshot
// @Router       /catalog [get]
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	filter, ok := fileTypeParam(w, r)
	if !ok {
		return
	}

	var (
		snap *domain.CatalogSnapshot
		err  error
	)
	if r.URL.Query().Has("file_type") && filter != s.catalog.Snapshot().Filter {
		snap, err = s.catalog.Refresh(r.Context(), filter)
	} else {
		snap, err = s.catalog.EnsureFresh(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleRefreshCatalog godoc
// @Summary      Refetch the document list
// @Tags         Catalog
// @Produce      json
// @Param        file_type  query     string  false  "pdf, docx, txt or doc"
// @Success      200        {object}  domain.CatalogSnapshot
// @Router       /catalog/refresh [post]
func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	filter, ok := fileTypeParam(w, r)
	if !ok {
		return
	}

	snap, err := s.catalog.Refresh(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	doc, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search

// handleSearch godoc
// @Summary      Retrieve the document set for a query
// @Description  An empty query lists documents; any other query runs a search
// @Tags         Search
// @Produce      json
// @Param        query      query     string  false  "Search text"
// @Param        file_type  query     string  false  "pdf, docx, txt or doc"
// @Param        date_from  query     string  false  "YYYY-MM-DD or RFC 3339"
// @Param        date_to    query     string  false  "YYYY-MM-DD or RFC 3339"
// @Param        limit      query     int     false  "Page size"
// @Param        offset     query     int     false  "Page offset"
// @Success      200        {object}  domain.DocumentSetView
// @Router       /search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseDocumentQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Kind:    string(domain.KindRetrieval),
			Cause:   string(domain.CauseValidation),
			Message: err.Error(),
		})
		return
	}

	view := s.search.Apply(r.Context(), q)
	status := http.StatusOK
	if view.Err != nil {
		status = statusFor(view.Err)
	}
	writeJSON(w, status, view)
}

// Uploads

// formFile adapts a multipart file part to domain.FileSource
type formFile struct {
	hdr *multipart.FileHeader
}

func (f formFile) Name() string                 { return f.hdr.Filename }
func (f formFile) Size() int64                  { return f.hdr.Size }
func (f formFile) Open() (io.ReadCloser, error) { return f.hdr.Open() }

// handleUpload godoc
// @Summary      Upload a document
// @Tags         Uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        title  formData  string  true  "Document title"
// @Param        file   formData  file    true  "PDF, DOCX, TXT or DOC, at most 10MB"
// @Success      201    {object}  domain.Document
// @Failure      400    {object}  ErrorResponse
// @Router       /uploads [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, ErrorResponse{
			Kind:    string(domain.KindUpload),
			Cause:   string(domain.CauseValidation),
			Message: "invalid upload form",
		})
		return
	}

	candidate := domain.UploadCandidate{Title: r.FormValue("title")}
	if files := r.MultipartForm.File["file"]; len(files) > 0 {
		candidate.File = formFile{hdr: files[0]}
	}

	s.uploads.Stage(candidate)
	doc, err := s.uploads.Submit(r.Context())
	if err != nil {
		// The form's temp files do not outlive this request
		s.uploads.Reset()
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Summaries

// handleGetSummaryState godoc
// @Summary      Selection and latest summary request
// @Tags         Summary
// @Produce      json
// @Success      200  {object}  SummaryStateResponse
// @Router       /summary [get]
func (s *Server) handleGetSummaryState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SummaryStateResponse{
		Selected: s.summary.Selected(),
		State:    s.summary.State(),
	})
}

// handleSelectDocument godoc
// @Summary      Select the document to summarize
// @Tags         Summary
// @Accept       json
// @Produce      json
// @Param        request  body      SelectRequest  true  "Document id"
// @Success      200      {object}  SummaryStateResponse
// @Router       /summary/select [post]
func (s *Server) handleSelectDocument(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.summary.SelectDocument(req.DocumentID)
	s.handleGetSummaryState(w, r)
}

// handleGenerateSummary godoc
// @Summary      Generate a summary of the selected document
// @Tags         Summary
// @Produce      json
// @Success      200  {object}  domain.SummaryState
// @Failure      400  {object}  domain.SummaryState
// @Router       /summary/generate [post]
func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	state, err := s.summary.Generate(r.Context())
	if errors.Is(err, domain.ErrSuperseded) {
		writeJSON(w, http.StatusConflict, s.summary.State())
		return
	}
	if err != nil && !failedRun(state, err) {
		// Rejected before any request was issued
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	writeJSON(w, status, state)
}

// failedRun reports whether err is the failure recorded by the run that
// produced state. A rejected call returns the previous state unchanged.
func failedRun(state domain.SummaryState, err error) bool {
	ce, ok := domain.AsClientError(err)
	return ok && state.Status == domain.SummaryFailed && state.Err == ce
}

// handleBatchSummary godoc
// @Summary      Summarize several documents
// @Tags         Summary
// @Accept       json
// @Produce      json
// @Param        request  body      BatchRequest  true  "Document ids"
// @Success      200      {object}  domain.BatchSummaryResult
// @Failure      400      {object}  ErrorResponse
// @Router       /summary/batch [post]
func (s *Server) handleBatchSummary(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.summary.Batch(r.Context(), req.DocumentIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := s.summary.Ask(r.Context(), req.DocumentID, req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleGetStoredSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	stored, err := s.summary.Existing(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError renders err as an ErrorResponse with a status matching its kind and cause
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse(err))
}

func errorResponse(err error) ErrorResponse {
	if ce, ok := domain.AsClientError(err); ok {
		return ErrorResponse{
			Kind:    string(ce.Kind),
			Cause:   string(ce.Cause),
			Code:    ce.Code,
			Message: ce.Message,
		}
	}
	return ErrorResponse{Kind: "internal", Message: err.Error()}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionExpired), errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransport):
		if apiErr := new(domain.APIError); errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "request", Cause: string(domain.CauseValidation), Message: "invalid request body"})
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "request", Cause: string(domain.CauseValidation), Message: "invalid document id"})
		return 0, false
	}
	return id, true
}

func fileTypeParam(w http.ResponseWriter, r *http.Request) (domain.FileType, bool) {
	ft, err := domain.ParseFileType(r.URL.Query().Get("file_type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: string(domain.KindRetrieval), Cause: string(domain.CauseValidation), Message: err.Error()})
		return "", false
	}
	return ft, true
}

func parseDocumentQuery(r *http.Request) (domain.DocumentQuery, error) {
	params := r.URL.Query()
	q := domain.DocumentQuery{Text: params.Get("query")}

	ft, err := domain.ParseFileType(params.Get("file_type"))
	if err != nil {
		return q, err
	}
	q.FileType = ft

	if q.DateFrom, err = parseDate(params.Get("date_from")); err != nil {
		return q, fmt.Errorf("date_from: %w", err)
	}
	if q.DateTo, err = parseDate(params.Get("date_to")); err != nil {
		return q, fmt.Errorf("date_to: %w", err)
	}
	if q.Limit, err = parseCount(params.Get("limit")); err != nil {
		return q, fmt.Errorf("limit: %w", err)
	}
	if q.Offset, err = parseCount(params.Get("offset")); err != nil {
		return q, fmt.Errorf("offset: %w", err)
	}
	return q, nil
}

func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", v)
}

func parseCount(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", v)
	}
	return n, nil
}
