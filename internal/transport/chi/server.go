package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resultgrid/internal/domain"
	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/envelope"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
	"github.com/kailas-cloud/resultgrid/internal/metrics"
	griduc "github.com/kailas-cloud/resultgrid/internal/usecase/grid"
	healthuc "github.com/kailas-cloud/resultgrid/internal/usecase/health"
)

const defaultMaxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface on top of the grid and health services.
type Server struct {
	grid          *griduc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(grid *griduc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		grid:         grid,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		envelopeErrorHandler,
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorResponseCodeSessionNotFound),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, ErrorResponseCodeRecordNotFound),
		sentinelHandler(domain.ErrInvalidEdit, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrTooManySessions, http.StatusServiceUnavailable, ErrorResponseCodeTooManySessions),
	}
	return s
}

// WithMaxBodyBytes caps the size of request bodies. n <= 0 keeps the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.grid.Create(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+snap.SessionID)
	writeJSON(w, http.StatusCreated, sessionToResponse(&snap))
}

// GetSession handles GET /sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, session string) {
	snap, err := s.grid.Snapshot(r.Context(), session)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(&snap))
}

// DeleteSession handles DELETE /sessions/{session}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, session string) {
	if err := s.grid.Delete(r.Context(), session); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutResults handles PUT /sessions/{session}/results.
func (s *Server) PutResults(w http.ResponseWriter, r *http.Request, session string, params PutResultsParams) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodeBadRequest,
				fmt.Sprintf("body exceeds %d bytes", mbe.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	env, err := envelope.Decode(body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var filters []string
	if params.Entity != nil {
		filters = *params.Entity
	}

	ctx, ev := eventContext(r)
	snap, err := s.grid.Ingest(ctx, session, &env, filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setGridHeaders(w, ev)
	writeJSON(w, http.StatusOK, sessionToResponse(&snap))
}

// ReorderColumns handles POST /sessions/{session}/columns/reorder.
func (s *Server) ReorderColumns(w http.ResponseWriter, r *http.Request, session string) {
	var req ReorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx, ev := eventContext(r)
	snap, applied, err := s.grid.Reorder(ctx, session, req.From, req.To)
	s.writeEdit(w, ev, &snap, applied, err)
}

// ResizeColumn handles POST /sessions/{session}/columns/resize.
func (s *Server) ResizeColumn(w http.ResponseWriter, r *http.Request, session string) {
	var req ResizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx, ev := eventContext(r)
	snap, applied, err := s.grid.Resize(ctx, session, req.Title, req.Width)
	s.writeEdit(w, ev, &snap, applied, err)
}

// SelectColumns handles PUT /sessions/{session}/columns/selection.
func (s *Server) SelectColumns(w http.ResponseWriter, r *http.Request, session string) {
	var req SelectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Keys == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "keys is required")
		return
	}
	ctx, ev := eventContext(r)
	snap, err := s.grid.Select(ctx, session, req.Keys)
	s.writeEdit(w, ev, &snap, true, err)
}

// SetColumnVisibility handles POST /sessions/{session}/columns/{key}/visibility.
func (s *Server) SetColumnVisibility(w http.ResponseWriter, r *http.Request, session, key string) {
	var req VisibilityRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "visible is required")
		return
	}
	ctx, ev := eventContext(r)
	snap, applied, err := s.grid.Toggle(ctx, session, key, *req.Visible)
	s.writeEdit(w, ev, &snap, applied, err)
}

// ToggleRowExpand handles POST /sessions/{session}/rows/{primaryKey}/expand.
func (s *Server) ToggleRowExpand(w http.ResponseWriter, r *http.Request, session, primaryKey string) {
	ctx, ev := eventContext(r)
	snap, applied, err := s.grid.ToggleExpand(ctx, session, primaryKey)
	s.writeEdit(w, ev, &snap, applied, err)
}

// GetRowDetail handles GET /sessions/{session}/rows/{primaryKey}/detail.
func (s *Server) GetRowDetail(w http.ResponseWriter, r *http.Request, session, primaryKey string) {
	items, err := s.grid.Detail(r.Context(), session, primaryKey)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{
		PrimaryKey: primaryKey,
		Columns:    detail.Header(),
		Items:      items,
		Count:      detail.Count(items),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeEdit(w http.ResponseWriter, ev *domain.GridEvent, snap *griduc.Snapshot, applied bool, err error) {
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setGridHeaders(w, ev)
	writeJSON(w, http.StatusOK, EditResponse{
		Applied: applied,
		Session: sessionToResponse(snap),
	})
}

// eventContext reuses the collector installed by WideEventMiddleware, if any.
func eventContext(r *http.Request) (context.Context, *domain.GridEvent) {
	if ev := domain.EventFromContext(r.Context()); ev != nil {
		return r.Context(), ev
	}
	return domain.NewContextWithEvent(r.Context())
}

// setGridHeaders exposes what the request did to the session.
func setGridHeaders(w http.ResponseWriter, ev *domain.GridEvent) {
	if ev == nil {
		return
	}
	if ev.Edit != "" {
		w.Header().Set("X-Grid-Edit-Applied", strconv.FormatBool(ev.Applied))
		return
	}
	w.Header().Set("X-Grid-Rows", strconv.Itoa(ev.Rows))
	if ev.Malformed > 0 {
		w.Header().Set("X-Grid-Malformed", strconv.Itoa(ev.Malformed))
	}
	if ev.Reset != "" {
		w.Header().Set("X-Grid-View-Reset", ev.Reset)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrRecordNotFound,
		domain.ErrInvalidEnvelope,
		domain.ErrInvalidEdit,
		domain.ErrTooManySessions,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// envelopeErrorHandler reports which part of the envelope failed to decode.
func envelopeErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidEnvelope) {
		return false
	}
	var ee *domain.EnvelopeError
	if errors.As(err, &ee) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    ErrorResponseCodeInvalidEnvelope,
			"message": msg,
			"field":   ee.Field,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidEnvelope, msg)
	return true
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
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func sessionToResponse(snap *griduc.Snapshot) SessionResponse {
	rows := make([]GridRow, len(snap.Rows))
	for i, rv := range snap.Rows {
		rv := rv
		rows[i] = GridRow{
			Key:        rv.Key,
			PrimaryKey: PrimaryKey{Name: rv.PrimaryKey.Name, Value: rv.PrimaryKey.Value},
			Cells:      rv.Cells,
			Spans:      rv.Spans,
			Links:      rv.Links[:],
			GroupID:    rv.GroupID,
			Anchor:     rv.Anchor,
			Expand:     rv.Expand,
		}
	}
	filters := snap.Filters
	if filters == nil {
		filters = []string{}
	}
	return SessionResponse{
		ID:          snap.SessionID,
		Filters:     filters,
		AllEntities: snap.AllEntities,
		Columns:     nonNilColumns(snap.Columns),
		Tree:        nonNilColumns(snap.Tree),
		Checked:     nonNilColumns(snap.Checked),
		Rows:        rows,
		Records:     snap.Records,
		Malformed:   snap.Malformed,
	}
}

func nonNilColumns(cols []view.Column) []view.Column {
	if cols == nil {
		return []view.Column{}
	}
	return cols
}
