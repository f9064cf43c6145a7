package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/resultgrid/internal/domain/detail"
	"github.com/kailas-cloud/resultgrid/internal/domain/nav"
	"github.com/kailas-cloud/resultgrid/internal/domain/row"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned by the API.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidEnvelope  ErrorResponseCode = "invalid_envelope"
	ErrorResponseCodeSessionNotFound  ErrorResponseCode = "session_not_found"
	ErrorResponseCodeRecordNotFound   ErrorResponseCode = "record_not_found"
	ErrorResponseCodeTooManySessions  ErrorResponseCode = "too_many_sessions"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ReorderRequest is the body of POST /sessions/{session}/columns/reorder.
type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ResizeRequest is the body of POST /sessions/{session}/columns/resize.
type ResizeRequest struct {
	Title string `json:"title"`
	Width int    `json:"width"`
}

// SelectionRequest is the body of PUT /sessions/{session}/columns/selection.
type SelectionRequest struct {
	Keys []string `json:"keys"`
}

// VisibilityRequest is the body of POST /sessions/{session}/columns/{key}/visibility.
type VisibilityRequest struct {
	Visible *bool `json:"visible"`
}

// PrimaryKey identifies the record a row was flattened from.
type PrimaryKey struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GridRow is one display row.
type GridRow struct {
	Key        int                 `json:"key"`
	PrimaryKey PrimaryKey          `json:"primaryKey"`
	Cells      map[string]row.Cell `json:"cells"`
	Spans      map[string]int      `json:"spans"`
	Links      []nav.Link          `json:"links"`
	GroupID    *int                `json:"groupId,omitempty"`
	Anchor     bool                `json:"anchor"`
	Expand     detail.Control      `json:"expand"`
}

// SessionResponse is the render model of a session.
type SessionResponse struct {
	ID          string        `json:"id"`
	Filters     []string      `json:"filters"`
	AllEntities bool          `json:"allEntities"`
	Columns     []view.Column `json:"columns"`
	Tree        []view.Column `json:"tree"`
	Checked     []view.Column `json:"checked"`
	Rows        []GridRow     `json:"rows"`
	Records     int           `json:"records"`
	Malformed   int           `json:"malformed"`
}

// EditResponse wraps a snapshot with the outcome of an edit.
type EditResponse struct {
	Applied bool            `json:"applied"`
	Session SessionResponse `json:"session"`
}

// DetailResponse is the expanded view of one record.
type DetailResponse struct {
	PrimaryKey string                `json:"primaryKey"`
	Columns    []detail.HeaderColumn `json:"columns"`
	Items      []detail.Item         `json:"items"`
	Count      int                   `json:"count"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// PutResultsParams are the query parameters of PUT /sessions/{session}/results.
type PutResultsParams struct {
	// Entity lists the selected entity types; absent means all entities.
	Entity *[]string `form:"entity,omitempty" json:"entity,omitempty"`
}

// ServerInterface lists the API operations.
type ServerInterface interface {
	// (POST /sessions)
	CreateSession(w http.ResponseWriter, r *http.Request)
	// (GET /sessions/{session})
	GetSession(w http.ResponseWriter, r *http.Request, session string)
	// (DELETE /sessions/{session})
	DeleteSession(w http.ResponseWriter, r *http.Request, session string)
	// (PUT /sessions/{session}/results)
	PutResults(w http.ResponseWriter, r *http.Request, session string, params PutResultsParams)
	// (POST /sessions/{session}/columns/reorder)
	ReorderColumns(w http.ResponseWriter, r *http.Request, session string)
	// (POST /sessions/{session}/columns/resize)
	ResizeColumn(w http.ResponseWriter, r *http.Request, session string)
	// (PUT /sessions/{session}/columns/selection)
	SelectColumns(w http.ResponseWriter, r *http.Request, session string)
	// (POST /sessions/{session}/columns/{key}/visibility)
	SetColumnVisibility(w http.ResponseWriter, r *http.Request, session, key string)
	// (POST /sessions/{session}/rows/{primaryKey}/expand)
	ToggleRowExpand(w http.ResponseWriter, r *http.Request, session, primaryKey string)
	// (GET /sessions/{session}/rows/{primaryKey}/detail)
	GetRowDetail(w http.ResponseWriter, r *http.Request, session, primaryKey string)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures the router.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts the API routes on opts.BaseRouter (a new router if nil).
func HandlerWithOptions(si ServerInterface, opts ChiServerOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	w := &wrapper{handler: si, errorHandler: opts.ErrorHandlerFunc}
	base := opts.BaseURL

	r.Group(func(r chi.Router) {
		r.Post(base+"/sessions", w.handler.CreateSession)
		r.Get(base+"/sessions/{session}", w.GetSession)
		r.Delete(base+"/sessions/{session}", w.DeleteSession)
		r.Put(base+"/sessions/{session}/results", w.PutResults)
		r.Post(base+"/sessions/{session}/columns/reorder", w.ReorderColumns)
		r.Post(base+"/sessions/{session}/columns/resize", w.ResizeColumn)
		r.Put(base+"/sessions/{session}/columns/selection", w.SelectColumns)
		r.Post(base+"/sessions/{session}/columns/{key}/visibility", w.SetColumnVisibility)
		r.Post(base+"/sessions/{session}/rows/{primaryKey}/expand", w.ToggleRowExpand)
		r.Get(base+"/sessions/{session}/rows/{primaryKey}/detail", w.GetRowDetail)
		r.Get(base+"/health", w.handler.HealthCheck)
		r.Get(base+"/metrics", w.handler.Metrics)
	})
	return r
}

// wrapper binds path and query parameters before calling the server.
type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (w *wrapper) pathParam(rw http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.errorHandler(rw, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return v, true
}

func (w *wrapper) GetSession(rw http.ResponseWriter, r *http.Request) {
	if session, ok := w.pathParam(rw, r, "session"); ok {
		w.handler.GetSession(rw, r, session)
	}
}

func (w *wrapper) DeleteSession(rw http.ResponseWriter, r *http.Request) {
	if session, ok := w.pathParam(rw, r, "session"); ok {
		w.handler.DeleteSession(rw, r, session)
	}
}

func (w *wrapper) PutResults(rw http.ResponseWriter, r *http.Request) {
	session, ok := w.pathParam(rw, r, "session")
	if !ok {
		return
	}
	var params PutResultsParams
	if err := runtime.BindQueryParameter("form", true, false, "entity", r.URL.Query(), &params.Entity); err != nil {
		w.errorHandler(rw, r, &InvalidParamFormatError{ParamName: "entity", Err: err})
		return
	}
	w.handler.PutResults(rw, r, session, params)
}

func (w *wrapper) ReorderColumns(rw http.ResponseWriter, r *http.Request) {
	if session, ok := w.pathParam(rw, r, "session"); ok {
		w.handler.ReorderColumns(rw, r, session)
	}
}

func (w *wrapper) ResizeColumn(rw http.ResponseWriter, r *http.Request) {
	if session, ok := w.pathParam(rw, r, "session"); ok {
		w.handler.ResizeColumn(rw, r, session)
	}
}

func (w *wrapper) SelectColumns(rw http.ResponseWriter, r *http.Request) {
	if session, ok := w.pathParam(rw, r, "session"); ok {
		w.handler.SelectColumns(rw, r, session)
	}
}

func (w *wrapper) SetColumnVisibility(rw http.ResponseWriter, r *http.Request) {
	session, ok := w.pathParam(rw, r, "session")
	if !ok {
		return
	}
	key, ok := w.pathParam(rw, r, "key")
	if !ok {
		return
	}
	w.handler.SetColumnVisibility(rw, r, session, key)
}

func (w *wrapper) ToggleRowExpand(rw http.ResponseWriter, r *http.Request) {
	session, ok := w.pathParam(rw, r, "session")
	if !ok {
		return
	}
	pk, ok := w.pathParam(rw, r, "primaryKey")
	if !ok {
		return
	}
	w.handler.ToggleRowExpand(rw, r, session, pk)
}

func (w *wrapper) GetRowDetail(rw http.ResponseWriter, r *http.Request) {
	session, ok := w.pathParam(rw, r, "session")
	if !ok {
		return
	}
	pk, ok := w.pathParam(rw, r, "primaryKey")
	if !ok {
		return
	}
	w.handler.GetRowDetail(rw, r, session, pk)
}
