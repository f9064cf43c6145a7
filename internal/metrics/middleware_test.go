package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/sessions/{session}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/sessions/"+id, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/sessions/{session}", "200"))
	if val < 3 {
		t.Errorf("expected requests_total for the route pattern >= 3, got %f", val)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Put("/sessions/{session}/results", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Delete("/sessions/{session}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		method  string
		path    string
		pattern string
		status  string
	}{
		{http.MethodPut, "/sessions/x/results", "/sessions/{session}/results", "400"},
		{http.MethodDelete, "/sessions/x", "/sessions/{session}", "204"},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.pattern, tc.status))
			if val < 1 {
				t.Errorf("expected requests_total{%s %s %s} >= 1, got %f", tc.method, tc.pattern, tc.status, val)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q, want unknown", got)
	}
	if got := normalizePath("/health"); got != "/health" {
		t.Errorf("normalizePath(/health) = %q", got)
	}
}

func TestEditOutcome(t *testing.T) {
	if EditOutcome(true) != "applied" || EditOutcome(false) != "stale" {
		t.Error("unexpected outcome labels")
	}
}

func TestRegisterGridMetrics_Idempotent(t *testing.T) {
	RegisterGridMetrics()
	RegisterGridMetrics()

	ColumnEditsTotal.WithLabelValues("resize", "stale").Inc()
	if v := testutil.ToFloat64(ColumnEditsTotal.WithLabelValues("resize", "stale")); v < 1 {
		t.Errorf("column_edits_total = %f, want >= 1", v)
	}
}
