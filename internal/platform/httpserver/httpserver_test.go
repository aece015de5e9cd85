package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type recordingObserver struct {
	method string
	route  string
	status int
	calls  int
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.method, o.route, o.status = method, route, status
	o.calls++
}

func TestWrap_SetsRequestIDHeader_WhenMissing(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Wrap(testLogger(), nil, mux, mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))

	got := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("X-Request-Id=%q, want uuid", got)
	}
	if seen != got {
		t.Fatalf("context request id=%q, want %q", seen, got)
	}
}

func TestWrap_PreservesRequestIDHeader_WhenProvided(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Wrap(testLogger(), nil, mux, mux)

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Set(RequestIDHeader, "rid-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "rid-123" {
		t.Fatalf("X-Request-Id=%q, want rid-123", got)
	}
}

func TestWrap_ReportsStatusToObserver(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vendors/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusOK)
	})
	obs := &recordingObserver{}
	h := Wrap(testLogger(), obs, mux, mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/vendors/abc", nil))

	if obs.calls != 1 || obs.status != http.StatusNotFound || obs.route != "/vendors/{id}" {
		t.Fatalf("observer=%+v, want one 404 for /vendors/{id}", obs)
	}
}

func TestWrap_UnmatchedPathsShareOneRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vendors", func(w http.ResponseWriter, r *http.Request) {})
	obs := &recordingObserver{}
	// The inner handler rejects everything, as auth does in front of the mux.
	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h := Wrap(testLogger(), obs, mux, deny)

	for _, path := range []string{"/junk-1", "/junk-2", "/vendors/x/y"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example.test"+path, nil))
		if obs.route != RouteOther || obs.status != http.StatusUnauthorized {
			t.Fatalf("%s observer=%+v, want route %q with 401", path, obs, RouteOther)
		}
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example.test/vendors", nil))
	if obs.route != "/vendors" {
		t.Fatalf("route=%q, want /vendors", obs.route)
	}
}

func TestWrap_NilRoutesReportsOther(t *testing.T) {
	obs := &recordingObserver{}
	h := Wrap(testLogger(), obs, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example.test/anything", nil))
	if obs.route != RouteOther {
		t.Fatalf("route=%q, want %q", obs.route, RouteOther)
	}
}

func TestWrap_RecoversPanic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	h := Wrap(testLogger(), nil, mux, mux)

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Set(RequestIDHeader, "rid-panic")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type=%q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["request_id"] != "rid-panic" {
		t.Fatalf("request_id=%q, want rid-panic", body["request_id"])
	}
}

func TestReadyzWithChecks_OK(t *testing.T) {
	handler := ReadyzWithChecks("testsvc", ReadinessCheck{
		Name:  "always-ok",
		Check: func(ctx context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "\"status\":\"ready\"") {
		t.Fatalf("expected ready status in response: %s", rec.Body.String())
	}
}

func TestReadyzWithChecks_Fail(t *testing.T) {
	handler := ReadyzWithChecks("testsvc", ReadinessCheck{
		Name:  "always-fail",
		Check: func(ctx context.Context) error { return context.Canceled },
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "\"status\":\"not_ready\"") {
		t.Fatalf("expected not_ready status in response: %s", rec.Body.String())
	}
}

func TestRun_RequiresServiceAndAddr(t *testing.T) {
	if err := Run(context.Background(), testLogger(), Config{Addr: ":0"}, http.NotFoundHandler()); err == nil {
		t.Fatalf("expected error without service")
	}
	if err := Run(context.Background(), testLogger(), Config{Service: "x"}, http.NotFoundHandler()); err == nil {
		t.Fatalf("expected error without addr")
	}
}
