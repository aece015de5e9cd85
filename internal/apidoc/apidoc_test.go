package apidoc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoad_DocumentIsValid(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if doc.Paths.Find("/vendors/{id}") == nil {
		t.Fatalf("expected /vendors/{id} in paths")
	}
}

func TestRoutes(t *testing.T) {
	routes, err := Routes()
	if err != nil {
		t.Fatalf("Routes() err=%v", err)
	}
	want := []string{
		"GET /vendors",
		"POST /vendors",
		"DELETE /vendors/{id}",
		"GET /vendors/{id}",
		"PUT /vendors/{id}",
	}
	if len(routes) != len(want) {
		t.Fatalf("routes=%v, want %v", routes, want)
	}
	for i := range want {
		if routes[i].String() != want[i] {
			t.Fatalf("routes[%d]=%s, want %s", i, routes[i], want[i])
		}
	}
}

func TestHandler_ServesYAML(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/openapi.yaml", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Fatalf("Content-Type=%q, want application/yaml", ct)
	}
	if rec.Body.Len() != len(document) {
		t.Fatalf("body length=%d, want %d", rec.Body.Len(), len(document))
	}
}
