package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/auth/health", nil)
	assertStatus(t, rr, http.StatusOK)
	assertText(t, rr, "Backend is running!")
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/healthz", nil)
	assertStatus(t, rr, http.StatusOK)

	var body map[string]interface{}
	decodeJSON(t, rr, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/readyz", nil)
	assertStatus(t, rr, http.StatusOK)
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyzDegraded(t *testing.T) {
	h := NewSystemHandler(downStore{}, "test")
	rr := httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest("GET", "/readyz", nil))

	assertStatus(t, rr, http.StatusServiceUnavailable)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeJSON(t, rr, &body)
	if body.Status != "degraded" || body.Checks["database"] != "error: connection refused" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServeSpec(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil)
	assertStatus(t, rr, http.StatusOK)

	var doc struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]interface{} `json:"paths"`
	}
	decodeJSON(t, rr, &doc)
	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://example.com" {
		t.Errorf("servers = %+v", doc.Servers)
	}
	if _, ok := doc.Paths["/api/auth/upload-admins"]; !ok {
		t.Error("upload-admins path missing")
	}
}
