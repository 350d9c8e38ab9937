package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leavestride/internal/domain/auth"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func jsonRequest(method, path, body, remoteAddr string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
	userCtx := WithSession(context.Background(), auth.Session{UserID: "user-1"})

	first := httptest.NewRequest(http.MethodPatch, "/api/v1/leaves/l1", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	assert.Equal(t, http.StatusNoContent, serve(limited, first).Code)

	second := httptest.NewRequest(http.MethodPatch, "/api/v1/leaves/l1", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, second).Code, "throttled by user key")
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))

	first := jsonRequest(http.MethodPost, "/api/v1/auth/request-reset", `{"email":"a@example.com"}`, "203.0.113.10:4444")
	assert.Equal(t, http.StatusNoContent, serve(limited, first).Code)

	second := jsonRequest(http.MethodPost, "/api/v1/auth/request-reset", `{"email":"b@example.com"}`, "203.0.113.10:5555")
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, second).Code, "throttled by ip key")
}

func TestRateLimitRefillsOverWindow(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(http.HandlerFunc(noContent))
	send := func() int {
		return serve(limited, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com"}`, "192.0.2.20:1111")).Code
	}

	assert.Equal(t, http.StatusNoContent, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, http.StatusNoContent, send(), "bucket refills after the window")
}

func TestRateLimitReturnsRetryMetadata(t *testing.T) {
	limited := RateLimit(2, time.Minute)(http.HandlerFunc(noContent))

	var recs []*httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves", nil)
		req.RemoteAddr = "192.0.2.30:1234"
		recs = append(recs, serve(limited, req))
	}
	assert.Equal(t, "1", recs[0].Header().Get("X-RateLimit-Remaining"))

	last := recs[2]
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(noContent))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		assert.Equal(t, http.StatusNoContent, serve(limited, req).Code, "read routes bypass sensitive limits")
	}

	userCtx := WithSession(context.Background(), auth.Session{UserID: "manager-1"})
	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i, code := range want {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/leaves/l1", nil).WithContext(userCtx)
		req.RemoteAddr = "198.51.100.41:9999"
		assert.Equal(t, code, serve(limited, req).Code, "sensitive request %d", i+1)
	}
}

func TestSensitiveRateScope(t *testing.T) {
	tests := []struct {
		method, path string
		want         sensitiveScope
	}{
		{http.MethodPost, "/api/v1/auth/login", sensitiveScopeAuth},
		{http.MethodPost, "/api/v1/auth/reset/", sensitiveScopeAuth},
		{http.MethodGet, "/api/v1/auth/me", sensitiveScopeNone},
		{http.MethodPatch, "/api/v1/leaves/abc", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/leaves", sensitiveScopeNone},
		{http.MethodPut, "/api/v1/users/u1/password", sensitiveScopeActor},
		{http.MethodDelete, "/api/v1/users/u1", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/holidays/import", sensitiveScopeActor},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, sensitiveRateScope(req), "%s %s", tc.method, tc.path)
	}
}
