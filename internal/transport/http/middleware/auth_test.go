package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/users"
)

type fakeAuthenticator struct {
	calls   atomic.Int32
	delay   time.Duration
	session auth.Session
	err     error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (auth.Session, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return auth.Session{}, f.err
	}
	return f.session, nil
}

func serveWithToken(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareSetsSession(t *testing.T) {
	authn := &fakeAuthenticator{session: auth.Session{UserID: "u1", Role: users.RoleManager, Active: true}}
	var session auth.Session
	var found bool
	handler := Auth(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, found = GetSession(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := serveWithToken(handler, "token-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, found)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, users.RoleManager, session.Role)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	found := true
	handler := Auth(&fakeAuthenticator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = GetSession(r.Context())
	}))

	serveWithToken(handler, "")
	assert.False(t, found)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	for _, err := range []error{auth.ErrInvalidToken, auth.ErrTokenRevoked, auth.ErrAccountDeactivated} {
		t.Run(err.Error(), func(t *testing.T) {
			called := false
			handler := Auth(&fakeAuthenticator{err: err})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			rec := serveWithToken(handler, "bad")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestAuthMiddlewareCoalescesConcurrentLookups(t *testing.T) {
	authn := &fakeAuthenticator{delay: 50 * time.Millisecond, session: auth.Session{UserID: "u1", Role: users.RoleEmployee}}
	handler := Auth(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveWithToken(handler, "shared")
		}()
	}
	wg.Wait()
	assert.Less(t, authn.calls.Load(), int32(8))
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), auth.Session{UserID: "u1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermissionUsesGate(t *testing.T) {
	gate, err := auth.NewGate()
	require.NoError(t, err)
	handler := RequirePermission(auth.PermLeaveDecide, gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		role users.Role
		want int
	}{
		{users.RoleEmployee, http.StatusForbidden},
		{users.RoleManager, http.StatusNoContent},
		{users.RoleAdmin, http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		req = req.WithContext(WithSession(req.Context(), auth.Session{UserID: "u1", Role: tc.role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, string(tc.role))
	}
}
