package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"leavestride/internal/domain/auth"
	"leavestride/internal/platform/apperr"
	"leavestride/internal/transport/http/api"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Session, error)
}

// Auth resolves a bearer token into a session. Requests without a token pass through
// unauthenticated; an invalid, revoked or deactivated token is rejected with 401.
// Concurrent requests carrying the same token share one resolution.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	var group singleflight.Group
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			v, err, _ := group.Do(token, func() (any, error) {
				return authenticator.Authenticate(context.WithoutCancel(r.Context()), token)
			})
			if err != nil {
				code, message := "unauthorized", "invalid or expired token"
				var appErr *apperr.Error
				if errors.As(err, &appErr) && appErr.Kind == apperr.KindUnauthenticated {
					message = appErr.Message
				} else {
					slog.Warn("session resolution failed", "err", err, "request_id", GetRequestID(r.Context()))
					if !errors.As(err, &appErr) {
						api.Fail(w, http.StatusInternalServerError, "internal_error", "unable to resolve session", GetRequestID(r.Context()))
						return
					}
				}
				api.Fail(w, http.StatusUnauthorized, code, message, GetRequestID(r.Context()))
				return
			}

			ctx := WithSession(r.Context(), v.(auth.Session))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects requests that carry no session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, session)
}

func GetSession(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(ctxKeySession).(auth.Session)
	return session, ok
}
