package shared

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"leavestride/internal/platform/apperr"
	"leavestride/internal/requestctx"
	"leavestride/internal/transport/http/api"
)

var exposeInternal atomic.Bool

// ExposeInternalErrors includes the cause of unclassified errors in responses. Development only.
func ExposeInternalErrors(on bool) {
	exposeInternal.Store(on)
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindRule:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// WriteError renders err in the response envelope. Unclassified errors are logged and
// reported as internal_error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		api.Fail(w, StatusFor(appErr.Kind), appErr.Code, appErr.Message, requestID)
		return
	}

	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID,
		"err", err,
	)
	if exposeInternal.Load() {
		api.FailWithDetails(w, http.StatusInternalServerError, "internal_error", "internal server error", map[string]any{"cause": err.Error()}, requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
