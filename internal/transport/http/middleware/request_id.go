package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"leavestride/internal/requestctx"
)

const maxRequestIDLength = 128

// RequestID assigns the request id (reusing a sane X-Request-ID from the caller) and
// records it with the client address for downstream logs and audit entries.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.With(r.Context(), requestctx.Meta{RequestID: reqID, ClientIP: clientIPKey(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
