package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	reg := New()
	router := chi.NewRouter()
	router.Use(reg.Middleware)
	router.Get("/leaves/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaves/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(reg.requestsTotal.WithLabelValues("/leaves/{id}", "GET", "404")))
}

func TestDomainCountersAreExposed(t *testing.T) {
	reg := New()
	reg.LeaveTransition("APPROVED")
	reg.LeaveSubmission("SICK", errors.New("overlap"))
	reg.JobFinished("email.welcome", nil)
	reg.JobDropped("email.welcome")

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.True(t, strings.Contains(body, `leave_transitions_total{status="APPROVED"} 1`))
	assert.True(t, strings.Contains(body, `leave_submissions_total{leave_type="SICK",outcome="rejected"} 1`))
	assert.True(t, strings.Contains(body, `background_jobs_total{job="email.welcome",outcome="dropped"} 1`))
}
