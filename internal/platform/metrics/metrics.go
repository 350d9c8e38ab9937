package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private prometheus registry so several apps can coexist in one process (tests).
type Registry struct {
	reg              *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	leaveTransitions *prometheus.CounterVec
	leaveSubmissions *prometheus.CounterVec
	jobsTotal        *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		leaveTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_transitions_total",
			Help: "Leave request status transitions",
		}, []string{"status"}),
		leaveSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_submissions_total",
			Help: "Leave request submissions by outcome",
		}, []string{"leave_type", "outcome"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "background_jobs_total",
			Help: "Background jobs by outcome",
		}, []string{"job", "outcome"}),
	}
	r.reg.MustRegister(
		r.requestsTotal,
		r.requestDuration,
		r.leaveTransitions,
		r.leaveSubmissions,
		r.jobsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Middleware labels requests by chi route pattern to keep cardinality bounded.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		path := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requestsTotal.WithLabelValues(path, req.Method, strconv.Itoa(status)).Inc()
		r.requestDuration.WithLabelValues(path, req.Method).Observe(time.Since(start).Seconds())
	})
}

func (r *Registry) LeaveTransition(status string) {
	r.leaveTransitions.WithLabelValues(status).Inc()
}

func (r *Registry) LeaveSubmission(leaveType string, err error) {
	outcome := "created"
	if err != nil {
		outcome = "rejected"
	}
	r.leaveSubmissions.WithLabelValues(leaveType, outcome).Inc()
}

func (r *Registry) JobFinished(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	r.jobsTotal.WithLabelValues(name, outcome).Inc()
}

func (r *Registry) JobDropped(name string) {
	r.jobsTotal.WithLabelValues(name, "dropped").Inc()
}
