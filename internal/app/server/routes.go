package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"leavestride/internal/domain/audit"
	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/reports"
	authhandler "leavestride/internal/transport/http/handlers/auth"
	holidayhandler "leavestride/internal/transport/http/handlers/holidays"
	leavehandler "leavestride/internal/transport/http/handlers/leave"
	reportshandler "leavestride/internal/transport/http/handlers/reports"
	userhandler "leavestride/internal/transport/http/handlers/users"
	"leavestride/internal/transport/http/middleware"
)

type routeDeps struct {
	gate        *auth.Gate
	audit       *audit.Service
	reports     *reports.Service
	idempotency middleware.IdempotencyStore
}

func (a *App) routes(deps routeDeps) http.Handler {
	cfg := a.Config

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Logger)
	if cfg.MetricsEnabled {
		router.Use(a.Metrics.Middleware)
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	router.Use(middleware.Auth(a.Auth))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ready(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Handle("/metrics", a.Metrics.Handler())
	}

	authHandler := authhandler.NewHandler(a.Auth, a.Users)
	leaveHandler := leavehandler.NewHandler(a.Leaves, deps.gate)
	holidayHandler := holidayhandler.NewHandler(a.Holidays, deps.gate, deps.audit)
	holidayHandler.Location = cfg.Location()
	userHandler := userhandler.NewHandler(a.Users, deps.gate, deps.audit)
	reportsHandler := reportshandler.NewHandler(deps.reports, deps.gate)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Idempotency(deps.idempotency, idempotencyTTL))

			authHandler.RegisterRoutes(r)
			leaveHandler.RegisterRoutes(r)
			holidayHandler.RegisterRoutes(r)
			userHandler.RegisterRoutes(r)
			reportsHandler.RegisterRoutes(r)
		})
	})

	if frontendAvailable(cfg.FrontendDir) {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}
	return router
}
