package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"leavestride/internal/domain/audit"
	"leavestride/internal/domain/auth"
	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/notifications"
	"leavestride/internal/domain/reports"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/config"
	"leavestride/internal/platform/db"
	"leavestride/internal/platform/email"
	"leavestride/internal/platform/events"
	"leavestride/internal/platform/jobs"
	"leavestride/internal/platform/lock"
	"leavestride/internal/platform/metrics"
	"leavestride/internal/transport/http/middleware"
	"leavestride/internal/transport/http/shared"
)

const idempotencyTTL = 24 * time.Hour

// App is the assembled service: stores, domain services and the HTTP router.
type App struct {
	Config   config.Config
	Router   http.Handler
	Metrics  *metrics.Registry
	Users    *users.Service
	Holidays *holidays.Service
	Leaves   *leave.Service
	Auth     *auth.Service

	stores *stores
	redis  *redis.Client
	events events.Publisher
	jobs   *jobs.Service
	cancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shared.ExposeInternalErrors(!cfg.IsProduction())

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, stores: st, Metrics: metrics.New()}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		app.redis = redis.NewClient(opts)
	}

	var locker lock.Locker = lock.NewLocal()
	var revocations auth.Revocations = auth.NewMemoryRevocations()
	var idempotency middleware.IdempotencyStore = middleware.NewMemoryIdempotencyStore()
	if app.redis != nil {
		revocations = auth.NewRedisRevocations(app.redis)
		idempotency = middleware.NewRedisIdempotencyStore(app.redis)
		if cfg.LockDriver == "redis" {
			locker = lock.NewRedis(app.redis, cfg.LockTTL)
		}
	}

	app.events = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		app.events = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app.cancel = cancel
	app.jobs = jobs.New(cfg.JobQueueSize, cfg.JobWorkers, app.Metrics)
	app.jobs.Start(jobCtx)

	dispatcher, err := notifications.New(email.New(cfg), app.events, app.jobs)
	if err != nil {
		app.Close()
		return nil, err
	}
	dispatcher.From = cfg.EmailFrom
	dispatcher.AppURL = cfg.FrontendURL
	dispatcher.ResetTTL = cfg.ResetTokenTTL

	gate, err := auth.NewGate()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build permission gate: %w", err)
	}

	app.Holidays = holidays.NewService(st.Holidays)

	app.Users = users.NewService(st.Users)
	app.Users.AllowSelfSignup = cfg.AllowSelfSignup
	app.Users.Notifier = dispatcher
	app.Users.Locker = locker

	app.Leaves = leave.NewService(st.Leaves, st.Users, app.Holidays, locker)
	app.Leaves.Notifier = dispatcher
	app.Leaves.Metrics = app.Metrics
	app.Leaves.Location = cfg.Location()
	app.Leaves.Gate = gate
	if policy, ok := leave.ParseRecreditPolicy(cfg.LeaveRecreditPolicy); ok {
		app.Leaves.Recredit = policy
	}
	app.Users.Leaves = app.Leaves

	app.Auth = auth.NewService(app.Users, revocations, cfg.JWTSecret)
	app.Auth.Notifier = dispatcher
	app.Auth.TokenTTL = cfg.TokenTTL
	app.Auth.RefreshTTL = cfg.RefreshTokenTTL
	app.Auth.ResetTTL = cfg.ResetTokenTTL
	app.Auth.FrontendURL = cfg.FrontendURL

	if cfg.RunSeed {
		if err := db.Seed(ctx, cfg, app.Users, app.Holidays); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app.Router = app.routes(routeDeps{
		gate:        gate,
		audit:       audit.New(app.events),
		reports:     reports.NewService(st.Users, st.Leaves, app.Leaves),
		idempotency: idempotency,
	})
	return app, nil
}

// Ready pings the backing store.
func (a *App) Ready(ctx context.Context) error {
	if a.stores == nil || a.stores.ping == nil {
		return nil
	}
	return a.stores.ping(ctx)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.Config.Addr, "store", a.Config.StoreDriver, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close drains background jobs and releases connections.
func (a *App) Close() {
	if a.jobs != nil {
		a.jobs.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			slog.Warn("event publisher close failed", "err", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.stores != nil && a.stores.close != nil {
		a.stores.close()
	}
}
