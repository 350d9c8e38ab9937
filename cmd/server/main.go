package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"leavestride/internal/app/server"
	"leavestride/internal/platform/config"
	"leavestride/internal/platform/db"
	"leavestride/internal/platform/logging"
	"leavestride/internal/platform/mongodb"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "leavestride",
		Short:         "Leave management API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations (postgres) or indexes (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and national holidays",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context())
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("leavestride %s\n", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, versionCmd)
}

func loadConfig() (config.Config, func(), error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_FILE", configPath); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	_, closer, err := logging.Setup(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, func() { _ = closer.Close() }, nil
}

func serve(ctx context.Context) error {
	cfg, done, err := loadConfig()
	if err != nil {
		return err
	}
	defer done()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}

func migrate(ctx context.Context) error {
	cfg, done, err := loadConfig()
	if err != nil {
		return err
	}
	defer done()

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
	case "mongo":
		client, database, err := mongodb.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store driver %q has no schema to migrate", cfg.StoreDriver)
	}
	slog.Info("migrations applied", "store", cfg.StoreDriver)
	return nil
}

func seed(ctx context.Context) error {
	cfg, done, err := loadConfig()
	if err != nil {
		return err
	}
	defer done()

	cfg.RunSeed = true
	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	app.Close()
	slog.Info("seed complete", "store", cfg.StoreDriver)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
