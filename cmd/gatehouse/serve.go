// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/httpapi"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
)

// serveConfig holds configuration for the serve command. Non-secret
// settings come from flags merged over an optional YAML config file;
// the database URL and token secret come from the environment only.
type serveConfig struct {
	listenAddr  string
	metricsAddr string
	logFormat   string
	autoMigrate bool
}

// Validate checks that the configuration is valid.
func (cfg *serveConfig) Validate() error {
	if cfg.listenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen-addr is required")
	}
	if cfg.logFormat != "json" && cfg.logFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log-format must be 'json' or 'text', got %q", cfg.logFormat)
	}
	return nil
}

// Default values for serve command flags.
const (
	defaultListenAddr  = ":8080"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"

	shutdownTimeout = 10 * time.Second
)

// Environment variables holding startup secrets.
const (
	envDatabaseURL = "DATABASE_URL"
	envTokenSecret = "GATEHOUSE_TOKEN_SECRET"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP API server (register, login, profile) together with
the metrics/health endpoint. Requires DATABASE_URL and
GATEHOUSE_TOKEN_SECRET in the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen-addr", defaultListenAddr, "API listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending schema migrations before serving")

	return cmd
}

// loadServeConfig merges the optional YAML config file with flag values.
// Flags win over the file, defaults fill the rest.
func loadServeConfig(cmd *cobra.Command) (*serveConfig, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("config_file", configFile).
				Wrap(err)
		}
	}

	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "merge flags").Wrap(err)
	}

	cfg := &serveConfig{
		listenAddr:  k.String("listen-addr"),
		metricsAddr: k.String("metrics-addr"),
		logFormat:   k.String("log-format"),
		autoMigrate: k.Bool("auto-migrate"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *serveConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.SetDefault("gatehouse", version, cfg.logFormat)
	logger := slog.Default()

	// Both secrets are loaded exactly once; absence is fatal at startup,
	// never a runtime error path.
	databaseURL := os.Getenv(envDatabaseURL)
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", envDatabaseURL)
	}
	tokenSecret := os.Getenv(envTokenSecret)
	if tokenSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", envTokenSecret)
	}

	if cfg.autoMigrate {
		if err := migrateUp(databaseURL); err != nil {
			return err
		}
		logger.Info("schema migrations applied")
	}

	pool, err := store.NewPool(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	hasher := auth.NewArgon2idHasher()
	accounts := authpg.NewAccountRepository(pool)

	authSvc, err := auth.NewService(accounts, hasher)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService([]byte(tokenSecret))
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	var obs *observability.Server
	var obsErrCh <-chan error
	if cfg.metricsAddr != "" {
		obs = observability.NewServer(cfg.metricsAddr, func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		metrics = obs.Metrics()
	}

	api, err := httpapi.NewServer(cfg.listenAddr, authSvc, tokens, metrics, logger)
	if err != nil {
		return err
	}
	apiErrCh, err := api.Start()
	if err != nil {
		return err
	}

	// Block until a shutdown signal or a server failure.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			runErr = oops.With("component", "api").Wrap(serveErr)
		}
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			runErr = oops.With("component", "observability").Wrap(serveErr)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := api.Stop(stopCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}
	if obs != nil {
		if err := obs.Stop(stopCtx); err != nil {
			logger.Error("observability shutdown failed", "error", err)
		}
	}

	return runErr
}

// migrateUp applies all pending migrations and releases the migrator.
func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	return migrator.Up()
}
