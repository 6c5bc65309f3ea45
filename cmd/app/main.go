// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"activation-gate/internal/application"
	"activation-gate/internal/config"
	"activation-gate/internal/infra/api"
	httpapi "activation-gate/internal/infra/http"
	"activation-gate/internal/infra/i18n"
	"activation-gate/internal/infra/logging"
	"activation-gate/internal/infra/metrics"
	"activation-gate/internal/infra/sched"
	"activation-gate/internal/infra/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (memory store, console logs, unredacted identifiers)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	if cfg.Activation.DeveloperCode == "" {
		logger.Info().Msg("developer code disabled")
	}

	// ---- Storage ----
	stack, err := application.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage")
	}
	defer stack.Close()
	metrics.SetBuildInfo(version, commit, cfg.Database.Driver)

	uc := stack.UseCase(cfg, logger)

	// ---- Admin auth ----
	auth, err := web.NewAuthManager(cfg.Admin, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("admin auth")
	}
	if cfg.Admin.APIKey == "" {
		logger.Warn().Msg("admin.api_key not set; admin endpoints will reject every request")
	}

	// ---- Messages ----
	catalog, err := i18n.NewCatalog(i18n.LocalesFS, cfg.Locale.Languages...)
	if err != nil {
		logger.Fatal().Err(err).Msg("locales")
	}

	// ---- HTTP ----
	deps := api.RouterDeps{
		UC:              uc,
		Auth:            auth,
		ClaimsPerMinute: cfg.RateLimit.ClaimsPerMinute,
		Store:           stack.Store,
		Messages:        catalog,
		TrustProxy:      cfg.Server.TrustProxy,
		RequestTimeout:  cfg.Server.RequestTimeout,
		Logger:          logger,
	}
	if stack.Limiter != nil {
		deps.Limiter = stack.Limiter
	}
	server := httpapi.NewServer(cfg.Server, api.NewRouter(deps), logger)

	// ---- Stats worker ----
	worker := sched.NewStatsWorker(30*time.Second, uc, stack.PoolStats, logger)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("stats worker stopped")
		}
	}()

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
			cancel()
			stack.Close()
			os.Exit(1)
		}
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
