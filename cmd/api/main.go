package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/humanize-golang/internal/auth"
	"github.com/01moynul/humanize-golang/internal/config"
	"github.com/01moynul/humanize-golang/internal/database"
	"github.com/01moynul/humanize-golang/internal/handlers"
	"github.com/01moynul/humanize-golang/internal/humanize"
	"github.com/01moynul/humanize-golang/internal/metrics"
	"github.com/01moynul/humanize-golang/internal/middleware"
	"github.com/01moynul/humanize-golang/internal/plans"
	"github.com/01moynul/humanize-golang/internal/provider"
	"github.com/01moynul/humanize-golang/internal/routes"
	"github.com/01moynul/humanize-golang/internal/store"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	if !cfg.DotEnvLoaded {
		logger.Warn("could not find .env file, relying on system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Storage ---
	var st store.Store
	if cfg.DSN == "" {
		logger.Warn("DB_DSN_PRIMARY is not set, using the in-memory store (data is lost on restart)")
		st = store.NewMemory()
	} else {
		db, err := database.OpenDB(ctx, cfg.DSN, logger)
		if err != nil {
			logger.Fatal("failed to connect to primary database", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(ctx, db, logger); err != nil {
			logger.Fatal("failed to apply schema migrations", zap.Error(err))
		}
		st = store.NewMySQL(db)
	}

	// 2. --- Humanize Provider ---
	prov, err := provider.New(ctx, cfg.Provider, logger)
	switch {
	case provider.IsNoCredentials(err):
		logger.Warn("no provider credentials configured, humanize runs are simulated",
			zap.String("provider", cfg.Provider.Kind))
	case err != nil:
		logger.Fatal("failed to initialize provider", zap.Error(err))
	}
	if closer, ok := prov.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// 3. --- Workflow ---
	m := metrics.New()
	catalog := plans.Default()
	controller := humanize.NewController(humanize.Config{
		LiveMode:       cfg.Humanize.LiveMode,
		HasCredentials: prov != nil,
		PollPolicy: humanize.RetryPolicy{
			MaxAttempts: cfg.Humanize.PollMaxAttempts,
			Delay:       cfg.Humanize.PollDelay,
		},
	}, humanize.Deps{
		Provider:  prov,
		Simulator: humanize.NewSimulator(cfg.Humanize.SimulateDelay),
		Ledger:    st,
		Projects:  st,
		Plans:     catalog,
		Logger:    logger,
		Metrics:   m,
	})

	app := &handlers.Handlers{
		Store:      st,
		Controller: controller,
		Plans:      catalog,
		Auth:       auth.NewIssuer(cfg.JWTSecret),
		Logger:     logger.Named("http"),
	}
	limiter := middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)

	// 4. --- Background Worker ---
	// Evicts idle rate-limit buckets, abandoned provider jobs and mode overrides of expired logins.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		sweeper, _ := prov.(provider.Sweeper)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				callers := limiter.Sweep(now)
				modes := controller.SweepModes(now.Add(-auth.DefaultTTL))
				jobs := 0
				if sweeper != nil {
					jobs = sweeper.Sweep(now)
				}
				if callers > 0 || jobs > 0 || modes > 0 {
					logger.Debug("background sweep",
						zap.Int("callers", callers), zap.Int("jobs", jobs), zap.Int("modes", modes))
				}
			}
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		Limiter:    limiter,
		Metrics:    m,
	})

	// --- Start Server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting humanize API server",
		zap.String("port", cfg.Port),
		zap.Bool("liveMode", controller.DefaultLiveMode()),
		zap.String("provider", cfg.Provider.Kind))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}
