package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/addonhub-backend/api/controllers"
	"github.com/angelmondragon/addonhub-backend/api/routes"
	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/internal/auth"
	"github.com/angelmondragon/addonhub-backend/internal/users"
	"github.com/angelmondragon/addonhub-backend/pkg/auth/session"
	"github.com/angelmondragon/addonhub-backend/pkg/config"
	"github.com/angelmondragon/addonhub-backend/pkg/db"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
	"github.com/angelmondragon/addonhub-backend/pkg/metrics"
	"github.com/angelmondragon/addonhub-backend/pkg/migrate"
	"github.com/angelmondragon/addonhub-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// closers is released in reverse order once run returns.
type closers []io.Closer

// closeAll folds every close failure into err.
func (c closers) closeAll(err error) error {
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i].Close())
	}
	return err
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opened closers
	defer func() { err = opened.closeAll(err) }()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	opened = append(opened, dbClient)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	opened = append(opened, redisClient)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	var (
		registry    *prometheus.Registry
		httpMetrics *metrics.HTTPMetrics
		addonCounts *metrics.AddonMetrics
	)
	if cfg.FeatureFlags.Metrics {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		httpMetrics = metrics.NewHTTPMetrics(registry)
		addonCounts = metrics.NewAddonMetrics(registry)
	}

	addonRepo := addons.NewRepository(dbClient.DB())
	addonService, err := addons.NewService(addonRepo, dbClient, addonCounts)
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(dbClient.DB())
	userService, err := users.NewService(userRepo, addonRepo, dbClient)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessionManager,
		RateLimiter: redisClient,
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Addons:      addonService,
		Users:       userService,
		Auth:        authService,
		HTTPMetrics: httpMetrics,
	}
	if registry != nil {
		deps.Gatherer = registry
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
