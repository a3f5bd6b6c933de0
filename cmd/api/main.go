package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/Dj0083/final-project-sub000/api/controllers"
	"github.com/Dj0083/final-project-sub000/api/routes"
	"github.com/Dj0083/final-project-sub000/internal/attribution"
	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/funding"
	"github.com/Dj0083/final-project-sub000/internal/handshake"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	"github.com/Dj0083/final-project-sub000/pkg/config"
	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
	"github.com/Dj0083/final-project-sub000/pkg/migrate"
	pkgredis "github.com/Dj0083/final-project-sub000/pkg/redis"
	"github.com/Dj0083/final-project-sub000/pkg/storage"
	"github.com/Dj0083/final-project-sub000/pkg/storage/gcs"
	"github.com/Dj0083/final-project-sub000/pkg/storage/local"
)

const (
	serviceName     = "market-api"
	shutdownTimeout = 15 * time.Second
)

// closer collects resources to release after the server drains.
type closer struct {
	names []string
	fns   []func() error
}

func (c *closer) add(name string, fn func() error) {
	c.names = append(c.names, name)
	c.fns = append(c.fns, fn)
}

func (c *closer) close() error {
	var errs error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("closing %s: %w", c.names[i], err))
		}
	}
	return errs
}

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources := &closer{}
	handler, err := build(ctx, cfg, logg, resources)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap api", err)
		_ = resources.close()
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	if err := resources.close(); err != nil {
		logg.Error(context.Background(), "error releasing resources", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}

func build(ctx context.Context, cfg *config.Config, logg *logger.Logger, resources *closer) (http.Handler, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	resources.add("database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return nil, err
	}

	ready := map[string]controllers.Pinger{"database": dbClient, "redis": nil, "storage": nil}

	var idempotency pkgredis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		resources.add("redis", redisClient.Close)
		idempotency = redisClient
		ready["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency keys disabled")
	}

	var (
		store storage.ObjectStore
		files http.Handler
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case config.StorageDriverGCS:
		gcsClient, err := gcs.NewClient(ctx, cfg.Storage, cfg.GCP, logg)
		if err != nil {
			return nil, err
		}
		resources.add("storage", gcsClient.Close)
		store = gcsClient
		ready["storage"] = gcsClient
	default:
		localStore, err := local.New(cfg.Storage.LocalRoot, cfg.Storage.PublicBase)
		if err != nil {
			return nil, err
		}
		store = localStore
		files = http.FileServer(http.Dir(localStore.Root()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflowMetrics := metrics.NewWorkflowMetrics(reg)

	gormDB := dbClient.DB()
	directory, err := parties.NewDirectory(parties.NewRepository(gormDB))
	if err != nil {
		return nil, err
	}
	threadLog, err := threadlog.NewLog(threadlog.NewRepository(gormDB))
	if err != nil {
		return nil, err
	}
	gate, err := documents.NewGate(documents.NewRepository(gormDB), store, workflowMetrics, logg)
	if err != nil {
		return nil, err
	}

	handshakeDeps := handshake.Deps{
		DB:        gormDB,
		Tx:        dbClient,
		Directory: directory,
		Log:       threadLog,
		Gate:      gate,
		Metrics:   workflowMetrics,
		Logger:    logg,
	}
	connections, err := handshake.NewConnections(handshakeDeps)
	if err != nil {
		return nil, err
	}
	partners, err := handshake.NewPartnerRequests(handshakeDeps)
	if err != nil {
		return nil, err
	}

	fundingSvc, err := funding.NewService(funding.NewRepository(gormDB), dbClient, directory, threadLog, gate, workflowMetrics, logg)
	if err != nil {
		return nil, err
	}

	rate, err := cfg.Tracking.Rate()
	if err != nil {
		return nil, err
	}
	attributionRepo := attribution.NewRepository(gormDB)
	attributionSvc, err := attribution.NewService(attributionRepo, dbClient, rate, workflowMetrics, logg)
	if err != nil {
		return nil, err
	}
	links, err := attribution.NewLinks(partners, attributionRepo, cfg.Tracking.StorefrontURL)
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		Idempotency:     idempotency,
		Ready:           ready,
		HTTPMetrics:     metrics.NewHTTPMetrics(reg),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Files:           files,
		Connections:     connections,
		PartnerRequests: partners,
		Funding:         fundingSvc,
		Attribution:     attributionSvc,
		Links:           links,
	}), nil
}
