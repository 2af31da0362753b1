package main

import (
	"agri_service/internal/api"
	"agri_service/internal/config"
	"agri_service/internal/core"
	"agri_service/internal/domain/repository"
	"agri_service/internal/infrastructure/cache"
	"agri_service/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

func main() {
	opts, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(opts.Log.LogConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(opts, logger); err != nil {
		logger.WithError(err).Fatal("Service stopped with error")
	}
}

func run(opts *config.Options, logger *telemetry.Logger) error {
	ctx := context.Background()

	tracingCfg := telemetry.TracingConfig{
		ServiceName:    opts.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    opts.Tracing.Environment,
		OTLPEndpoint:   opts.Tracing.OTLPEndpoint,
		Insecure:       opts.Tracing.Insecure,
	}
	shutdownTracing, err := telemetry.InitTracing(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("Tracer shutdown failed")
		}
	}()

	shutdownMetrics, err := telemetry.InitMetrics(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logger.WithError(err).Warn("Meter shutdown failed")
		}
	}()

	metrics, err := telemetry.NewAnalysisMetrics()
	if err != nil {
		logger.WithError(err).Warn("Metrics disabled")
	}

	sources, err := config.LoadSources(opts.SourcesFile)
	if err != nil {
		return err
	}

	// Инициализация хранилищ каталога
	fileStore := cache.NewFileStore(opts.CacheFile)
	stores := []core.CatalogStore{fileStore}
	if opts.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Key:      opts.RedisKey,
		})
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, using file cache only")
		} else {
			defer redisStore.Close()
			stores = append(stores, redisStore)
		}
	}

	overpassRepo := repository.NewOverpassRepository(opts.OverpassURL, opts.OverpassTimeout)
	catalog := core.NewCatalogService(overpassRepo, stores, opts.CatalogBBox, logger).WithMetrics(metrics)
	coordinates := repository.NewCSVCoordinateSource(sources.CoordinateFiles, sources.FallbackCoordinates, logger)

	// История анализов включается только при заданном POSTGRES_URL
	var (
		recorder repository.AnalysisRecorder
		history  api.HistoryReader
	)
	if opts.PostgresURL != "" {
		postgresRepo, err := repository.NewPostgresRepository(ctx, opts.PostgresURL)
		if err != nil {
			return fmt.Errorf("failed to init analysis history: %w", err)
		}
		defer postgresRepo.Close()
		recorder = repository.NewPostgresAnalysisRecorder(postgresRepo.DB())
		history = postgresRepo
	}

	estimator := core.NewAttributeEstimator(core.NewRandomSource(opts.RandomSeed))
	service := core.NewAnalysisService(catalog, coordinates, estimator, recorder, logger).
		WithPoolSize(opts.PoolSize).
		WithMetrics(metrics)

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(service, history, logger, opts.RankByArrival)
	router := api.NewRouter(handler, opts.Tracing.ServiceName)

	srv := &http.Server{
		Addr:              opts.Addr + ":" + strconv.Itoa(opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":      srv.Addr,
			"pool_size": opts.PoolSize,
			"cache":     fileStore.Path(),
			"history":   history != nil,
		}).Info("Starting agricultural analysis server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
