// Command server starts the CV fairness audit HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/ai-cv-fairness/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/scorer"
	"github.com/fairyhunter13/ai-cv-fairness/internal/adapter/scorer/remote"
	"github.com/fairyhunter13/ai-cv-fairness/internal/app"
	"github.com/fairyhunter13/ai-cv-fairness/internal/config"
	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
	"github.com/fairyhunter13/ai-cv-fairness/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	// Repositories
	jobRepo := memory.NewJobRepo()
	candRepo := memory.NewCandidateRepo()
	batchRepo := memory.NewBatchRepo()

	// Optional Redis for the shared scorer rate limiter
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", slog.Any("error", err))
			}
		}()
	}

	// Alternate criterion scorer, guarded by a breaker and the Redis limiter
	var (
		alt       domain.CriterionScorer
		remoteCli *remote.Client
		breaker   *scorer.CircuitBreaker
	)
	if cfg.RemoteScorerEnabled() {
		remoteCli = remote.New(cfg)
		breaker = scorer.NewCircuitBreaker(remote.Name, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout)
		var limiter scorer.Limiter
		if l := scorer.NewRedisLuaLimiter(rdb, map[string]scorer.BucketConfig{
			scorer.LimiterKey: scorer.NewBucketConfigFromPerMinute(cfg.RemoteScorerRatePerMin),
		}); l != nil {
			limiter = l
		}
		alt = scorer.NewGuarded(remoteCli, breaker, limiter)
		slog.Info("remote scorer enabled", slog.String("url", cfg.RemoteScorerURL), slog.Bool("rate_limited", limiter != nil))
	} else {
		slog.Info("remote scorer disabled, heuristic scorer only")
	}

	// Usecases
	jobSvc := usecase.NewJobService(jobRepo)
	candSvc := usecase.NewCandidateService(jobRepo, candRepo, cfg.MaxCandidatesPerBatch, cfg.MaxCVChars)
	scoringSvc := usecase.NewScoringService(jobRepo, candRepo, batchRepo, alt, usecase.AuditOptions{
		ScoreDeltaThreshold: cfg.BlindingScoreDeltaThreshold,
		DebugFlags:          cfg.AuditDebugFlags,
	})
	reportSvc := usecase.NewReportService(batchRepo)
	exportSvc := usecase.NewExportService(batchRepo)

	if cfg.SeedFile != "" {
		res, err := seedFromYAML(ctx, jobSvc, candSvc, cfg.SeedFile)
		if err != nil {
			slog.Error("seed failed", slog.String("file", cfg.SeedFile), slog.Any("error", err))
		} else {
			slog.Info("seed loaded", slog.String("file", cfg.SeedFile), slog.Int("jobs", len(res)))
		}
	}

	// Readiness checks; interfaces stay nil when the dependency is absent.
	var (
		redisClient app.RedisClient
		pinger      app.ScorerPinger
	)
	if rdb != nil {
		redisClient = rdb
	}
	if remoteCli != nil {
		pinger = remoteCli
	}
	redisCheck, scorerCheck := app.BuildReadinessChecks(redisClient, pinger, breaker)

	// HTTP server
	srv := httpserver.NewServer(cfg, jobSvc, candSvc, scoringSvc, reportSvc, exportSvc, redisCheck, scorerCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
