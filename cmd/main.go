package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/rrtrack/internal/adapters/http/api"
	"github.com/okian/rrtrack/internal/adapters/http/swagger"
	"github.com/okian/rrtrack/internal/adapters/riot"
	app "github.com/okian/rrtrack/internal/app"
	"github.com/okian/rrtrack/internal/config"
	"github.com/okian/rrtrack/internal/domain/history"
	"github.com/okian/rrtrack/internal/domain/lookup"
	"github.com/okian/rrtrack/internal/domain/normalize"
	"github.com/okian/rrtrack/pkg/logger"
	"github.com/okian/rrtrack/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	limiterPruneInterval      = 10 * time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "rrtrack stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyLogging(ctx, cfg)
	applyMetrics(cfg)
	log := logger.Get()

	router, limiter, err := buildRouter(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.MetricsEnabled {
		go startSystemMetricsUpdater(ctx)
	}
	go startLimiterPruner(ctx, limiter)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("timezone", cfg.Timezone),
			logger.Int("knownMaps", len(lookup.Maps())),
			logger.Int("knownMovements", len(lookup.Movements())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// applyLogging applies the configured level and format, falling back to
// info/text on invalid input.
func applyLogging(ctx context.Context, cfg *config.Config) {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		logger.Get().Warn(ctx, "invalid log_format; falling back to text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
		_ = logger.SetFormat(logger.FormatText)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
}

// applyMetrics rebuilds the global metrics manager from config. It runs
// before the router so /healthz serves the configured registry.
func applyMetrics(cfg *config.Config) {
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
	)
}

// buildRouter wires the lookup pipeline behind the HTTP API.
func buildRouter(ctx context.Context, cfg *config.Config) (chi.Router, *api.ClientRateLimiter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	normalizer := normalize.New(
		normalize.WithLocation(loc),
		normalize.WithUnknownMapFallback(cfg.UnknownMapFallback),
	)
	builder := history.NewBuilder(normalizer, history.WithWorkers(cfg.NormalizeWorkers))
	client := riot.NewClient(
		riot.WithAuthURL(cfg.RiotAuthURL),
		riot.WithEntitlementsURL(cfg.RiotEntitlementsURL),
		riot.WithPDURLTemplate(cfg.RiotPDURLTemplate),
		riot.WithTimeout(cfg.RiotTimeout()),
		riot.WithRetries(cfg.RiotMaxRetries, 0),
		riot.WithMatchCount(cfg.RiotMatchCount),
		riot.WithBreaker(cfg.RiotBreakerFailures, cfg.RiotBreakerTimeout()),
	)
	svc := app.New(
		app.WithFetcher(client),
		app.WithBuilder(builder),
	)

	limiter := api.NewClientRateLimiter([]api.Window{
		{Limit: cfg.RatePerHour, Per: time.Hour},
		{Limit: cfg.RatePerMinute, Per: time.Minute},
		{Limit: cfg.RatePerSecond, Per: time.Second},
	})
	apiServer := api.NewServer(svc, api.WithRateLimiter(limiter))
	router := apiServer.Router()
	swagger.Register(ctx, router)
	return router, limiter, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startLimiterPruner drops idle rate limiter clients periodically.
func startLimiterPruner(ctx context.Context, limiter *api.ClientRateLimiter) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
