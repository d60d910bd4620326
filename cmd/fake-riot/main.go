// Command fake-riot serves a local stand-in for the game service so rrtrack
// can be run end to end without real accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rrtrack/internal/fakeriot"
	"github.com/okian/rrtrack/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	defaults := fakeriot.DefaultConfig()
	var (
		addr         = flag.String("addr", ":9300", "Listen address")
		seed         = flag.Uint64("seed", defaults.Seed, "Generator seed")
		matches      = flag.Int("matches", defaults.MatchCount, "Updates generated per account")
		unknownEvery = flag.Int("unknown-every", defaults.UnknownEvery, "Every Nth update has an unresolved movement (0 disables)")
		failFetches  = flag.Int("fail-fetches", 0, "Number of initial history requests answered with 503")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Get().Named("fake-riot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := fakeriot.Config{
		Seed:         *seed,
		MatchCount:   *matches,
		UnknownEvery: *unknownEvery,
		FailFetches:  *failFetches,
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           fakeriot.NewServer(cfg),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving fake game service",
		logger.String("addr", *addr),
		logger.Int("matches", *matches),
		logger.Any("seed", *seed))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "fake game service failed", logger.Error(err))
		os.Exit(1)
	}
}
