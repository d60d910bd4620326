// Command smoke runs an end-to-end check against a running rrtrack.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rrtrack/internal/smoke"
	"github.com/okian/rrtrack/pkg/logger"
)

// Default configuration constants.
const (
	defaultAccounts    = 20
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:5000", "Base URL of the service")
		accounts = flag.Int("accounts", defaultAccounts, "Number of generated accounts to look up")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent lookups")
		pace     = flag.Float64("rate", 0, "Lookups started per second (0 disables pacing)")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		region   = flag.String("region", "na", "Region sent with each lookup")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for generated accounts")
		verbose  = flag.Bool("verbose", false, "Log every lookup")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &smoke.Config{
		BaseURL:  *baseURL,
		Accounts: *accounts,
		Workers:  *workers,
		Rate:     *pace,
		Timeout:  *timeout,
		Region:   *region,
		Seed:     *seed,
		Verbose:  *verbose,
	}
	if _, err := smoke.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "smoke run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
