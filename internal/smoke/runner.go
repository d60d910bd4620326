package smoke

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/okian/rrtrack/internal/domain/failure"
	"github.com/okian/rrtrack/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const rejectedPassword = "bad"

type account struct {
	username   string
	password   string
	clientAddr string
}

// Run executes a complete smoke pass: a health check, one rejected login,
// then concurrent lookups for generated accounts. Every lookup comes from
// its own client address so per-client rate limits stay out of the way.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("smoke")
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting rrtrack smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("accounts", cfg.Accounts),
		logger.Int("workers", cfg.Workers))

	if err := c.health(ctx); err != nil {
		return nil, err
	}

	accounts := generateAccounts(cfg.Seed, cfg.Accounts)

	if err := checkRejectedLogin(ctx, c, cfg.Region, accounts); err != nil {
		return nil, err
	}

	stats := &Stats{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	pace := rate.NewLimiter(rate.Inf, 1)
	if cfg.Rate > 0 {
		pace = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	for _, acc := range accounts {
		g.Go(func() error {
			if err := pace.Wait(gctx); err != nil {
				mu.Lock()
				stats.Lookups++
				stats.Failed++
				mu.Unlock()
				return nil
			}
			records, limited, err := lookupOne(gctx, c, cfg.Region, acc)

			mu.Lock()
			defer mu.Unlock()
			stats.Lookups++
			switch {
			case err != nil:
				stats.Failed++
				log.Warn(gctx, "lookup failed", logger.String("username", acc.username), logger.Error(err))
			case limited:
				stats.RateLimited++
			default:
				stats.Successful++
				stats.Records += len(records)
				if cfg.Verbose {
					log.Info(gctx, "lookup ok", logger.String("username", acc.username), logger.Int("records", len(records)))
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	stats.Duration = time.Since(start)

	log.Info(ctx, "smoke run finished",
		logger.Int("lookups", stats.Lookups),
		logger.Int("successful", stats.Successful),
		logger.Int("rateLimited", stats.RateLimited),
		logger.Int("failed", stats.Failed),
		logger.Int("records", stats.Records),
		logger.Duration("duration", stats.Duration))

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrLookupFailed, stats.Failed, stats.Lookups)
	}
	return stats, nil
}

func generateAccounts(seed uint64, n int) []account {
	f := gofakeit.New(seed)
	out := make([]account, n)
	for i := range out {
		out[i] = account{
			username:   fmt.Sprintf("%s%d", f.Username(), i),
			password:   f.Password(true, true, true, false, false, 12),
			clientAddr: f.IPv4Address(),
		}
	}
	return out
}

func checkRejectedLogin(ctx context.Context, c *client, region string, accounts []account) error {
	probe := account{username: "smoke-probe", clientAddr: "192.0.2.254"}
	if len(accounts) > 0 {
		probe.username = accounts[0].username
	}
	env, err := c.lookup(ctx, lookupRequest{Username: probe.username, Password: rejectedPassword, Region: region}, probe.clientAddr)
	if err != nil {
		return err
	}
	if env.Success || env.text() != failure.MessageLogin {
		return fmt.Errorf("%w: rejected login answered %q", ErrBadResponse, env.text())
	}
	return nil
}

// lookupOne returns the records for acc, or limited=true when the service
// refused the request for rate.
func lookupOne(ctx context.Context, c *client, region string, acc account) ([]Record, bool, error) {
	env, err := c.lookup(ctx, lookupRequest{Username: acc.username, Password: acc.password, Region: region}, acc.clientAddr)
	if err != nil {
		return nil, false, err
	}
	if !env.Success {
		if env.text() == failure.MessageRateLimit {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("%w: %q", ErrBadResponse, env.text())
	}
	var records []Record
	if err := json.Unmarshal(env.Message, &records); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if err := VerifyRecords(records); err != nil {
		return nil, false, err
	}
	return records, false, nil
}
