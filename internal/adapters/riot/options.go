package riot

import (
	"net/http"
	"time"

	"github.com/okian/rrtrack/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the base HTTP client. Its transport is reused and a
// fresh cookie jar is attached per lookup. Its timeout applies unless
// WithTimeout is also given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		c.httpClient = hc
		if hc.Timeout > 0 && !c.timeoutSet {
			c.timeout = hc.Timeout
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
			c.timeoutSet = true
		}
	}
}

// WithAuthURL sets the base URL of the login service.
func WithAuthURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.authURL = trimURL(u)
		}
	}
}

// WithEntitlementsURL sets the base URL of the entitlements service.
func WithEntitlementsURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.entitlementsURL = trimURL(u)
		}
	}
}

// WithPDURLTemplate sets the player-data base URL. "{region}" is replaced
// with the requested region.
func WithPDURLTemplate(t string) Option {
	return func(c *Client) {
		if t != "" {
			c.pdURLTemplate = trimURL(t)
		}
	}
}

// WithMatchCount sets how many recent updates are requested.
func WithMatchCount(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.matchCount = n
		}
	}
}

// WithRetries sets the retry budget and the linear backoff step for
// transient failures.
func WithRetries(maxRetries int, step time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if step > 0 {
			c.retryStep = step
		}
	}
}

// WithBreaker configures the circuit breaker around the history fetch.
func WithBreaker(consecutiveFailures int, openTimeout time.Duration) Option {
	return func(c *Client) {
		if consecutiveFailures > 0 {
			c.breakerFailures = consecutiveFailures
		}
		if openTimeout > 0 {
			c.breakerTimeout = openTimeout
		}
	}
}

// WithRegions replaces the set of accepted regions.
func WithRegions(regions ...string) Option {
	return func(c *Client) {
		if len(regions) == 0 {
			return
		}
		c.regions = make(map[string]struct{}, len(regions))
		for _, r := range regions {
			c.regions[r] = struct{}{}
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
