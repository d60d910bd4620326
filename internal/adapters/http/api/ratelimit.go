package api

import (
	"sync"
	"time"

	"github.com/okian/rrtrack/pkg/metrics"
)

// Pruning thresholds for idle client entries.
const (
	defaultCleanupThreshold = 10000
	defaultMaxIdle          = time.Hour
)

// Window is one rate limit: at most Limit requests per Per.
type Window struct {
	Limit int
	Per   time.Duration
}

// DefaultWindows are the per-client limits applied when none are configured.
var DefaultWindows = []Window{
	{Limit: 30, Per: time.Hour},
	{Limit: 15, Per: time.Minute},
	{Limit: 2, Per: time.Second},
}

// windowCount is one client's usage of one window. The window opens at the
// first admitted request and lasts Per.
type windowCount struct {
	start time.Time
	count int
}

type clientEntry struct {
	counts   []windowCount
	lastSeen time.Time
}

// ClientRateLimiter limits requests per client address across several fixed
// windows at once. A request is admitted only if every window still has
// room, and a rejected request is not counted in any window.
type ClientRateLimiter struct {
	mu               sync.Mutex
	clients          map[string]*clientEntry
	windows          []Window
	maxIdle          time.Duration
	cleanupThreshold int
	now              func() time.Time
}

// LimiterOption configures a ClientRateLimiter.
type LimiterOption func(*ClientRateLimiter)

// WithClock sets the time source.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *ClientRateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMaxIdle sets how long a client may stay idle before it is pruned.
func WithMaxIdle(d time.Duration) LimiterOption {
	return func(l *ClientRateLimiter) {
		if d > 0 {
			l.maxIdle = d
		}
	}
}

// NewClientRateLimiter creates a limiter enforcing windows. Windows with a
// non-positive limit or period are ignored.
func NewClientRateLimiter(windows []Window, opts ...LimiterOption) *ClientRateLimiter {
	valid := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Limit > 0 && w.Per > 0 {
			valid = append(valid, w)
		}
	}
	l := &ClientRateLimiter{
		clients:          make(map[string]*clientEntry),
		windows:          valid,
		maxIdle:          defaultMaxIdle,
		cleanupThreshold: defaultCleanupThreshold,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether client may make a request now, counting it in every
// window when it may.
func (l *ClientRateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) > l.cleanupThreshold {
		l.pruneLocked(now)
	}

	e, ok := l.clients[client]
	if !ok {
		e = &clientEntry{counts: make([]windowCount, len(l.windows))}
		l.clients[client] = e
		metrics.UpdateTrackedClients(len(l.clients))
	}
	e.lastSeen = now

	for i, w := range l.windows {
		c := &e.counts[i]
		if c.count > 0 && !now.Before(c.start.Add(w.Per)) {
			*c = windowCount{}
		}
		if c.count >= w.Limit {
			return false
		}
	}
	for i := range e.counts {
		c := &e.counts[i]
		if c.count == 0 {
			c.start = now
		}
		c.count++
	}
	return true
}

// Prune drops clients idle for longer than the idle limit.
func (l *ClientRateLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
}

// Len returns the number of tracked clients.
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *ClientRateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxIdle)
	for k, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, k)
		}
	}
	metrics.UpdateTrackedClients(len(l.clients))
}
