// Package history assembles a normalized match history from the raw
// competitive updates of one account.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rrtrack/internal/domain/failure"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const nanosecondsPerMillisecond = 1e6

// Normalizer converts one raw event. The boolean is false for skipped events.
type Normalizer interface {
	Normalize(ev model.RawMatchEvent) (model.MatchRecord, bool, error)
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithWorkers bounds how many events are normalized concurrently.
// Values below 2 keep normalization sequential.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// Builder runs a Normalizer over a whole history, all or nothing.
type Builder struct {
	normalizer Normalizer
	workers    int
}

// NewBuilder creates a Builder around n.
func NewBuilder(n Normalizer, opts ...Option) *Builder {
	b := &Builder{normalizer: n, workers: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// slot holds the result for one input position.
type slot struct {
	rec  model.MatchRecord
	keep bool
}

// Build normalizes events in order. Skipped events are omitted; any failure
// discards the whole batch and is returned as a normalization failure.
func (b *Builder) Build(ctx context.Context, events []model.RawMatchEvent) ([]model.MatchRecord, error) {
	const op = "history.build"
	start := time.Now()
	metrics.RecordHistorySize(len(events))

	slots := make([]slot, len(events))
	var err error
	if b.workers > 1 && len(events) > 1 {
		err = b.parallel(ctx, events, slots)
	} else {
		err = b.sequential(ctx, events, slots)
	}
	if err != nil {
		return nil, failure.Wrap(op, failure.ErrNormalization, err)
	}

	out := make([]model.MatchRecord, 0, len(events))
	for _, s := range slots {
		if s.keep {
			out = append(out, s.rec)
		}
	}

	metrics.RecordMatchesNormalized(len(out))
	metrics.RecordMatchesSkipped(len(events) - len(out))
	metrics.RecordNormalizeLatency(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
	return out, nil
}

func (b *Builder) sequential(ctx context.Context, events []model.RawMatchEvent, slots []slot) error {
	for i := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.normalizeAt(events, slots, i); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) parallel(ctx context.Context, events []model.RawMatchEvent, slots []slot) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return b.normalizeAt(events, slots, i)
		})
	}
	return g.Wait()
}

// normalizeAt writes only slots[i], so concurrent calls never share memory.
func (b *Builder) normalizeAt(events []model.RawMatchEvent, slots []slot, i int) error {
	rec, keep, err := b.normalizer.Normalize(events[i])
	if err != nil {
		return fmt.Errorf("match %d: %w", i, err)
	}
	slots[i] = slot{rec: rec, keep: keep}
	return nil
}
