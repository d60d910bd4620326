// Package normalize turns raw competitive updates into display-ready records.
package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/rrtrack/internal/domain/lookup"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/internal/domain/points"
)

// DateLayout renders dates as MM-DD-YYYY.
const DateLayout = "01-02-2006"

const millisPerSecond = 1000

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLocation sets the zone used to interpret match start times.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithUnknownMapFallback makes unrecognized non-empty map identifiers resolve
// to lookup.UnknownMap instead of failing.
func WithUnknownMapFallback(enabled bool) Option {
	return func(n *Normalizer) {
		n.unknownMapFallback = enabled
	}
}

// Normalizer converts one RawMatchEvent at a time. It holds no mutable state
// and is safe for concurrent use.
type Normalizer struct {
	loc                *time.Location
	unknownMapFallback bool
}

// New creates a Normalizer. Dates default to the process-local zone.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{loc: time.Local}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Location returns the zone used for date formatting.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize converts ev. The boolean is false when the event carries no
// resolved movement and must be left out of the output.
func (n *Normalizer) Normalize(ev model.RawMatchEvent) (model.MatchRecord, bool, error) {
	if ev.CompetitiveMovement == model.MovementUnknown {
		return model.MatchRecord{}, false, nil
	}

	gameMap, err := lookup.MapName(ev.MapID)
	if err != nil {
		if !n.unknownMapFallback || !errors.Is(err, lookup.ErrUnknownMap) {
			return model.MatchRecord{}, false, fmt.Errorf("resolve map: %w", err)
		}
		gameMap = lookup.UnknownMap
	}

	class, err := lookup.MovementOf(ev.CompetitiveMovement)
	if err != nil {
		return model.MatchRecord{}, false, fmt.Errorf("resolve movement: %w", err)
	}

	delta := points.Compute(ev.CompetitiveMovement, ev.TierProgressBeforeUpdate, ev.TierProgressAfterUpdate)

	return model.MatchRecord{
		PointChange:  delta.String(),
		CurrentPoint: ev.TierProgressAfterUpdate,
		GameOutcome:  class.Outcome,
		Movement:     class.Label,
		Tier:         ev.TierAfterUpdate,
		Date:         n.FormatDate(ev.MatchStartTime),
		GameMap:      gameMap,
	}, true, nil
}

// FormatDate renders epoch milliseconds as a calendar date in the
// normalizer's zone. Sub-second precision is floored away.
func (n *Normalizer) FormatDate(startMillis int64) string {
	secs := startMillis / millisPerSecond
	if startMillis%millisPerSecond < 0 {
		secs--
	}
	return time.Unix(secs, 0).In(n.loc).Format(DateLayout)
}
