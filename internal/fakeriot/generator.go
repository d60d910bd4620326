package fakeriot

import (
	"hash/fnv"
	"maps"
	"slices"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/okian/rrtrack/internal/domain/lookup"
	"github.com/okian/rrtrack/internal/domain/model"
)

// Progress and tier bounds for generated histories.
const (
	tierSpan    = 100
	minTier     = 3
	maxTier     = 24
	maxGain     = 30
	maxLoss     = 25
	minorStep   = 10
	regularStep = 20
	minGapHours = 2
	maxGapHours = 40
)

// mapIDs are the known map identifiers, sorted so a seed always picks the
// same sequence.
var mapIDs = slices.Sorted(maps.Keys(lookup.Maps()))

// Generator produces plausible competitive histories. Output is fully
// determined by the seed, the account subject, and the reference time.
type Generator struct {
	seed         uint64
	count        int
	unknownEvery int
	now          func() time.Time
}

// NewGenerator creates a Generator from cfg.
func NewGenerator(cfg Config) *Generator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		seed:         cfg.Seed,
		count:        cfg.MatchCount,
		unknownEvery: cfg.UnknownEvery,
		now:          now,
	}
}

// History returns up to limit updates for subject, newest first.
func (g *Generator) History(subject string, limit int) []model.RawMatchEvent {
	n := g.count
	if limit >= 0 && limit < n {
		n = limit
	}
	f := gofakeit.New(g.seed ^ hash(subject))

	tier := f.IntRange(minTier+2, maxTier-2)
	progress := f.IntRange(0, tierSpan-1)
	start := g.now().Add(-time.Duration(n*maxGapHours) * time.Hour)

	// Generated oldest first, then reversed to match upstream ordering.
	out := make([]model.RawMatchEvent, n)
	for i := 0; i < n; i++ {
		start = start.Add(time.Duration(f.IntRange(minGapHours, maxGapHours)) * time.Hour)
		ev := model.RawMatchEvent{
			MatchID:        f.UUID(),
			MapID:          f.RandomString(mapIDs),
			MatchStartTime: start.UnixMilli(),
		}
		if g.unknownEvery > 0 && (i+1)%g.unknownEvery == 0 {
			ev.CompetitiveMovement = model.MovementUnknown
			out[n-1-i] = ev
			continue
		}

		before := progress
		delta := f.IntRange(-maxLoss, maxGain)
		after := before + delta
		move := classify(delta)
		switch {
		case after >= tierSpan && tier < maxTier:
			tier++
			after -= tierSpan
			move = model.MovementPromoted
		case after >= tierSpan:
			after = tierSpan - 1
		case after < 0 && tier > minTier:
			tier--
			after += tierSpan
			move = model.MovementDemoted
		case after < 0:
			after = 0
		}
		progress = after

		ev.CompetitiveMovement = move
		ev.TierAfterUpdate = tier
		ev.TierProgressBeforeUpdate = before
		ev.TierProgressAfterUpdate = after
		out[n-1-i] = ev
	}
	return out
}

func classify(delta int) model.Movement {
	switch {
	case delta == 0:
		return model.MovementStable
	case delta > regularStep:
		return model.MovementMajorIncrease
	case delta > minorStep:
		return model.MovementIncrease
	case delta > 0:
		return model.MovementMinorIncrease
	case delta < -regularStep:
		return model.MovementMajorDecrease
	case delta < -minorStep:
		return model.MovementDecrease
	default:
		return model.MovementMinorDecrease
	}
}

func hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
