// Package lookup holds the static tables that translate game-service
// identifiers into display values.
package lookup

import (
	"fmt"

	"github.com/okian/rrtrack/internal/domain/model"
)

// UnknownMap is the display name for matches without a map identifier.
const UnknownMap = "unknown"

// Classification pairs a movement label with the match outcome it implies.
type Classification struct {
	Label   string
	Outcome model.Outcome
}

// maps is keyed by the map asset path reported upstream.
var maps = map[string]string{
	"/Game/Maps/Duality/Duality": "bind",
	"/Game/Maps/Bonsai/Bonsai":   "split",
	"/Game/Maps/Ascent/Ascent":   "ascent",
	"/Game/Maps/Port/Port":       "icebox",
	"/Game/Maps/Triad/Triad":     "haven",
	"":                           UnknownMap,
}

// movements omits model.MovementUnknown; those events are filtered before lookup.
var movements = map[model.Movement]Classification{
	model.MovementIncrease:      {Label: "Increase", Outcome: model.OutcomeVictory},
	model.MovementMinorIncrease: {Label: "Minor Increase", Outcome: model.OutcomeVictory},
	model.MovementMajorIncrease: {Label: "Major Increase", Outcome: model.OutcomeVictory},
	model.MovementDecrease:      {Label: "Decrease", Outcome: model.OutcomeDefeat},
	model.MovementMajorDecrease: {Label: "Major Decrease", Outcome: model.OutcomeDefeat},
	model.MovementMinorDecrease: {Label: "Minor Decrease", Outcome: model.OutcomeDefeat},
	model.MovementPromoted:      {Label: "Promoted", Outcome: model.OutcomeVictory},
	model.MovementDemoted:       {Label: "Demoted", Outcome: model.OutcomeDefeat},
	model.MovementStable:        {Label: "Stable", Outcome: model.OutcomeDraw},
}

// MapName resolves a map identifier to its canonical name.
func MapName(id string) (string, error) {
	name, ok := maps[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMap, id)
	}
	return name, nil
}

// MovementOf resolves a movement code to its label and outcome.
func MovementOf(code model.Movement) (Classification, error) {
	c, ok := movements[code]
	if !ok {
		return Classification{}, fmt.Errorf("%w: %q", ErrUnknownMovement, code)
	}
	return c, nil
}

// Maps returns a copy of the map table.
func Maps() map[string]string {
	out := make(map[string]string, len(maps))
	for k, v := range maps {
		out[k] = v
	}
	return out
}

// Movements returns a copy of the movement table.
func Movements() map[model.Movement]Classification {
	out := make(map[model.Movement]Classification, len(movements))
	for k, v := range movements {
		out[k] = v
	}
	return out
}
