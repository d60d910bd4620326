// Package points computes the signed rating change for a single match.
package points

import (
	"strconv"

	"github.com/okian/rrtrack/internal/domain/model"
)

// tierSpan is the progress range of one tier. Crossing a tier boundary
// wraps progress, so promotions and demotions add it back.
const tierSpan = 100

// Delta is the rating change for one match.
type Delta struct {
	Value int
	text  string
}

// String renders the delta with an explicit sign for gains.
func (d Delta) String() string { return d.text }

// Compute returns the delta for a match given its movement and the
// within-tier progress before and after it. It does not classify the outcome.
func Compute(code model.Movement, before, after int) Delta {
	switch code {
	case model.MovementPromoted:
		gain := after + tierSpan - before
		return Delta{Value: gain, text: "+" + strconv.Itoa(gain)}
	case model.MovementDemoted:
		loss := before + tierSpan - after
		return Delta{Value: -loss, text: "-" + strconv.Itoa(loss)}
	}
	diff := after - before
	if before < after {
		return Delta{Value: diff, text: "+" + strconv.Itoa(diff)}
	}
	return Delta{Value: diff, text: strconv.Itoa(diff)}
}
