package smoke

import (
	"fmt"
	"regexp"
	"time"
)

const dateLayout = "01-02-2006"

var (
	pointChangePattern = regexp.MustCompile(`^[+-]?\d+$`)
	outcomes           = map[string]bool{"Victory": true, "Defeat": true, "Draw": true}
)

// VerifyRecords checks that records are well formed and newest first.
func VerifyRecords(records []Record) error {
	var prev time.Time
	for i, r := range records {
		if !pointChangePattern.MatchString(r.PointChange) {
			return fmt.Errorf("%w: record %d: point_change %q", ErrBadResponse, i, r.PointChange)
		}
		if !outcomes[r.GameOutcome] {
			return fmt.Errorf("%w: record %d: game_outcome %q", ErrBadResponse, i, r.GameOutcome)
		}
		if r.Movement == "" || r.GameMap == "" {
			return fmt.Errorf("%w: record %d: empty movement or map", ErrBadResponse, i)
		}
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return fmt.Errorf("%w: record %d: date %q: %w", ErrBadResponse, i, r.Date, err)
		}
		if i > 0 && d.After(prev) {
			return fmt.Errorf("%w: record %d: %s is newer than the record before it", ErrBadResponse, i, r.Date)
		}
		prev = d
	}
	return nil
}
