// Package fakeriot is a local stand-in for the game service. It speaks the
// login and competitive-update endpoints the riot client uses and serves
// generated match histories.
package fakeriot

import "time"

// RejectedPassword is always refused at login.
const RejectedPassword = "bad"

// Config holds configuration for the fake service.
type Config struct {
	Seed         uint64            // generator seed
	MatchCount   int               // updates per account before endIndex is applied
	UnknownEvery int               // every Nth update is MOVEMENT_UNKNOWN; 0 disables
	Accounts     map[string]string // username -> password; empty accepts any password but RejectedPassword
	Now          func() time.Time  // reference time for generated start times
	FailFetches  int               // first N competitive-update requests return 503
}

// DefaultConfig returns the configuration used by cmd/fake-riot.
func DefaultConfig() Config {
	return Config{
		Seed:         42,
		MatchCount:   20,
		UnknownEvery: 7,
	}
}
