// Package smoke drives a running rrtrack instance end to end and checks the
// shape and ordering of what it returns.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Accounts int           // Number of generated accounts to look up
	Workers  int           // Concurrent lookups
	Rate     float64       // Lookups started per second across workers (0 means unpaced)
	Timeout  time.Duration // HTTP request timeout
	Region   string        // Region sent with every lookup
	Seed     uint64        // Seed for generated accounts
	Verbose  bool          // Log every lookup
}

// Record is one match as returned by POST /matches.
type Record struct {
	PointChange  string `json:"point_change"`
	CurrentPoint int    `json:"current_point"`
	GameOutcome  string `json:"game_outcome"`
	Movement     string `json:"movement"`
	Tier         int    `json:"tier"`
	Date         string `json:"date"`
	GameMap      string `json:"game_map"`
}

// Stats holds run statistics.
type Stats struct {
	Lookups     int
	Successful  int
	RateLimited int
	Failed      int
	Records     int
	Duration    time.Duration
}
