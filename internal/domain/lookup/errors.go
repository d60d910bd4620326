package lookup

import "errors"

// Sentinel kinds for table misses. A miss means the tables are stale
// relative to the game service.
var (
	ErrUnknownMap      = errors.New("unknown map identifier")
	ErrUnknownMovement = errors.New("unknown competitive movement")
)
