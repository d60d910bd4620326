package smoke

import "errors"

// Sentinel kinds for smoke failures.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrBadResponse  = errors.New("unexpected response")
	ErrLookupFailed = errors.New("lookups failed")
)
