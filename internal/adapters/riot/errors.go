package riot

import "errors"

// Sentinel kinds for game service errors.
var (
	ErrInvalidCredentials = errors.New("credentials rejected")
	ErrUnsupportedRegion  = errors.New("unsupported region")
	ErrMissingToken       = errors.New("token missing from response")
	ErrUnexpectedStatus   = errors.New("unexpected upstream status")

	errTransient = errors.New("transient upstream failure")
)
