// Package failure defines the error kinds that cross layer boundaries and
// the user-facing messages rendered for them.
package failure

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Callers match them with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failure")
	ErrFetch          = errors.New("fetch failure")
	ErrNormalization  = errors.New("normalization failure")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// User-facing messages.
const (
	MessageLogin     = "Login Error"
	MessageMatches   = "Cannot get matches"
	MessageRateLimit = "Rate limit exceeded"
)

// Error tags an underlying error with an operation and a kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with op and kind. A nil err yields nil.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// New returns an error of the given kind with no underlying cause.
func New(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

var kinds = []error{ErrAuthentication, ErrFetch, ErrNormalization, ErrRateLimited}

// KindOf returns the outermost kind carried by err, or nil.
func KindOf(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message renders the user-facing message for err. Fetch and normalization
// failures share a message; anything unclassified does too.
func Message(err error) string {
	switch KindOf(err) {
	case ErrAuthentication:
		return MessageLogin
	case ErrRateLimited:
		return MessageRateLimit
	default:
		return MessageMatches
	}
}

// Label returns a low-cardinality label for metrics and logs.
func Label(err error) string {
	switch KindOf(err) {
	case ErrAuthentication:
		return "authentication"
	case ErrFetch:
		return "fetch"
	case ErrNormalization:
		return "normalization"
	case ErrRateLimited:
		return "rate_limit"
	default:
		return "internal"
	}
}
