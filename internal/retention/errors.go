package retention

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPolicy wraps every policy validation failure.
	ErrInvalidPolicy = errors.New("invalid retention policy")

	// ErrNoRules is returned when no rule is configured and the policy is
	// RejectNoRules.
	ErrNoRules = errors.New("no retention rules specified")
)

// IntegrityError signals that the keep/prune partition does not cover the
// candidate set exactly once. It is an engine bug, never a user error.
type IntegrityError struct {
	Candidates int
	Keep       int
	Prune      int
	Unkept     int
	Detail     string
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("integrity check failed: candidates=%d keep=%d prune=%d unkept=%d",
		e.Candidates, e.Keep, e.Prune, e.Unkept)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
