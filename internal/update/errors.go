package update

import (
	"fmt"

	"github.com/specialistvlad/stategrid/internal/nodeid"
)

// Reason classifies a rejected update.
type Reason int

const (
	// NoInverse: the target is derived and cannot be written through.
	NoInverse Reason = iota
	// Declined: an inverse definition rejected the desired value.
	Declined
	// Downstream: an instruction further down the recursion failed.
	Downstream
	// NotFound: the target does not exist.
	NotFound
)

func (r Reason) String() string {
	switch r {
	case NoInverse:
		return "no_inverse"
	case Declined:
		return "declined"
	case Downstream:
		return "downstream"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// RejectedError is returned when an update cannot be satisfied. Nothing the
// update wrote is visible afterwards unless it was requested non-atomic.
type RejectedError struct {
	Target nodeid.Key
	Reason Reason
	Err    error
}

func (e *RejectedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("update of %s rejected (%s)", e.Target, e.Reason)
	}
	return fmt.Sprintf("update of %s rejected (%s): %v", e.Target, e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}
