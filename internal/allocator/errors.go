package allocator

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the allocator. Handlers distinguish them
// with errors.Is and translate them into stable machine-readable response
// tags. None of these leaves the capacity ledger decremented without a
// matching committed reservation.

// ErrNotBookableOnline is returned for tiers that exist only for
// at-the-door purchase.
var ErrNotBookableOnline = errors.New("tier is not bookable online")

// ErrDeadlinePassed is returned once the booking window has closed.
var ErrDeadlinePassed = errors.New("booking deadline has passed")

// ErrSoldOut is returned when the tier had no seat left at the moment of
// the atomic attempt. No code is consumed and no side effect remains.
var ErrSoldOut = errors.New("tier is sold out")

// ErrDuplicateEmail is returned when a non-cancelled reservation already
// owns the requested email.
var ErrDuplicateEmail = errors.New("email already has an active reservation")

// ErrCodeGenerationFailed is returned after the bounded code regeneration
// loop is exhausted. Statistically near-impossible; logged as an
// operational anomaly and surfaced as a generic transient failure.
var ErrCodeGenerationFailed = errors.New("could not generate a unique confirmation code")

// ErrNotFound is returned by lookups when no reservation matches.
var ErrNotFound = errors.New("reservation not found")

// ErrInvalidTransition is returned when a status change is attempted from
// a state other than the expected one.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStorageUnavailable marks an infrastructure failure in the ledger or
// the store. The request itself was well-formed and may be retried; no
// partial state is left behind (any ledger decrement has already been
// compensated by the time this is returned).
var ErrStorageUnavailable = errors.New("storage unavailable")

// storageErr tags a ledger/store failure as retryable while keeping the
// component and cause in the message.
func storageErr(component string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, component, cause)
}

// ValidationError describes a single rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors aggregates every field failure of a request so the
// caller can render them field-by-field. Validation always happens before
// the atomic unit; a request that fails it has no side effects at all.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
