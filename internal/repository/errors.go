// Package repository implements the two pieces of durable shared state:
// the capacity ledger (remaining seats per tier) and the reservation store.
// Both come in a MySQL and an in-memory variant behind the same behavior;
// the sentinel errors below are how higher layers distinguish failure
// scenarios without knowing which variant is wired.
package repository

import "errors"

// ErrNotFound is returned when no reservation matches the given code or
// email.
var ErrNotFound = errors.New("reservation not found")

// ErrCodeTaken is returned by Insert when the confirmation code already
// exists. The allocator treats this as a generation collision and retries
// with a fresh code.
var ErrCodeTaken = errors.New("confirmation code already exists")

// ErrEmailTaken is returned by Insert when a non-cancelled reservation
// already owns the email. The unique index is the source of truth; the
// allocator's pre-check is only an optimization.
var ErrEmailTaken = errors.New("email already has an active reservation")

// ErrInvalidTransition is returned by Transition when the reservation
// exists but its current status does not equal the expected "from" state.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnknownTier is returned by ledger operations for a tier ID that has
// no capacity row.
var ErrUnknownTier = errors.New("unknown tier")
