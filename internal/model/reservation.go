package model

import "time"

// Status is the lifecycle state of a reservation. A reservation is created
// CONFIRMED and may move to CHECKED_IN (redeemed at the door) or CANCELLED;
// both of those are terminal.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCheckedIn Status = "CHECKED_IN"
	StatusCancelled Status = "CANCELLED"
)

// CanTransition reports whether a reservation may move from s to next.
// The only legal moves are CONFIRMED→CHECKED_IN and CONFIRMED→CANCELLED.
// The memory store's guard calls this directly; the MySQL store's
// `WHERE status = ?` update is its SQL rendition.
func (s Status) CanTransition(next Status) bool {
	return s == StatusConfirmed && (next == StatusCheckedIn || next == StatusCancelled)
}

// Reservation is the durable record of a successful booking. The code,
// identity fields and tier are immutable after creation; Status is the only
// post-creation mutation and UpdatedAt tracks it.
//
// Fields:
//  ID        – internal UUID, stable across the record's lifetime.
//  FirstName – holder's first name.
//  LastName  – holder's last name.
//  BirthDate – holder's date of birth (date precision, UTC midnight).
//  Email     – unique among non-cancelled reservations.
//  TierID    – catalog tier the seat was taken from.
//  Code      – confirmation code, canonical upper case, unique forever
//              (never recycled, even after cancellation).
//  Status    – lifecycle state, see Status.
//  CreatedAt – creation timestamp (UTC).
//  UpdatedAt – last status change (UTC).
type Reservation struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate time.Time `json:"birth_date"`
	Email     string    `json:"email"`
	TierID    string    `json:"tier"`
	Code      string    `json:"confirmation_code"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
