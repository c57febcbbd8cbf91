// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published after a reservation has been
// committed. It carries enough information for downstream consumers
// (door list, notification mail, analytics) without querying the primary
// database. Publishing is best-effort: the reservation is already durable
// when this event is emitted.
type ReservationConfirmedEvent struct {
	ReservationID string `json:"reservation_id"`
	Code          string `json:"confirmation_code"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Tier          string `json:"tier"`
	TierLabel     string `json:"tier_label"`
	EventName     string `json:"event_name"`
	ConfirmedAt   string `json:"confirmed_at"`
}
