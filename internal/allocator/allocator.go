// Package allocator implements the reservation core: it accepts concurrent
// booking requests against a fixed, shrinking pool of seats per tier,
// guarantees no tier is oversold, mints a unique confirmation code per
// reservation, and never leaves a seat decremented without a committed
// reservation. The capacity ledger and the reservation store are the only
// shared mutable state; all mutation goes through their atomic operations.
package allocator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/underclub/event-ticket-reservation/internal/model"
	"github.com/underclub/event-ticket-reservation/internal/repository"
)

// maxCodeAttempts bounds the code regeneration loop. Five attempts against
// a base-36 timestamp plus six random characters makes exhaustion a
// statistical anomaly worth logging, not handling.
const maxCodeAttempts = 5

// CapacityLedger is the durable record of remaining seats per tier.
// TryReserve must be linearizable: two concurrent callers contending for
// the last seat see exactly one success.
type CapacityLedger interface {
	TryReserve(ctx context.Context, tierID string) (bool, error)
	Release(ctx context.Context, tierID string) error
	Remaining(ctx context.Context, tierID string) (int, error)
	Snapshot(ctx context.Context) (map[string]int, error)
}

// ReservationStore is the durable table of issued reservations. Insert
// enforces code and active-email uniqueness atomically; Transition is a
// guarded status change.
type ReservationStore interface {
	Insert(ctx context.Context, r *model.Reservation) error
	GetByCode(ctx context.Context, code string) (*model.Reservation, error)
	GetActiveByEmail(ctx context.Context, email string) (*model.Reservation, error)
	Transition(ctx context.Context, code string, from, to model.Status) error
}

// CodeSource produces candidate confirmation codes. Implementations may
// collide; the store's unique index is the backstop.
type CodeSource interface {
	Next() (string, error)
}

// Allocator orchestrates reservations over a tier catalog, a capacity
// ledger, a reservation store and a code generator. It is safe for
// arbitrary concurrent use; all contended state lives behind the ledger
// and store atomics.
type Allocator struct {
	catalog  *model.Catalog
	deadline time.Time
	ledger   CapacityLedger
	store    ReservationStore
	codes    CodeSource
	log      *slog.Logger
	now      func() time.Time
}

// New constructs an Allocator. The catalog and deadline are immutable
// configuration loaded at process start. A nil logger falls back to
// slog.Default().
func New(catalog *model.Catalog, deadline time.Time, ledger CapacityLedger, store ReservationStore, codes CodeSource, log *slog.Logger) *Allocator {
	if log == nil {
		log = slog.Default()
	}
	return &Allocator{
		catalog:  catalog,
		deadline: deadline,
		ledger:   ledger,
		store:    store,
		codes:    codes,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Reserve executes the allocation as one unit: validate, take a seat from
// the ledger, verify email exclusivity, mint a code and persist. Every
// failure after the ledger decrement releases the seat before returning,
// so no error path can strand a phantom hold.
func (a *Allocator) Reserve(ctx context.Context, req ReserveRequest) (*model.Reservation, error) {
	now := a.now()
	birth, err := req.validate(now)
	if err != nil {
		return nil, err
	}

	// Tier and deadline are re-validated server-side regardless of what
	// availability the client saw.
	tier, ok := a.catalog.Get(req.TierID)
	if !ok {
		return nil, ValidationErrors{{Field: "tier", Message: "unknown tier"}}
	}
	if !tier.OnlineBookable {
		return nil, ErrNotBookableOnline
	}
	if !now.Before(a.deadline) {
		return nil, ErrDeadlinePassed
	}

	taken, err := a.ledger.TryReserve(ctx, tier.ID)
	if err != nil {
		return nil, storageErr("ledger", err)
	}
	if !taken {
		return nil, ErrSoldOut
	}

	res, err := a.insertWithSeat(ctx, req, birth, tier.ID)
	if err != nil {
		// Compensating release pairs with the decrement above; after this
		// the call has no side effects left.
		if relErr := a.ledger.Release(ctx, tier.ID); relErr != nil {
			a.log.Error("failed to release seat after aborted reservation",
				"tier", tier.ID, "cause", err, "release_error", relErr)
		}
		return nil, err
	}

	a.log.Info("reservation confirmed",
		"code", res.Code, "tier", res.TierID, "email", res.Email)
	return res, nil
}

// insertWithSeat runs the duplicate-email check and the bounded
// code-generation/insert loop. The caller owns the seat already taken
// from the ledger and compensates when an error is returned.
func (a *Allocator) insertWithSeat(ctx context.Context, req ReserveRequest, birth time.Time, tierID string) (*model.Reservation, error) {
	// Pre-check for a friendlier error; the store's unique index is the
	// real enforcement and is still checked on insert.
	if _, err := a.store.GetActiveByEmail(ctx, req.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr("store", err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := a.codes.Next()
		if err != nil {
			return nil, storageErr("code generation", err)
		}
		res := &model.Reservation{
			ID:        uuid.NewString(),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			BirthDate: birth,
			Email:     req.Email,
			TierID:    tierID,
			Code:      code,
		}
		err = a.store.Insert(ctx, res)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, repository.ErrCodeTaken):
			continue
		case errors.Is(err, repository.ErrEmailTaken):
			// Lost the race against a concurrent reservation with the
			// same email; the unique index is the backstop.
			return nil, ErrDuplicateEmail
		default:
			return nil, storageErr("store", err)
		}
	}

	a.log.Error("exhausted confirmation code attempts", "attempts", maxCodeAttempts, "tier", tierID)
	return nil, ErrCodeGenerationFailed
}

// GetByCode returns the reservation for a confirmation code. Matching is
// case-insensitive; the code is canonicalized before lookup.
func (a *Allocator) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	res, err := a.store.GetByCode(ctx, CanonicalCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("store", err)
	}
	return res, nil
}

// GetByEmail returns the non-cancelled reservation owning the email.
func (a *Allocator) GetByEmail(ctx context.Context, email string) (*model.Reservation, error) {
	res, err := a.store.GetActiveByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("store", err)
	}
	return res, nil
}

// TierAvailability is one row of the public availability listing.
type TierAvailability struct {
	TierID     string `json:"tier"`
	Label      string `json:"label"`
	PriceCents uint32 `json:"price_cents"`
	Remaining  int    `json:"remaining"`
	SoldOut    bool   `json:"sold_out"`
}

// Availability reports remaining seats for every online-bookable tier in
// catalog order. It reads committed ledger state; display-layer caching
// on top of it is acceptable, the reserve path never uses it.
func (a *Allocator) Availability(ctx context.Context) ([]TierAvailability, error) {
	snapshot, err := a.ledger.Snapshot(ctx)
	if err != nil {
		return nil, storageErr("ledger", err)
	}
	tiers := a.catalog.OnlineBookable()
	out := make([]TierAvailability, 0, len(tiers))
	for _, t := range tiers {
		remaining := snapshot[t.ID]
		out = append(out, TierAvailability{
			TierID:     t.ID,
			Label:      t.Label,
			PriceCents: t.PriceCents,
			Remaining:  remaining,
			SoldOut:    remaining <= 0,
		})
	}
	return out, nil
}

// CheckIn redeems a confirmed reservation at the door. A reservation can
// be checked in at most once.
func (a *Allocator) CheckIn(ctx context.Context, code string) (*model.Reservation, error) {
	return a.transition(ctx, code, model.StatusCheckedIn)
}

// Cancel voids a confirmed reservation and returns its seat to the
// ledger, making both the seat and the email reusable. The confirmation
// code itself is never recycled.
func (a *Allocator) Cancel(ctx context.Context, code string) (*model.Reservation, error) {
	res, err := a.transition(ctx, code, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := a.ledger.Release(ctx, res.TierID); err != nil {
		// The cancellation is committed; a failed release needs an
		// administrative correction, so make it loud.
		a.log.Error("cancelled reservation but failed to release seat",
			"code", res.Code, "tier", res.TierID, "error", err)
		return nil, storageErr("ledger", err)
	}
	a.log.Info("reservation cancelled", "code", res.Code, "tier", res.TierID)
	return res, nil
}

func (a *Allocator) transition(ctx context.Context, code string, to model.Status) (*model.Reservation, error) {
	canon := CanonicalCode(code)
	err := a.store.Transition(ctx, canon, model.StatusConfirmed, to)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return nil, ErrInvalidTransition
	case err != nil:
		return nil, storageErr("store", err)
	}
	res, err := a.store.GetByCode(ctx, canon)
	if err != nil {
		return nil, storageErr("store", err)
	}
	return res, nil
}
