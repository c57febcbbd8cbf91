package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/underclub/event-ticket-reservation/internal/model"
)

// ReservationRepo is the MySQL-backed reservation store. It owns the two
// uniqueness constraints the system depends on: confirmation codes are
// unique forever, and an email maps to at most one non-cancelled
// reservation. Both are enforced by unique indexes so a violating insert
// is rejected atomically regardless of what the caller pre-checked.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, first_name, last_name, birth_date, email, tier_id, code, status, created_at, updated_at`

// Insert persists a new reservation with status CONFIRMED. On a duplicate
// key error it reports which constraint tripped: ErrCodeTaken for a code
// collision (the allocator retries with a fresh code) or ErrEmailTaken
// when a non-cancelled reservation already owns the email. The inserted
// row's timestamps are read back into the passed record.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (id, first_name, last_name, birth_date, email, tier_id, code, status, email_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.FirstName, res.LastName, res.BirthDate.UTC().Format("2006-01-02"),
		res.Email, res.TierID, res.Code, string(model.StatusConfirmed),
	)
	if err != nil {
		var my *mysql.MySQLError
		if errors.As(err, &my) && my.Number == 1062 {
			switch {
			case strings.Contains(my.Message, "uq_reservations_code"):
				return ErrCodeTaken
			case strings.Contains(my.Message, "uq_reservations_email_active"):
				return ErrEmailTaken
			}
			// A 1062 on any other index (e.g. PRIMARY) is a caller bug,
			// not a user-facing conflict; surface it raw.
		}
		return err
	}
	const sel = `SELECT status, created_at, updated_at FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, res.ID).Scan(&res.Status, &res.CreatedAt, &res.UpdatedAt)
}

// GetByCode returns the reservation with the given confirmation code.
// Codes are stored in canonical upper case; callers canonicalize before
// lookup. Returns ErrNotFound when no row matches.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, code))
}

// GetActiveByEmail returns the non-cancelled reservation owning the given
// email, or ErrNotFound. By the store's uniqueness invariant at most one
// such row can exist.
func (r *ReservationRepo) GetActiveByEmail(ctx context.Context, email string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE email = ? AND status != 'CANCELLED'`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// Transition performs a guarded status change: the move is checked
// against model.Status.CanTransition, and the update's `WHERE status = ?`
// clause is the SQL rendition of the same guard against concurrent
// writers. Cancelling also clears
// email_active so the email becomes reusable. Zero affected rows means
// either the code does not exist (ErrNotFound) or the guard failed
// (ErrInvalidTransition).
func (r *ReservationRepo) Transition(ctx context.Context, code string, from, to model.Status) error {
	if !from.CanTransition(to) {
		return ErrInvalidTransition
	}
	var res sql.Result
	var err error
	if to == model.StatusCancelled {
		const q = `UPDATE reservations SET status = ?, email_active = NULL WHERE code = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, string(to), code, string(from))
	} else {
		const q = `UPDATE reservations SET status = ? WHERE code = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, string(to), code, string(from))
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE code = ?`, code).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *ReservationRepo) scanOne(row *sql.Row) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	var birth time.Time
	err := row.Scan(&res.ID, &res.FirstName, &res.LastName, &birth, &res.Email,
		&res.TierID, &res.Code, &status, &res.CreatedAt, &res.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	res.BirthDate = birth.UTC()
	res.Status = model.Status(status)
	return &res, nil
}
