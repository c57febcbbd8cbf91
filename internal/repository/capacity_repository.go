package repository

import (
	"context"
	"database/sql"
)

// CapacityRepo is the MySQL-backed capacity ledger. One row per tier holds
// the remaining seat count; all mutation happens through single atomic
// UPDATE statements so two callers contending for the last seat can never
// both observe remaining > 0 and both commit a decrement.
type CapacityRepo struct {
	db *sql.DB
}

// NewCapacityRepo returns a CapacityRepo bound to the given database.
func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{db: db} }

// TryReserve atomically decrements the tier's remaining count when it is
// still positive. It returns (true, nil) when a seat was taken and
// (false, nil) when the tier is exhausted; the check and the decrement are
// one statement, so the result is linearizable with respect to concurrent
// callers.
func (r *CapacityRepo) TryReserve(ctx context.Context, tierID string) (bool, error) {
	const q = `UPDATE capacity SET remaining = remaining - 1 WHERE tier_id = ? AND remaining > 0`
	res, err := r.db.ExecContext(ctx, q, tierID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	// Zero rows means either sold out or a tier that was never seeded;
	// distinguish so callers do not report "sold out" for a typo.
	var remaining int
	err = r.db.QueryRowContext(ctx, `SELECT remaining FROM capacity WHERE tier_id = ?`, tierID).Scan(&remaining)
	if err == sql.ErrNoRows {
		return false, ErrUnknownTier
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Release atomically returns one seat to the tier, capped at the tier's
// maximum capacity. It is used when a reservation is cancelled and as the
// compensating step when an allocation fails after the decrement.
func (r *CapacityRepo) Release(ctx context.Context, tierID string) error {
	const q = `UPDATE capacity SET remaining = LEAST(remaining + 1, max_capacity) WHERE tier_id = ?`
	res, err := r.db.ExecContext(ctx, q, tierID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows both for a missing tier and
		// for a no-op update (already at capacity); only the former is
		// an error.
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM capacity WHERE tier_id = ?`, tierID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrUnknownTier
		}
		return err
	}
	return nil
}

// Remaining returns the current remaining count for a tier.
func (r *CapacityRepo) Remaining(ctx context.Context, tierID string) (int, error) {
	var remaining int
	err := r.db.QueryRowContext(ctx, `SELECT remaining FROM capacity WHERE tier_id = ?`, tierID).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, ErrUnknownTier
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// Snapshot returns remaining counts for every tier in the ledger. It is a
// plain committed read used by the availability endpoint; the reserve path
// never bases decisions on it.
func (r *CapacityRepo) Snapshot(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tier_id, remaining FROM capacity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var tierID string
		var remaining int
		if err := rows.Scan(&tierID, &remaining); err != nil {
			return nil, err
		}
		out[tierID] = remaining
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
