package database

import (
	"context"
	"database/sql"

	"github.com/underclub/event-ticket-reservation/internal/model"
)

// The capacity table is the ledger: one row per sellable tier, mutated
// only by the atomic decrement/increment statements in the repository.
const createCapacityTableSQL = `
CREATE TABLE IF NOT EXISTS capacity (
    tier_id      VARCHAR(32) NOT NULL PRIMARY KEY,
    remaining    INT UNSIGNED NOT NULL,
    max_capacity INT UNSIGNED NOT NULL
)`

// email_active is 1 while a reservation is non-cancelled and NULL once
// cancelled; the composite unique key (email, email_active) is how MySQL
// expresses "unique among non-cancelled rows". Codes are never recycled,
// so their unique key has no such qualifier.
const createReservationsTableSQL = `
CREATE TABLE IF NOT EXISTS reservations (
    id           CHAR(36)     NOT NULL PRIMARY KEY,
    first_name   VARCHAR(100) NOT NULL,
    last_name    VARCHAR(100) NOT NULL,
    birth_date   DATE         NOT NULL,
    email        VARCHAR(255) NOT NULL,
    tier_id      VARCHAR(32)  NOT NULL,
    code         VARCHAR(32)  NOT NULL,
    status       ENUM('CONFIRMED','CHECKED_IN','CANCELLED') NOT NULL DEFAULT 'CONFIRMED',
    email_active TINYINT NULL DEFAULT 1,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_reservations_code (code),
    UNIQUE KEY uq_reservations_email_active (email, email_active),
    KEY idx_reservations_email (email)
)`

// EnsureSchema creates the two tables when missing and seeds one capacity
// row per catalog tier. Seeding uses INSERT IGNORE so restarting the
// process never resets a ledger that has already sold seats.
func EnsureSchema(ctx context.Context, db *sql.DB, catalog *model.Catalog) error {
	for _, stmt := range []string{createCapacityTableSQL, createReservationsTableSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	const seed = `INSERT IGNORE INTO capacity (tier_id, remaining, max_capacity) VALUES (?, ?, ?)`
	for _, t := range catalog.All() {
		if _, err := db.ExecContext(ctx, seed, t.ID, t.MaxCapacity, t.MaxCapacity); err != nil {
			return err
		}
	}
	return nil
}
