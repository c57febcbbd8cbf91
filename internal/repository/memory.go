package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/underclub/event-ticket-reservation/internal/model"
)

// MemoryLedger is the in-memory capacity ledger used by tests and by the
// STORE_DRIVER=memory development mode. A single mutex covers every
// operation, which makes TryReserve/Release linearizable the same way the
// MySQL single-statement updates are.
type MemoryLedger struct {
	mu        sync.Mutex
	remaining map[string]int
	max       map[string]int
}

// NewMemoryLedger seeds one entry per catalog tier at full capacity.
func NewMemoryLedger(catalog *model.Catalog) *MemoryLedger {
	l := &MemoryLedger{
		remaining: make(map[string]int),
		max:       make(map[string]int),
	}
	for _, t := range catalog.All() {
		l.remaining[t.ID] = t.MaxCapacity
		l.max[t.ID] = t.MaxCapacity
	}
	return l
}

// TryReserve checks and decrements under one lock acquisition.
func (l *MemoryLedger) TryReserve(_ context.Context, tierID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.remaining[tierID]
	if !ok {
		return false, ErrUnknownTier
	}
	if n <= 0 {
		return false, nil
	}
	l.remaining[tierID] = n - 1
	return true, nil
}

// Release returns one seat, capped at the tier's maximum capacity.
func (l *MemoryLedger) Release(_ context.Context, tierID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.remaining[tierID]
	if !ok {
		return ErrUnknownTier
	}
	if n < l.max[tierID] {
		l.remaining[tierID] = n + 1
	}
	return nil
}

// Remaining returns the current remaining count for a tier.
func (l *MemoryLedger) Remaining(_ context.Context, tierID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.remaining[tierID]
	if !ok {
		return 0, ErrUnknownTier
	}
	return n, nil
}

// Snapshot returns a copy of all remaining counts.
func (l *MemoryLedger) Snapshot(_ context.Context) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.remaining))
	for k, v := range l.remaining {
		out[k] = v
	}
	return out, nil
}

// MemoryStore is the in-memory reservation store. It enforces the same
// two uniqueness constraints as the MySQL store: codes are unique forever
// and an email owns at most one non-cancelled reservation. Insert and
// Transition hold the mutex for their full duration, so the
// check-and-insert is as atomic as a unique index violation.
type MemoryStore struct {
	mu     sync.Mutex
	byCode map[string]*model.Reservation
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byCode: make(map[string]*model.Reservation)}
}

// Insert rejects duplicate codes with ErrCodeTaken and duplicate active
// emails with ErrEmailTaken; on success it stamps status and timestamps
// on the passed record.
func (s *MemoryStore) Insert(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[res.Code]; ok {
		return ErrCodeTaken
	}
	email := strings.ToLower(res.Email)
	for _, existing := range s.byCode {
		if strings.ToLower(existing.Email) == email && existing.Status != model.StatusCancelled {
			return ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	res.Status = model.StatusConfirmed
	res.CreatedAt = now
	res.UpdatedAt = now
	stored := *res
	s.byCode[res.Code] = &stored
	return nil
}

// GetByCode returns a copy of the reservation with the given code.
func (s *MemoryStore) GetByCode(_ context.Context, code string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	out := *res
	return &out, nil
}

// GetActiveByEmail returns the non-cancelled reservation for the email.
func (s *MemoryStore) GetActiveByEmail(_ context.Context, email string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, res := range s.byCode {
		if strings.ToLower(res.Email) == email && res.Status != model.StatusCancelled {
			out := *res
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Transition applies a guarded status change, mirroring the MySQL
// UPDATE ... WHERE status = ? semantics.
func (s *MemoryStore) Transition(_ context.Context, code string, from, to model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.byCode[code]
	if !ok {
		return ErrNotFound
	}
	if res.Status != from || !from.CanTransition(to) {
		return ErrInvalidTransition
	}
	res.Status = to
	res.UpdatedAt = time.Now().UTC()
	return nil
}
