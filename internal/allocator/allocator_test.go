package allocator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/underclub/event-ticket-reservation/internal/model"
	"github.com/underclub/event-ticket-reservation/internal/repository"
)

func testCatalog() *model.Catalog {
	return model.NewCatalog(
		model.Tier{ID: "tranche1", Label: "10€ + 1 drink", PriceCents: 1000, MaxCapacity: 2, OnlineBookable: true},
		model.Tier{ID: "tranche2", Label: "15€ + 1 drink", PriceCents: 1500, MaxCapacity: 150, OnlineBookable: true},
		model.Tier{ID: "tranche3", Label: "20€ + 1 drink (solo cassa)", PriceCents: 2000, MaxCapacity: 0, OnlineBookable: false},
	)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAllocator(catalog *model.Catalog) (*Allocator, *repository.MemoryLedger, *repository.MemoryStore) {
	ledger := repository.NewMemoryLedger(catalog)
	store := repository.NewMemoryStore()
	deadline := time.Now().UTC().Add(24 * time.Hour)
	a := New(catalog, deadline, ledger, store, NewCodeGenerator("TECH"), quietLogger())
	return a, ledger, store
}

func validRequest(email string) ReserveRequest {
	return ReserveRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: "1990-03-14",
		Email:     email,
		TierID:    "tranche1",
	}
}

func TestReserveSuccess(t *testing.T) {
	ctx := context.Background()
	a, ledger, _ := newTestAllocator(testCatalog())

	res, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Ada", res.FirstName)
	assert.Equal(t, "a@x.com", res.Email)
	assert.Equal(t, "tranche1", res.TierID)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	assert.NotEmpty(t, res.Code)
	assert.False(t, res.CreatedAt.IsZero())

	n, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, 1, n)
}

func TestReserveRejectsDoorOnlyTier(t *testing.T) {
	a, _, _ := newTestAllocator(testCatalog())

	req := validRequest("a@x.com")
	req.TierID = "tranche3"
	_, err := a.Reserve(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotBookableOnline)
}

func TestReserveRejectsUnknownTier(t *testing.T) {
	a, _, _ := newTestAllocator(testCatalog())

	req := validRequest("a@x.com")
	req.TierID = "tranche9"
	_, err := a.Reserve(context.Background(), req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "tier", verrs[0].Field)
}

func TestReserveAfterDeadline(t *testing.T) {
	a, ledger, _ := newTestAllocator(testCatalog())
	a.now = func() time.Time { return a.deadline.Add(time.Minute) }

	_, err := a.Reserve(context.Background(), validRequest("a@x.com"))
	assert.ErrorIs(t, err, ErrDeadlinePassed)

	// the deadline check happens before the ledger is touched
	n, _ := ledger.Remaining(context.Background(), "tranche1")
	assert.Equal(t, 2, n)
}

func TestReserveSoldOut(t *testing.T) {
	ctx := context.Background()
	a, ledger, _ := newTestAllocator(testCatalog())

	_, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)
	_, err = a.Reserve(ctx, validRequest("b@x.com"))
	require.NoError(t, err)

	_, err = a.Reserve(ctx, validRequest("c@x.com"))
	assert.ErrorIs(t, err, ErrSoldOut)

	n, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, 0, n)
}

func TestReserveDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	a, ledger, _ := newTestAllocator(testCatalog())

	_, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)

	// same identity, different case and padding
	req := validRequest(" A@X.COM ")
	_, err = a.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// the failed attempt released its seat
	n, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, 1, n)
}

func TestReserveEmailReusableAfterCancel(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAllocator(testCatalog())

	first, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)
	_, err = a.Cancel(ctx, first.Code)
	require.NoError(t, err)

	second, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code, "codes are never recycled")
}

func TestNoOversellUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	catalog := model.NewCatalog(
		model.Tier{ID: "tranche1", Label: "early", PriceCents: 1000, MaxCapacity: 10, OnlineBookable: true},
	)
	a, ledger, _ := newTestAllocator(catalog)

	const callers = 25 // N=10 seats, K=15 extra
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, soldOut int
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Reserve(ctx, validRequest(fmt.Sprintf("user%d@x.com", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSoldOut):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 15, soldOut)
	n, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, 0, n)
}

func TestCodesUniqueAcrossReservations(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAllocator(testCatalog())

	codes := make(map[string]bool)
	for i := 0; i < 40; i++ {
		req := validRequest(fmt.Sprintf("user%d@x.com", i))
		req.TierID = "tranche2"
		res, err := a.Reserve(ctx, req)
		require.NoError(t, err)
		assert.False(t, codes[res.Code], "duplicate code %s", res.Code)
		codes[res.Code] = true
	}
}

// failingStore wraps a real store and fails Insert on demand, simulating
// a storage fault between the ledger decrement and the commit.
type failingStore struct {
	*repository.MemoryStore
	failInsert bool
}

func (s *failingStore) Insert(ctx context.Context, r *model.Reservation) error {
	if s.failInsert {
		return errors.New("storage unavailable")
	}
	return s.MemoryStore.Insert(ctx, r)
}

func TestLedgerRestoredWhenInsertFails(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	ledger := repository.NewMemoryLedger(catalog)
	store := &failingStore{MemoryStore: repository.NewMemoryStore(), failInsert: true}
	a := New(catalog, time.Now().UTC().Add(time.Hour), ledger, store, NewCodeGenerator("TECH"), quietLogger())

	baseline, _ := ledger.Remaining(ctx, "tranche1")
	_, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSoldOut)
	// an infrastructure fault reads as retryable, not as a user error
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	// no phantom hold: decrement was compensated before Reserve returned
	after, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, baseline, after)

	// and the same allocator works once storage recovers
	store.failInsert = false
	_, err = a.Reserve(ctx, validRequest("a@x.com"))
	assert.NoError(t, err)
}

// staticCodes always yields the same sequence, letting tests force code
// collisions deterministically.
type staticCodes struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func (s *staticCodes) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.codes[s.i]
	if s.i < len(s.codes)-1 {
		s.i++
	}
	return c, nil
}

func TestCodeCollisionRetries(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	ledger := repository.NewMemoryLedger(catalog)
	store := repository.NewMemoryStore()
	codes := &staticCodes{codes: []string{"TECHSAME01", "TECHSAME01", "TECHFRESH2"}}
	a := New(catalog, time.Now().UTC().Add(time.Hour), ledger, store, codes, quietLogger())

	first, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "TECHSAME01", first.Code)

	// second reservation collides once, then succeeds with a fresh code
	second, err := a.Reserve(ctx, validRequest("b@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "TECHFRESH2", second.Code)
}

func TestCodeGenerationExhaustionReleasesSeat(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	ledger := repository.NewMemoryLedger(catalog)
	store := repository.NewMemoryStore()
	codes := &staticCodes{codes: []string{"TECHSAME01"}}
	a := New(catalog, time.Now().UTC().Add(time.Hour), ledger, store, codes, quietLogger())

	_, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)

	baseline, _ := ledger.Remaining(ctx, "tranche1")
	_, err = a.Reserve(ctx, validRequest("b@x.com"))
	assert.ErrorIs(t, err, ErrCodeGenerationFailed)

	after, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, baseline, after)
}

func TestLookupConsistencyAfterReserve(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAllocator(testCatalog())

	res, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)

	got, err := a.GetByCode(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, res.Email, got.Email)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	// lookup is case-insensitive
	got, err = a.GetByCode(ctx, "  "+strings.ToLower(res.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, res.Code, got.Code)

	got, err = a.GetByEmail(ctx, "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, res.Code, got.Code)

	_, err = a.GetByCode(ctx, "TECHMISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckInTransitionGuard(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAllocator(testCatalog())

	res, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)

	checked, err := a.CheckIn(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedIn, checked.Status)

	_, err = a.CheckIn(ctx, res.Code)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// checked-in reservations cannot be cancelled either
	_, err = a.Cancel(ctx, res.Code)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = a.CheckIn(ctx, "TECHMISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelReleasesSeatScenario(t *testing.T) {
	// The tranche1 walk-through: capacity 2, A and B succeed, C is sold
	// out, cancelling A frees exactly one seat for D.
	ctx := context.Background()
	a, ledger, _ := newTestAllocator(testCatalog())

	resA, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)
	_, err = a.Reserve(ctx, validRequest("b@x.com"))
	require.NoError(t, err)
	_, err = a.Reserve(ctx, validRequest("c@x.com"))
	require.ErrorIs(t, err, ErrSoldOut)

	cancelled, err := a.Cancel(ctx, resA.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	_, err = a.Reserve(ctx, validRequest("d@x.com"))
	require.NoError(t, err)

	n, _ := ledger.Remaining(ctx, "tranche1")
	assert.Equal(t, 0, n)

	// cancelled reservations stay addressable by code but not by email
	got, err := a.GetByCode(ctx, resA.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	got, err = a.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, resA.Code, got.Code, "email lookup must return the new active reservation")
}

func TestAvailabilityListsOnlineTiersOnly(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAllocator(testCatalog())

	_, err := a.Reserve(ctx, validRequest("a@x.com"))
	require.NoError(t, err)

	avail, err := a.Availability(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 2, "door-only tranche3 must not be listed")

	assert.Equal(t, "tranche1", avail[0].TierID)
	assert.Equal(t, 1, avail[0].Remaining)
	assert.False(t, avail[0].SoldOut)
	assert.Equal(t, "tranche2", avail[1].TierID)
	assert.Equal(t, 150, avail[1].Remaining)
}
