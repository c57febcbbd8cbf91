package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransition(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransition(StatusCheckedIn))
	assert.True(t, StatusConfirmed.CanTransition(StatusCancelled))

	// terminal states allow nothing, including going back to confirmed
	for _, s := range []Status{StatusCheckedIn, StatusCancelled} {
		assert.False(t, s.CanTransition(StatusConfirmed), "from %s", s)
		assert.False(t, s.CanTransition(StatusCheckedIn), "from %s", s)
		assert.False(t, s.CanTransition(StatusCancelled), "from %s", s)
	}

	// unknown states can go nowhere
	assert.False(t, Status("PENDING").CanTransition(StatusCheckedIn))
}

func TestCatalogLookups(t *testing.T) {
	c := NewCatalog(
		Tier{ID: "tranche1", Label: "10€ + 1 drink", PriceCents: 1000, MaxCapacity: 50, OnlineBookable: true},
		Tier{ID: "tranche2", Label: "15€ + 1 drink", PriceCents: 1500, MaxCapacity: 150, OnlineBookable: true},
		Tier{ID: "tranche3", Label: "20€ + 1 drink (door only)", PriceCents: 2000, MaxCapacity: 0, OnlineBookable: false},
	)

	got, ok := c.Get("tranche1")
	assert.True(t, ok)
	assert.Equal(t, 50, got.MaxCapacity)

	_, ok = c.Get("tranche9")
	assert.False(t, ok)

	assert.Len(t, c.All(), 3)

	online := c.OnlineBookable()
	assert.Len(t, online, 2)
	assert.Equal(t, "tranche1", online[0].ID)
	assert.Equal(t, "tranche2", online[1].ID)
}
