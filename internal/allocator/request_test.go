package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(err error) map[string]string {
	var verrs ValidationErrors
	if !assertAs(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, v := range verrs {
		out[v.Field] = v.Message
	}
	return out
}

func assertAs(err error, target *ValidationErrors) bool {
	v, ok := err.(ValidationErrors)
	if !ok {
		return false
	}
	*target = v
	return true
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	req := ReserveRequest{
		FirstName: "  Ada ",
		LastName:  "Lovelace",
		BirthDate: "1990-03-14",
		Email:     "Ada@Example.COM",
		TierID:    "tranche1",
	}
	birth, err := req.validate(now)
	require.NoError(t, err)

	assert.Equal(t, "Ada", req.FirstName, "names are trimmed")
	assert.Equal(t, "ada@example.com", req.Email, "email is lowercased")
	assert.Equal(t, time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC), birth)
}

func TestValidateMissingFields(t *testing.T) {
	now := time.Now().UTC()
	req := ReserveRequest{}
	_, err := req.validate(now)
	require.Error(t, err)

	got := fields(err)
	for _, f := range []string{"first_name", "last_name", "birth_date", "email", "tier"} {
		assert.Contains(t, got, f)
	}
}

func TestValidateRejectsShortNames(t *testing.T) {
	now := time.Now().UTC()
	req := validRequest("a@x.com")
	req.FirstName = "A"
	_, err := req.validate(now)
	require.Error(t, err)
	assert.Contains(t, fields(err), "first_name")
}

func TestValidateRejectsBadEmail(t *testing.T) {
	now := time.Now().UTC()
	req := validRequest("not-an-email")
	_, err := req.validate(now)
	require.Error(t, err)
	assert.Contains(t, fields(err), "email")
}

func TestValidateRejectsBadDateFormat(t *testing.T) {
	now := time.Now().UTC()
	req := validRequest("a@x.com")
	req.BirthDate = "14/03/1990"
	_, err := req.validate(now)
	require.Error(t, err)
	assert.Contains(t, fields(err), "birth_date")
}

func TestValidateRejectsUnderage(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

	req := validRequest("a@x.com")
	req.BirthDate = "2008-01-01" // 17 at request time
	_, err := req.validate(now)
	require.Error(t, err)
	assert.Contains(t, fields(err)["birth_date"], "18")

	// exactly 18 today is allowed
	req = validRequest("a@x.com")
	req.BirthDate = "2007-11-01"
	_, err = req.validate(now)
	assert.NoError(t, err)
}

func TestValidateRejectsFutureBirthDate(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	req := validRequest("a@x.com")
	req.BirthDate = "2026-01-01"
	_, err := req.validate(now)
	require.Error(t, err)
	assert.Equal(t, "cannot be in the future", fields(err)["birth_date"])
}
