package allocator

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReserveRequest carries the booking form input. Field tags cover shape
// validation; the age and future-date rules need the request time and are
// applied in validate().
type ReserveRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	BirthDate string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Email     string `json:"email" validate:"required,email"`
	TierID    string `json:"tier" validate:"required"`
}

// minimumAge is the entry requirement; enforced at booking time, not at
// the event date.
const minimumAge = 18

var validate = validator.New()

// fieldMessages maps validator tags to the user-facing message per field.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be an ISO date (YYYY-MM-DD)"
	}
	return "is invalid"
}

// jsonField returns the json tag name for a struct field of
// ReserveRequest, keeping error payloads aligned with the wire format.
func jsonField(name string) string {
	switch name {
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "BirthDate":
		return "birth_date"
	case "Email":
		return "email"
	case "TierID":
		return "tier"
	}
	return name
}

// normalize trims whitespace and lowercases the email in place. Called
// before validation so "  a@x.com " and "A@X.COM" are the same identity.
func (r *ReserveRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
	r.Email = normalizeEmail(r.Email)
	r.TierID = strings.TrimSpace(r.TierID)
}

// normalizeEmail lowercases and trims an email so lookups and the
// duplicate check share one identity form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validate checks the request against the field rules plus the two date
// rules: the birth date may not lie in the future and must imply an age
// of at least 18 at the time of the request. On success it returns the
// parsed birth date (UTC midnight).
func (r *ReserveRequest) validate(now time.Time) (time.Time, error) {
	r.normalize()

	var verrs ValidationErrors
	if err := validate.Struct(r); err != nil {
		if fes, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fes {
				verrs = append(verrs, ValidationError{Field: jsonField(fe.StructField()), Message: fieldMessage(fe)})
			}
		} else {
			verrs = append(verrs, ValidationError{Field: "request", Message: "is invalid"})
		}
	}

	var birth time.Time
	if r.BirthDate != "" {
		if parsed, err := time.Parse("2006-01-02", r.BirthDate); err == nil {
			birth = parsed.UTC()
			if birth.After(now) {
				verrs = append(verrs, ValidationError{Field: "birth_date", Message: "cannot be in the future"})
			} else if birth.AddDate(minimumAge, 0, 0).After(now) {
				verrs = append(verrs, ValidationError{Field: "birth_date", Message: "you must be at least 18 years old"})
			}
		}
	}

	if len(verrs) > 0 {
		return time.Time{}, verrs
	}
	return birth, nil
}
