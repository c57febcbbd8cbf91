package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/underclub/event-ticket-reservation/internal/allocator"
	"github.com/underclub/event-ticket-reservation/internal/utils"
)

// StaffHandler serves door-staff operations: login, check-in and
// cancellation.  Staff identity is a single shared credential verified
// against a bcrypt hash from configuration; there is no user table.
type StaffHandler struct {
	Alloc        *allocator.Allocator
	JWTSecret    string
	PasswordHash string
	AccessTTLMin int
}

// NewStaffHandler constructs a StaffHandler.  Alloc must be non-nil.
func NewStaffHandler(alloc *allocator.Allocator, jwtSecret, passwordHash string, accessTTLMin int) *StaffHandler {
	if alloc == nil {
		panic("nil allocator passed to NewStaffHandler")
	}
	return &StaffHandler{Alloc: alloc, JWTSecret: jwtSecret, PasswordHash: passwordHash, AccessTTLMin: accessTTLMin}
}

// Login handles POST /v1/staff/login.  On a correct password it issues a
// short-lived access token with the STAFF role.
func (h *StaffHandler) Login(c echo.Context) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "password is required"})
	}
	if h.PasswordHash == "" || !utils.VerifyPassword(h.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, "staff", "STAFF", h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}

// CheckIn handles POST /v1/staff/reservations/:code/checkin.  A
// reservation can be checked in exactly once; a second attempt or a
// cancelled reservation yields 409.
func (h *StaffHandler) CheckIn(c echo.Context) error {
	res, err := h.Alloc.CheckIn(c.Request().Context(), c.Param("code"))
	if err != nil {
		return staffTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel handles POST /v1/staff/reservations/:code/cancel.  On success
// the seat returns to the capacity ledger and the email becomes free for
// a new reservation; the confirmation code stays burned.
func (h *StaffHandler) Cancel(c echo.Context) error {
	res, err := h.Alloc.Cancel(c.Request().Context(), c.Param("code"))
	if err != nil {
		return staffTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func staffTransitionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, allocator.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "no reservation with this code"})
	case errors.Is(err, allocator.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": "reservation is not in a confirmable state"})
	default:
		return storageOrInternal(c, err)
	}
}
