package handler

import (
	"context"  // detached context for background publishing
	"errors"   // for errors.Is and errors.As comparisons
	"net/http" // HTTP status codes
	"time"     // timestamp formatting for published events

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/underclub/event-ticket-reservation/internal/allocator"
	"github.com/underclub/event-ticket-reservation/internal/model"
	"github.com/underclub/event-ticket-reservation/internal/queue"
	queue_publisher "github.com/underclub/event-ticket-reservation/internal/service"
)

// ReservationHandler serves the public reservation endpoints.  All business
// decisions (validation, deadline, capacity, uniqueness) live in the
// allocator; the handler only binds requests and translates sentinel
// errors into HTTP responses.
type ReservationHandler struct {
	Alloc     *allocator.Allocator
	Catalog   *model.Catalog
	EventName string
	// PublishEvents gates the RabbitMQ notification after a successful
	// reservation.  Publishing is best-effort: the reservation is already
	// committed before the event goes out.
	PublishEvents bool
}

// NewReservationHandler constructs a ReservationHandler.  Alloc and
// Catalog must be non-nil.
func NewReservationHandler(alloc *allocator.Allocator, catalog *model.Catalog, eventName string, publishEvents bool) *ReservationHandler {
	if alloc == nil || catalog == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Alloc: alloc, Catalog: catalog, EventName: eventName, PublishEvents: publishEvents}
}

// Create handles POST /v1/reservations.  On success it responds 201 with
// the confirmation code and the persisted reservation.  Error responses
// carry a stable machine tag in "error" plus a human message; validation
// failures additionally list the rejected fields.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req allocator.ReserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation_error",
			"message": "invalid request body",
		})
	}

	res, err := h.Alloc.Reserve(c.Request().Context(), req)
	if err != nil {
		var verrs allocator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "validation_error",
				"message": "request validation failed",
				"fields":  verrs,
			})
		case errors.Is(err, allocator.ErrNotBookableOnline):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "not_bookable_online",
				"message": "this tier is sold at the door only",
			})
		case errors.Is(err, allocator.ErrDeadlinePassed):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "deadline_passed",
				"message": "online reservations are closed",
			})
		case errors.Is(err, allocator.ErrSoldOut):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "sold_out",
				"message": "no seats remaining in this tier",
			})
		case errors.Is(err, allocator.ErrDuplicateEmail):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "duplicate_email",
				"message": "an active reservation already exists for this email",
			})
		case errors.Is(err, allocator.ErrCodeGenerationFailed):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"error":   "transient_error",
				"message": "could not allocate a confirmation code, please retry",
			})
		case errors.Is(err, allocator.ErrStorageUnavailable):
			// No partial state remains; the client can simply retry.
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"error":   "transient_error",
				"message": "storage temporarily unavailable, please retry",
			})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "internal_error",
				"message": "unexpected error",
			})
		}
	}

	if h.PublishEvents {
		h.publishConfirmed(res)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"confirmation_code": res.Code,
		"tier":              res.TierID,
		"created_at":        res.CreatedAt,
		"reservation":       res,
	})
}

// publishConfirmed emits a ReservationConfirmedEvent in the background.
// Failures are logged by the publisher and never affect the response.
func (h *ReservationHandler) publishConfirmed(res *model.Reservation) {
	tierLabel := res.TierID
	if t, ok := h.Catalog.Get(res.TierID); ok {
		tierLabel = t.Label
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		Code:          res.Code,
		FirstName:     res.FirstName,
		LastName:      res.LastName,
		Email:         res.Email,
		Tier:          res.TierID,
		TierLabel:     tierLabel,
		EventName:     h.EventName,
		ConfirmedAt:   res.CreatedAt.UTC().Format(time.RFC3339),
	}
	// The request context ends with the response; publish detached.
	go func() { _ = queue_publisher.PublishReservationConfirmed(context.Background(), ev) }()
}

// storageOrInternal translates the residual error of a handler: storage
// outages become a retryable 503, anything else a 500.
func storageOrInternal(c echo.Context, err error) error {
	if errors.Is(err, allocator.ErrStorageUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":   "transient_error",
			"message": "storage temporarily unavailable, please retry",
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "unexpected error"})
}

// Availability handles GET /v1/availability.  It lists remaining seats
// per online-bookable tier; door-only tiers are never shown.
func (h *ReservationHandler) Availability(c echo.Context) error {
	tiers, err := h.Alloc.Availability(c.Request().Context())
	if err != nil {
		return storageOrInternal(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tiers": tiers})
}

// GetByCode handles GET /v1/reservations/:code.  Lookup is
// case-insensitive; cancelled reservations remain visible by code.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
	res, err := h.Alloc.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, allocator.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "no reservation with this code"})
		}
		return storageOrInternal(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetByEmail handles GET /v1/reservations?email=.  Only non-cancelled
// reservations are returned; a cancelled one reads as not found.
func (h *ReservationHandler) GetByEmail(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "email query parameter is required"})
	}
	res, err := h.Alloc.GetByEmail(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, allocator.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "no active reservation for this email"})
		}
		return storageOrInternal(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
