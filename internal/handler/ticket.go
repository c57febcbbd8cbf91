package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/underclub/event-ticket-reservation/internal/allocator"
	"github.com/underclub/event-ticket-reservation/internal/model"
	"github.com/underclub/event-ticket-reservation/internal/ticket"
)

// TicketHandler renders the downloadable eTicket PDF for a reservation.
type TicketHandler struct {
	Alloc   *allocator.Allocator
	Catalog *model.Catalog
	Tickets *ticket.Generator
}

// NewTicketHandler constructs a TicketHandler.  All dependencies must be
// non-nil.
func NewTicketHandler(alloc *allocator.Allocator, catalog *model.Catalog, tickets *ticket.Generator) *TicketHandler {
	if alloc == nil || catalog == nil || tickets == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Alloc: alloc, Catalog: catalog, Tickets: tickets}
}

// Download handles GET /v1/reservations/:code/ticket.  Cancelled
// reservations have no ticket; checked-in ones keep theirs for the
// customer's records.
func (h *TicketHandler) Download(c echo.Context) error {
	res, err := h.Alloc.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, allocator.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "no reservation with this code"})
		}
		return storageOrInternal(c, err)
	}
	if res.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": "reservation was cancelled"})
	}

	tier, ok := h.Catalog.Get(res.TierID)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "unknown tier on reservation"})
	}
	pdf, err := h.Tickets.Render(res, tier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "could not render ticket"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, res.Code))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
