package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/underclub/event-ticket-reservation/internal/config"
	"github.com/underclub/event-ticket-reservation/internal/handler"
	"github.com/underclub/event-ticket-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring systems to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest-facing reservation endpoints under /v1.
// No JWT is applied; the reservation POST is rate limited and the
// availability read may be served from a short-TTL cache.  rdb may be nil,
// in which case both middlewares become no-ops.
func RegisterPublic(e *echo.Echo, h *handler.ReservationHandler, t *handler.TicketHandler,
	rlCfg config.RateLimitConfig, cacheCfg config.CacheConfig, rdb *redis.Client) {

	limit := middleware.NewTokenBucket(rlCfg, rdb)
	cache := middleware.NewRedisCache(cacheCfg, rdb)

	e.POST("/v1/reservations", h.Create, limit)
	// The cache only smooths the public display; the reserve path above
	// always reads committed ledger state.
	e.GET("/v1/availability", h.Availability, cache)
	e.GET("/v1/reservations", h.GetByEmail)
	e.GET("/v1/reservations/:code", h.GetByCode)
	e.GET("/v1/reservations/:code/ticket", t.Download)
}

// RegisterStaff registers the door-staff endpoints.  Login is open; the
// check-in and cancellation routes require a valid JWT carrying the STAFF
// role.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
	e.POST("/v1/staff/login", h.Login)

	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STAFF"),
	)
	g.POST("/reservations/:code/checkin", h.CheckIn)
	g.POST("/reservations/:code/cancel", h.Cancel)
}
