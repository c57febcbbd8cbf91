package main // Entry point package

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"    // optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/underclub/event-ticket-reservation/internal/allocator"
	"github.com/underclub/event-ticket-reservation/internal/config"
	"github.com/underclub/event-ticket-reservation/internal/database"
	"github.com/underclub/event-ticket-reservation/internal/handler"
	"github.com/underclub/event-ticket-reservation/internal/model"
	"github.com/underclub/event-ticket-reservation/internal/queue"
	"github.com/underclub/event-ticket-reservation/internal/repository"
	"github.com/underclub/event-ticket-reservation/internal/router"
	"github.com/underclub/event-ticket-reservation/internal/ticket"
)

func main() {
	// .env is a local convenience; in production the variables come from
	// the orchestrator and the file simply does not exist.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("env", cfg.Env)

	catalog := config.Tiers()

	ledger, store, err := buildBackend(cfg, catalog)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}

	alloc := allocator.New(
		catalog,
		cfg.Event.Deadline,
		ledger,
		store,
		allocator.NewCodeGenerator(cfg.CodePrefix),
		logger,
	)

	tickets := ticket.NewGenerator(ticket.EventInfo{
		Name:     cfg.Event.Name,
		Date:     cfg.Event.Date,
		Venue:    cfg.Event.Venue,
		Location: cfg.Event.Location,
		Lineup:   cfg.Event.Lineup,
	}, cfg.VerifyURL)

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled")
	}

	// Drains reservation.confirmed into the append-only door list.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			logger.Warn("reservation consumer stopped", "error", err)
		}
	}()

	resHandler := handler.NewReservationHandler(alloc, catalog, cfg.Event.Name, true)
	ticketHandler := handler.NewTicketHandler(alloc, catalog, tickets)
	staffHandler := handler.NewStaffHandler(alloc, cfg.JWTSecret, cfg.StaffPassHash, cfg.AccessTTLMin)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterPublic(e, resHandler, ticketHandler,
		config.LoadRateLimitConfig(), config.LoadCacheConfig(), rdb)
	router.RegisterStaff(e, staffHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "deadline", cfg.Event.Deadline)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// buildBackend selects the storage implementation.  MySQL is the default;
// the in-memory pair exists for local development and tests and shares the
// exact interface semantics.
func buildBackend(cfg config.Config, catalog *model.Catalog) (allocator.CapacityLedger, allocator.ReservationStore, error) {
	if cfg.StoreDriver == "memory" {
		return repository.NewMemoryLedger(catalog), repository.NewMemoryStore(), nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db, catalog); err != nil {
		return nil, nil, err
	}
	return repository.NewCapacityRepo(db), repository.NewReservationRepo(db), nil
}
