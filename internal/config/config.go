package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/underclub/event-ticket-reservation/internal/model"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The configuration is loaded once at process
// start and treated as immutable afterwards.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	StoreDriver string // "mysql" (default) or "memory" for local development

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret     string // secret used to sign staff access tokens
	AccessTTLMin  int    // staff access token time-to-live in minutes
	StaffPassHash string // bcrypt hash of the shared door-staff password

	CodePrefix string // confirmation code prefix, e.g. "TECH"
	VerifyURL  string // base URL encoded into ticket QR codes

	Event Event // immutable event metadata and booking deadline
}

// Event describes the single event this deployment sells tickets for.
// Loaded once at start, never mutated.
type Event struct {
	Name     string
	Date     string // display date, e.g. "22 novembre 2025"
	Venue    string
	Location string
	Lineup   string
	Deadline time.Time // bookings are rejected at or after this instant
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		StoreDriver: getenv("STORE_DRIVER", "mysql"),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: os.Getenv("DB_HOST"),
		DBPort: os.Getenv("DB_PORT"),
		DBName: os.Getenv("DB_NAME"),

		JWTSecret:     must("JWT_SECRET"),
		AccessTTLMin:  mustInt("ACCESS_TOKEN_TTL_MIN"),
		StaffPassHash: must("STAFF_PASSWORD_HASH"),

		CodePrefix: getenv("CODE_PREFIX", "TECH"),
		VerifyURL:  getenv("TICKET_VERIFY_URL", "https://tickets.underclub.it/verify"),

		Event: Event{
			Name:     getenv("EVENT_NAME", "Technoroom"),
			Date:     getenv("EVENT_DATE", "22 novembre 2025"),
			Venue:    getenv("EVENT_VENUE", "Underclub"),
			Location: getenv("EVENT_LOCATION", "Via Corso Trinità, Sassari"),
			Lineup:   getenv("EVENT_LINEUP", ""),
			Deadline: mustTime("BOOKING_DEADLINE"),
		},
	}
}

// Tiers returns the fixed tier catalog for the event. The tranche set
// mirrors the door pricing: tranche3 exists only for at-the-door purchase
// and is never bookable online, which the allocator enforces regardless of
// what the client claims to have seen.
func Tiers() *model.Catalog {
	return model.NewCatalog(
		model.Tier{ID: "tranche1", Label: "10€ + 1 drink", PriceCents: 1000, MaxCapacity: 50, OnlineBookable: true},
		model.Tier{ID: "tranche2", Label: "15€ + 1 drink", PriceCents: 1500, MaxCapacity: 150, OnlineBookable: true},
		model.Tier{ID: "tranche3", Label: "20€ + 1 drink (solo cassa)", PriceCents: 2000, MaxCapacity: 0, OnlineBookable: false},
	)
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustTime is like must() but parses the value as RFC 3339.
func mustTime(key string) time.Time {
	s := must(key)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Fatalf("invalid RFC3339 timestamp for %s: %q", key, s)
	}
	return t.UTC()
}

// getenv returns the value of key or def when unset/empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
