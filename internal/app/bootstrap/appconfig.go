// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and CORS; AppConfig is everything specific
// to CohortHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer token verification. Token issuance lives in the identity
	// service; this app only verifies.
	AuthTokenKey    string // HMAC signing key (must be strong in production)
	AuthTokenIssuer string // Expected "iss" claim

	// WhatsApp messaging gateway. Blank URL means notifications are
	// logged instead of sent (dev mode).
	WhatsAppAPIURL   string
	WhatsAppAPIToken string

	// Notification outbox worker tuning
	OutboxInterval    time.Duration // How often the worker polls for due intents
	OutboxMaxAttempts int           // Delivery attempts before an intent is parked

	// Per-client request budget. Zero disables rate limiting.
	RateLimitPerMinute int
}
