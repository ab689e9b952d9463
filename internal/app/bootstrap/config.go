// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CohortHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, auth_token_key, etc.
//   - Environment variables: COHORTHUB_MONGO_URI, COHORTHUB_AUTH_TOKEN_KEY, etc.
//   - Command-line flags: --mongo_uri, --auth_token_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "cohort_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer token verification
	{Name: "auth_token_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Bearer token HMAC key (must be strong in production)"},
	{Name: "auth_token_issuer", Default: "cohorthub", Desc: "Expected token issuer claim"},

	// WhatsApp messaging gateway
	{Name: "whatsapp_api_url", Default: "", Desc: "WhatsApp gateway URL (blank disables sending; notifications are logged)"},
	{Name: "whatsapp_api_token", Default: "", Desc: "WhatsApp gateway bearer token"},

	// Notification outbox worker
	{Name: "outbox_interval", Default: "15s", Desc: "Outbox worker poll interval (e.g., 15s, 1m)"},
	{Name: "outbox_max_attempts", Default: 8, Desc: "Delivery attempts before an intent is parked as failed"},

	// Abuse protection
	{Name: "rate_limit_per_minute", Default: 120, Desc: "Per-client requests per minute (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, COHORTHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COHORTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthTokenKey:    appValues.String("auth_token_key"),
		AuthTokenIssuer: appValues.String("auth_token_issuer"),

		WhatsAppAPIURL:   appValues.String("whatsapp_api_url"),
		WhatsAppAPIToken: appValues.String("whatsapp_api_token"),

		OutboxInterval:    appValues.Duration("outbox_interval", 15*time.Second),
		OutboxMaxAttempts: appValues.Int("outbox_max_attempts"),

		RateLimitPerMinute: appValues.Int("rate_limit_per_minute"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// CohortHub validates the MongoDB URI format and, in production, the
// token key strength -- both catch configuration errors before anything
// connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.AuthTokenKey) < 32 {
			return fmt.Errorf("auth_token_key must be at least 32 bytes in production")
		}
		if appCfg.AuthTokenKey == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("auth_token_key must be changed from the development default in production")
		}
	}

	if appCfg.OutboxMaxAttempts < 1 {
		return fmt.Errorf("outbox_max_attempts must be at least 1")
	}
	if appCfg.OutboxInterval < time.Second {
		return fmt.Errorf("outbox_interval must be at least 1s")
	}
	if appCfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute cannot be negative")
	}

	return nil
}
