// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	evaluationsfeature "github.com/dalemusser/cohorthub/internal/app/features/evaluations"
	groupsfeature "github.com/dalemusser/cohorthub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/cohorthub/internal/app/features/health"
	sessionsfeature "github.com/dalemusser/cohorthub/internal/app/features/sessions"
	userstore "github.com/dalemusser/cohorthub/internal/app/store/users"
	"github.com/dalemusser/cohorthub/internal/app/system/auth"
	"github.com/dalemusser/cohorthub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. CohortHub builds the bearer
// token verifier, applies it globally so every handler can see the
// current user, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	verifier := auth.NewVerifier(appCfg.AuthTokenKey, appCfg.AuthTokenIssuer, logger)

	// Fetch fresh user data on each request so role changes and
	// disabled accounts take effect immediately.
	verifier.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	r := chi.NewRouter()

	if appCfg.RateLimitPerMinute > 0 {
		limiter := ratelimit.New(appCfg.RateLimitPerMinute, time.Minute)
		r.Use(limiter.Middleware)
	}

	// Global auth middleware: resolves the bearer token into a context
	// user if one is present. Route groups decide whether it's required.
	r.Use(verifier.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Sessions: status machine and attendance
	sessionsHandler := sessionsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/sessions", sessionsfeature.Routes(sessionsHandler, verifier))

	// Groups: detail view, automation flags, and the evaluation
	// endpoints (which share the /groups/{id} namespace).
	groupsHandler := groupsfeature.NewHandler(deps.MongoDatabase, logger)
	groupsRouter := groupsfeature.Routes(groupsHandler, verifier)

	evaluationsHandler := evaluationsfeature.NewHandler(deps.MongoDatabase, logger)
	evaluationsfeature.Routes(groupsRouter, evaluationsHandler, verifier)

	r.Mount("/groups", groupsRouter)

	return r, nil
}
