// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/cohorthub/internal/app/notify"
	"github.com/dalemusser/cohorthub/internal/app/system/httpapi"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// outboxWorker is started here and stopped in Shutdown.
var outboxWorker *workers.OutboxDispatch

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// CohortHub configures the error surface for the environment and starts
// the notification outbox worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	httpapi.Configure(coreCfg.Env)
	timeouts.ConfigureFromEnv()

	var dispatcher notify.Dispatcher
	if appCfg.WhatsAppAPIURL != "" {
		dispatcher = notify.NewWhatsApp(notify.WhatsAppConfig{
			APIURL:   appCfg.WhatsAppAPIURL,
			APIToken: appCfg.WhatsAppAPIToken,
		}, logger)
	} else {
		logger.Info("no WhatsApp gateway configured; notifications will be logged only")
		dispatcher = notify.NewLogDispatcher(logger)
	}

	outboxWorker = workers.NewOutboxDispatch(
		deps.MongoDatabase, dispatcher, logger,
		appCfg.OutboxInterval, appCfg.OutboxMaxAttempts)
	outboxWorker.Start()

	return nil
}
