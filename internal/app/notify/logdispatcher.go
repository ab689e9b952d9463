// internal/app/notify/logdispatcher.go
package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher writes every message to the log instead of a gateway.
// Used when no WhatsApp API URL is configured, so dev environments
// drain the outbox without reaching the network.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, msgs []Message) (Result, error) {
	var res Result
	for _, m := range msgs {
		d.log.Info("notification (log only)",
			zap.String("recipient", m.Recipient),
			zap.String("body", m.Body))
		res.SuccessCount++
		res.Results = append(res.Results, SendResult{Recipient: m.Recipient, OK: true})
	}
	return res, nil
}
