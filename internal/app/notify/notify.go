// internal/app/notify/notify.go
//
// Package notify defines the outbound messaging boundary. The outbox
// worker hands claimed intents to a Dispatcher; the gateway behind it
// (WhatsApp, or a log-only fallback in dev and tests) is invisible to
// the rest of the app.
package notify

import (
	"context"
	"fmt"
)

// Message is one rendered notification for one recipient.
type Message struct {
	// Recipient is the destination address (a WhatsApp number in E.164
	// form for the production gateway).
	Recipient string
	Body      string
	// IdempotencyKey dedupes re-deliveries when the worker retries an
	// intent whose previous attempt may have partially succeeded.
	IdempotencyKey string
}

// SendResult is the per-recipient outcome.
type SendResult struct {
	Recipient string `bson:"recipient" json:"recipient"`
	OK        bool   `bson:"ok" json:"ok"`
	Detail    string `bson:"detail,omitempty" json:"detail,omitempty"`
}

// Result aggregates one dispatch batch.
type Result struct {
	SuccessCount int
	FailCount    int
	Results      []SendResult
}

// AllFailed reports whether nothing went out at all. A partial success
// is terminal (the delivered recipients must not be messaged again).
func (r Result) AllFailed() bool {
	return r.SuccessCount == 0 && r.FailCount > 0
}

// Dispatcher delivers a batch of rendered messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []Message) (Result, error)
}

// GatewayError is a transport-level failure from the messaging
// provider. Retryable reports whether the worker should try again.
type GatewayError struct {
	Status    int
	Detail    string
	Retryable bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("messaging gateway error %d: %s", e.Status, e.Detail)
}
