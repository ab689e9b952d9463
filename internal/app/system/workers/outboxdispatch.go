// internal/app/system/workers/outboxdispatch.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/notify"
	outboxstore "github.com/dalemusser/cohorthub/internal/app/store/outbox"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	baseRetryDelay = 30 * time.Second
	maxRetryDelay  = time.Hour
)

// OutboxDispatch is the background worker that drains the notification
// outbox. Each tick it claims due intents one at a time, renders them,
// and hands the batch to the dispatcher; failures are rescheduled with
// exponential backoff until the attempt budget runs out.
type OutboxDispatch struct {
	db          *mongo.Database
	dispatcher  notify.Dispatcher
	log         *zap.Logger
	interval    time.Duration
	maxAttempts int
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewOutboxDispatch creates the outbox worker.
//
// Parameters:
//   - db: the application database
//   - dispatcher: the outbound messaging gateway
//   - logger: zap logger for logging
//   - interval: how often to poll for due intents (e.g., 15 seconds)
//   - maxAttempts: delivery attempts before an intent is parked as failed
func NewOutboxDispatch(db *mongo.Database, dispatcher notify.Dispatcher, logger *zap.Logger, interval time.Duration, maxAttempts int) *OutboxDispatch {
	return &OutboxDispatch{
		db:          db,
		dispatcher:  dispatcher,
		log:         logger,
		interval:    interval,
		maxAttempts: maxAttempts,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background dispatch loop.
func (w *OutboxDispatch) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("outbox dispatch worker started",
		zap.Duration("interval", w.interval),
		zap.Int("max_attempts", w.maxAttempts))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OutboxDispatch) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox dispatch worker stopped")
}

func (w *OutboxDispatch) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain claims and processes due intents until the outbox is empty or
// the worker is asked to stop.
func (w *OutboxDispatch) drain() {
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if !w.processOne() {
			return
		}
	}
}

// processOne claims and handles a single due intent. Returns false when
// nothing was due.
func (w *OutboxDispatch) processOne() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outbox := outboxstore.New(w.db)
	intent, err := outbox.ClaimNextDue(ctx, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			w.log.Error("failed to claim outbox intent", zap.Error(err))
		}
		return false
	}

	log := w.log.With(
		zap.String("intent_id", intent.ID.Hex()),
		zap.String("event_type", intent.EventType),
		zap.Int("attempt", intent.Attempts))

	msgs, err := notify.Render(ctx, w.db, intent)
	if err != nil {
		w.retryOrPark(ctx, outbox, intent, "render: "+err.Error(), log)
		return true
	}
	if len(msgs) == 0 {
		// Nothing reachable; nothing to retry either.
		if err := outbox.MarkDelivered(ctx, intent.ID); err != nil {
			log.Error("failed to finalize empty intent", zap.Error(err))
		}
		log.Info("intent had no reachable recipients")
		return true
	}

	res, err := w.dispatcher.Dispatch(ctx, msgs)
	switch {
	case err != nil:
		w.retryOrPark(ctx, outbox, intent, "dispatch: "+err.Error(), log)
	case res.AllFailed():
		w.retryOrPark(ctx, outbox, intent, firstFailure(res), log)
	default:
		if err := outbox.MarkDelivered(ctx, intent.ID); err != nil {
			log.Error("failed to mark intent delivered", zap.Error(err))
			return true
		}
		log.Info("intent delivered",
			zap.Int("sent", res.SuccessCount),
			zap.Int("failed", res.FailCount))
	}
	return true
}

// retryOrPark reschedules a failed intent with backoff, or parks it as
// failed once the attempt budget is spent.
func (w *OutboxDispatch) retryOrPark(ctx context.Context, outbox *outboxstore.Store, intent models.NotificationIntent, cause string, log *zap.Logger) {
	if intent.Attempts >= w.maxAttempts {
		if err := outbox.MarkFailed(ctx, intent.ID, cause); err != nil {
			log.Error("failed to park intent", zap.Error(err))
			return
		}
		log.Warn("intent parked after exhausting attempts", zap.String("cause", cause))
		return
	}

	nextAt := time.Now().UTC().Add(RetryDelay(intent.Attempts))
	if err := outbox.Reschedule(ctx, intent.ID, cause, nextAt); err != nil {
		log.Error("failed to reschedule intent", zap.Error(err))
		return
	}
	log.Warn("intent rescheduled",
		zap.String("cause", cause),
		zap.Time("next_attempt_at", nextAt))
}

func firstFailure(res notify.Result) string {
	for _, r := range res.Results {
		if !r.OK {
			return r.Detail
		}
	}
	return "all sends failed"
}

// RetryDelay computes the backoff before the given attempt number is
// retried: base * 2^(attempts-1), capped at an hour.
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseRetryDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}
