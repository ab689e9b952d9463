package workers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/notify"
	outboxstore "github.com/dalemusser/cohorthub/internal/app/store/outbox"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/app/system/workers"
	"github.com/dalemusser/cohorthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{4, 4 * time.Minute},
		{7, 32 * time.Minute},
		{8, time.Hour},
		{20, time.Hour},
	}
	for _, tc := range cases {
		if got := workers.RetryDelay(tc.attempts); got != tc.want {
			t.Errorf("RetryDelay(%d): got %v, want %v", tc.attempts, got, tc.want)
		}
	}
}

// captureDispatcher records dispatched batches and answers with a
// configurable result.
type captureDispatcher struct {
	mu      sync.Mutex
	batches [][]notify.Message
	result  notify.Result
	fill    bool // when set, report every message as sent
}

func (d *captureDispatcher) Dispatch(ctx context.Context, msgs []notify.Message) (notify.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, msgs)
	if d.fill {
		res := notify.Result{SuccessCount: len(msgs)}
		for _, m := range msgs {
			res.Results = append(res.Results, notify.SendResult{Recipient: m.Recipient, OK: true})
		}
		return res, nil
	}
	return d.result, nil
}

func (d *captureDispatcher) batchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

func waitForIntentStatus(t *testing.T, store *outboxstore.Store, id primitive.ObjectID, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := testutil.TestContext()
		intent, err := store.GetByID(ctx, id)
		cancel()
		if err == nil && intent.Status == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("intent %s never reached status %q", id.Hex(), want)
}

func TestOutboxDispatch_DeliversIntent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := outboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort A")
	student := fixtures.CreateStudentWithGuardian(ctx, "Amina Khalil", "+15550001111", group.ID)
	intent := fixtures.CreateIntent(ctx, status.EventWelcomeMessage, group.ID,
		[]primitive.ObjectID{student.ID}, map[string]string{"group_name": "Cohort A"})

	dispatcher := &captureDispatcher{fill: true}
	worker := workers.NewOutboxDispatch(db, dispatcher, zap.NewNop(), 10*time.Millisecond, 3)
	worker.Start()
	defer worker.Stop()

	waitForIntentStatus(t, store, intent.ID, status.IntentDelivered)

	if dispatcher.batchCount() != 1 {
		t.Errorf("expected 1 dispatched batch, got %d", dispatcher.batchCount())
	}

	got, err := store.GetByID(ctx, intent.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DeliveredAt == nil {
		t.Error("expected DeliveredAt to be stamped")
	}
	if got.Attempts != 1 {
		t.Errorf("Attempts: got %d, want 1", got.Attempts)
	}
}

func TestOutboxDispatch_EmptyBatchIsDelivered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := outboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort B")
	// No guardian number: the intent renders to nothing.
	student := fixtures.CreateStudent(ctx, "Omar Haddad", group.ID)
	intent := fixtures.CreateIntent(ctx, status.EventDeletionNotification, group.ID,
		[]primitive.ObjectID{student.ID}, nil)

	dispatcher := &captureDispatcher{fill: true}
	worker := workers.NewOutboxDispatch(db, dispatcher, zap.NewNop(), 10*time.Millisecond, 3)
	worker.Start()
	defer worker.Stop()

	waitForIntentStatus(t, store, intent.ID, status.IntentDelivered)

	// The dispatcher must never see the unreachable batch.
	if dispatcher.batchCount() != 0 {
		t.Errorf("expected no dispatched batches, got %d", dispatcher.batchCount())
	}
}

func TestOutboxDispatch_AllFailedParksAfterBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := outboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort C")
	student := fixtures.CreateStudentWithGuardian(ctx, "Amina Khalil", "+15550002222", group.ID)
	intent := fixtures.CreateIntent(ctx, status.EventAttendanceAbsence, group.ID,
		[]primitive.ObjectID{student.ID},
		map[string]string{"status:" + student.ID.Hex(): status.AttendanceAbsent})

	dispatcher := &captureDispatcher{result: notify.Result{
		FailCount: 1,
		Results:   []notify.SendResult{{Recipient: "+15550002222", Detail: "gateway timeout"}},
	}}

	// maxAttempts of 1: the first failed attempt parks the intent.
	worker := workers.NewOutboxDispatch(db, dispatcher, zap.NewNop(), 10*time.Millisecond, 1)
	worker.Start()
	defer worker.Stop()

	waitForIntentStatus(t, store, intent.ID, status.IntentFailed)

	got, err := store.GetByID(ctx, intent.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastError != "gateway timeout" {
		t.Errorf("LastError: got %q", got.LastError)
	}
}

func TestOutboxDispatch_FailureReschedulesWithBackoff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := outboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort D")
	student := fixtures.CreateStudentWithGuardian(ctx, "Amina Khalil", "+15550003333", group.ID)
	intent := fixtures.CreateIntent(ctx, status.EventUpdateNotification, group.ID,
		[]primitive.ObjectID{student.ID}, map[string]string{"group_name": "Cohort D"})

	dispatcher := &captureDispatcher{result: notify.Result{
		FailCount: 1,
		Results:   []notify.SendResult{{Recipient: "+15550003333", Detail: "connection refused"}},
	}}

	worker := workers.NewOutboxDispatch(db, dispatcher, zap.NewNop(), 10*time.Millisecond, 5)
	worker.Start()
	defer worker.Stop()

	// The failed attempt goes back to pending with a future due time,
	// so it will not be reclaimed inside this test. Poll on the attempt
	// counter since the intent starts out pending too.
	deadline := time.Now().Add(5 * time.Second)
	var got = intent
	for time.Now().Before(deadline) {
		g, err := store.GetByID(ctx, intent.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if g.Attempts == 1 && g.Status == status.IntentPending {
			got = g
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got.Attempts != 1 {
		t.Fatalf("intent was never attempted and rescheduled: %+v", got)
	}
	if got.LastError != "connection refused" {
		t.Errorf("LastError: got %q", got.LastError)
	}
	if !got.NextAttemptAt.After(time.Now().UTC().Add(20 * time.Second)) {
		t.Errorf("expected backoff of ~30s, next attempt at %v", got.NextAttemptAt)
	}
}
