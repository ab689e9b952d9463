package groupstatus_test

import (
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/policy/groupstatus"
	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestReconcile_NoSessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort A")

	res, err := groupstatus.Reconcile(ctx, db, group, primitive.NilObjectID)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	// A group with no sessions keeps its stored status; it can never be
	// considered completed.
	if res.Status != status.Active {
		t.Errorf("Status: got %q, want %q", res.Status, status.Active)
	}
	if res.Total != 0 || res.Completed != 0 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if res.AllCompleted() {
		t.Error("empty group must not count as completed")
	}
}

func TestReconcile_FlipsToCompleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	instructor := primitive.NewObjectID()
	group := fixtures.CreateGroup(ctx, "Cohort B", instructor)
	day := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	fixtures.CreateSession(ctx, group.ID, "Week 1", status.SessionCompleted, day)
	fixtures.CreateSession(ctx, group.ID, "Week 2", status.SessionCompleted, day.AddDate(0, 0, 7))

	actor := primitive.NewObjectID()
	res, err := groupstatus.Reconcile(ctx, db, group, actor)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Status != status.Completed {
		t.Errorf("Status: got %q, want %q", res.Status, status.Completed)
	}
	if res.Total != 2 || res.Completed != 2 || len(res.Incomplete) != 0 {
		t.Errorf("unexpected counts: %+v", res)
	}

	stored, err := groupstore.New(db).GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != status.Completed {
		t.Errorf("stored status: got %q, want %q", stored.Status, status.Completed)
	}
	if stored.Meta.CompletedBy == nil || *stored.Meta.CompletedBy != actor {
		t.Errorf("CompletedBy: got %v, want %v", stored.Meta.CompletedBy, actor)
	}
	if stored.Meta.CompletedAt == nil {
		t.Error("expected CompletedAt to be stamped")
	}
}

func TestReconcile_CompletedByFallsBackToCreator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	instructor := primitive.NewObjectID()
	group := fixtures.CreateGroup(ctx, "Cohort C", instructor)
	fixtures.CreateSession(ctx, group.ID, "Week 1", status.SessionCompleted, time.Now())

	// No acting user (e.g. a maintenance sweep): the creator is stamped.
	if _, err := groupstatus.Reconcile(ctx, db, group, primitive.NilObjectID); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	stored, err := groupstore.New(db).GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Meta.CompletedBy == nil || *stored.Meta.CompletedBy != group.CreatedBy {
		t.Errorf("CompletedBy: got %v, want creator %v", stored.Meta.CompletedBy, group.CreatedBy)
	}
}

func TestReconcile_RevertsToActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort D")
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	fixtures.CreateSession(ctx, group.ID, "Week 1", status.SessionCompleted, day)

	if _, err := groupstatus.Reconcile(ctx, db, group, primitive.NilObjectID); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	// A new scheduled session undoes completion on the next reconcile.
	fixtures.CreateSession(ctx, group.ID, "Week 2", status.SessionScheduled, day.AddDate(0, 0, 7))

	_, res, err := groupstatus.ReconcileID(ctx, db, group.ID, primitive.NilObjectID)
	if err != nil {
		t.Fatalf("ReconcileID failed: %v", err)
	}
	if res.Status != status.Active {
		t.Errorf("Status: got %q, want %q", res.Status, status.Active)
	}
	if res.Total != 2 || res.Completed != 1 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if len(res.Incomplete) != 1 || res.Incomplete[0].Title != "Week 2" {
		t.Errorf("unexpected incomplete list: %+v", res.Incomplete)
	}

	stored, err := groupstore.New(db).GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != status.Active {
		t.Errorf("stored status: got %q, want %q", stored.Status, status.Active)
	}
	if stored.Meta.CompletedAt != nil || stored.Meta.CompletedBy != nil {
		t.Error("expected completion stamps to be cleared on revert")
	}
}

func TestReconcile_CancelledSessionsBlockCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort E")
	fixtures.CreateSession(ctx, group.ID, "Week 1", status.SessionCompleted, time.Now())
	fixtures.CreateSession(ctx, group.ID, "Week 2", status.SessionCancelled, time.Now().AddDate(0, 0, 7))

	res, err := groupstatus.Reconcile(ctx, db, group, primitive.NilObjectID)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	// Cancelled is not completed: the group stays active.
	if res.Status != status.Active {
		t.Errorf("Status: got %q, want %q", res.Status, status.Active)
	}
	if res.AllCompleted() {
		t.Error("cancelled session must block completion")
	}
}

func TestReconcileID_MissingGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _, err := groupstatus.ReconcileID(ctx, db, primitive.NewObjectID(), primitive.NilObjectID)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}
