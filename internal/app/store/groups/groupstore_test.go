package groupstore_test

import (
	"testing"
	"time"

	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
	"github.com/dalemusser/cohorthub/internal/app/system/indexes"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/dalemusser/cohorthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Group{
		Name:          "Evening Cohort A",
		InstructorIDs: []primitive.ObjectID{primitive.NewObjectID()},
		CreatedBy:     primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI != "evening cohort a" {
		t.Errorf("NameCI: got %q, want %q", created.NameCI, "evening cohort a")
	}
	if created.Status != status.Active {
		t.Errorf("Status: got %q, want %q", created.Status, status.Active)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("index setup failed: %v", err)
	}

	if _, err := store.Create(ctx, models.Group{Name: "Cohort B"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Case-insensitive duplicate: name_ci folds to the same value.
	_, err := store.Create(ctx, models.Group{Name: "cohort b"})
	if err != groupstore.ErrDuplicateGroupName {
		t.Errorf("expected ErrDuplicateGroupName, got %v", err)
	}
}

func TestStore_MarkCompleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort C")
	by := primitive.NewObjectID()
	at := time.Now().UTC().Truncate(time.Millisecond)

	flipped, err := store.MarkCompleted(ctx, group.ID, by, at)
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if !flipped {
		t.Fatal("expected first MarkCompleted to flip the group")
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != status.Completed {
		t.Errorf("Status: got %q, want %q", got.Status, status.Completed)
	}
	if got.Meta.CompletedAt == nil || !got.Meta.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt: got %v, want %v", got.Meta.CompletedAt, at)
	}
	if got.Meta.CompletedBy == nil || *got.Meta.CompletedBy != by {
		t.Errorf("CompletedBy: got %v, want %v", got.Meta.CompletedBy, by)
	}

	// Second flip matches nothing: the status filter makes concurrent
	// reconcilers idempotent.
	flipped, err = store.MarkCompleted(ctx, group.ID, primitive.NewObjectID(), time.Now().UTC())
	if err != nil {
		t.Fatalf("second MarkCompleted failed: %v", err)
	}
	if flipped {
		t.Error("expected second MarkCompleted to be a no-op")
	}
}

func TestStore_RevertActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort D")

	// Reverting an active group is a no-op.
	reverted, err := store.RevertActive(ctx, group.ID)
	if err != nil {
		t.Fatalf("RevertActive failed: %v", err)
	}
	if reverted {
		t.Error("expected RevertActive on an active group to be a no-op")
	}

	if _, err := store.MarkCompleted(ctx, group.ID, primitive.NewObjectID(), time.Now().UTC()); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	reverted, err = store.RevertActive(ctx, group.ID)
	if err != nil {
		t.Fatalf("RevertActive failed: %v", err)
	}
	if !reverted {
		t.Fatal("expected RevertActive to flip the completed group")
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != status.Active {
		t.Errorf("Status: got %q, want %q", got.Status, status.Active)
	}
	if got.Meta.CompletedAt != nil {
		t.Error("expected CompletedAt to be cleared")
	}
	if got.Meta.CompletedBy != nil {
		t.Error("expected CompletedBy to be cleared")
	}
}

func TestStore_EnableEvaluations_StampsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort E")
	first := primitive.NewObjectID()

	if err := store.EnableEvaluations(ctx, group.ID, first); err != nil {
		t.Fatalf("EnableEvaluations failed: %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Meta.EvaluationsEnabled {
		t.Fatal("expected evaluations_enabled to be set")
	}
	if got.Meta.EvaluationsEnabledBy == nil || *got.Meta.EvaluationsEnabledBy != first {
		t.Errorf("EvaluationsEnabledBy: got %v, want %v", got.Meta.EvaluationsEnabledBy, first)
	}
	firstAt := got.Meta.EvaluationsEnabledAt

	// A later call must not overwrite the original stamp.
	if err := store.EnableEvaluations(ctx, group.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("second EnableEvaluations failed: %v", err)
	}

	got, err = store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if *got.Meta.EvaluationsEnabledBy != first {
		t.Error("expected original evaluations_enabled_by to be preserved")
	}
	if !got.Meta.EvaluationsEnabledAt.Equal(*firstAt) {
		t.Error("expected original evaluations_enabled_at to be preserved")
	}
}

func TestStore_SetEvaluationSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort F")

	partial := models.EvaluationSummary{
		TotalStudents:     3,
		EvaluatedStudents: 1,
		PendingStudents:   2,
		Decisions:         models.DecisionCounts{Pass: 1},
	}
	if err := store.SetEvaluationSummary(ctx, group.ID, partial, false); err != nil {
		t.Fatalf("SetEvaluationSummary failed: %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Meta.EvaluationsCompleted {
		t.Error("expected evaluations_completed to be false")
	}
	if got.Meta.EvaluationSummary == nil || got.Meta.EvaluationSummary.EvaluatedStudents != 1 {
		t.Errorf("unexpected summary: %+v", got.Meta.EvaluationSummary)
	}

	full := models.EvaluationSummary{
		TotalStudents:     3,
		EvaluatedStudents: 3,
		Decisions:         models.DecisionCounts{Pass: 2, Review: 1},
	}
	if err := store.SetEvaluationSummary(ctx, group.ID, full, true); err != nil {
		t.Fatalf("SetEvaluationSummary (completed) failed: %v", err)
	}

	got, err = store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Meta.EvaluationsCompleted {
		t.Error("expected evaluations_completed to be true")
	}
	if got.Meta.EvaluationsCompletedAt == nil {
		t.Fatal("expected evaluations_completed_at to be stamped")
	}
	stampedAt := *got.Meta.EvaluationsCompletedAt

	// Re-upsert after completion keeps the original completion time.
	if err := store.SetEvaluationSummary(ctx, group.ID, full, true); err != nil {
		t.Fatalf("re-upsert SetEvaluationSummary failed: %v", err)
	}
	got, _ = store.GetByID(ctx, group.ID)
	if !got.Meta.EvaluationsCompletedAt.Equal(stampedAt) {
		t.Error("expected original evaluations_completed_at to be preserved")
	}

	// Falling back out of completed clears the stamp.
	if err := store.SetEvaluationSummary(ctx, group.ID, partial, false); err != nil {
		t.Fatalf("SetEvaluationSummary (incomplete) failed: %v", err)
	}
	got, _ = store.GetByID(ctx, group.ID)
	if got.Meta.EvaluationsCompleted {
		t.Error("expected evaluations_completed to be false again")
	}
	if got.Meta.EvaluationsCompletedAt != nil {
		t.Error("expected evaluations_completed_at to be cleared")
	}
}

func TestStore_UpdateAutomation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort G")

	flags := models.AutomationFlags{
		WhatsAppEnabled:         true,
		NotifyGuardianOnAbsence: true,
	}
	if err := store.UpdateAutomation(ctx, group.ID, flags); err != nil {
		t.Fatalf("UpdateAutomation failed: %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Automation != flags {
		t.Errorf("Automation: got %+v, want %+v", got.Automation, flags)
	}

	err = store.UpdateAutomation(ctx, primitive.NewObjectID(), flags)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments for missing group, got %v", err)
	}
}
