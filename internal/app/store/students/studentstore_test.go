package studentstore_test

import (
	"testing"

	studentstore "github.com/dalemusser/cohorthub/internal/app/store/students"
	"github.com/dalemusser/cohorthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_ListByGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort A")
	other := fixtures.CreateGroup(ctx, "Cohort B")

	// Insertion order deliberately scrambled; the list sorts by folded name.
	fixtures.CreateStudent(ctx, "Zainab Mansour", group.ID)
	fixtures.CreateStudent(ctx, "Amina Khalil", group.ID)
	fixtures.CreateStudent(ctx, "Omar Haddad", other.ID)

	rows, err := store.ListByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 students, got %d", len(rows))
	}
	if rows[0].FullName != "Amina Khalil" || rows[1].FullName != "Zainab Mansour" {
		t.Errorf("expected name order, got %q then %q", rows[0].FullName, rows[1].FullName)
	}
}

func TestStore_ListByGroup_ExcludesDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort C")
	kept := fixtures.CreateStudent(ctx, "Amina Khalil", group.ID)
	gone := fixtures.CreateStudent(ctx, "Omar Haddad", group.ID)

	_, err := db.Collection("students").UpdateByID(ctx, gone.ID,
		bson.M{"$set": bson.M{"is_deleted": true}})
	if err != nil {
		t.Fatalf("failed to soft-delete student: %v", err)
	}

	rows, err := store.ListByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != kept.ID {
		t.Errorf("expected only the kept student, got %+v", rows)
	}

	count, err := store.CountByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountByGroup failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountByGroup: got %d, want 1", count)
	}

	if _, err := store.GetByID(ctx, gone.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments for deleted student, got %v", err)
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fixtures.CreateGroup(ctx, "Cohort D")
	student := fixtures.CreateStudentWithGuardian(ctx, "Amina Khalil", "+15550001111", group.ID)

	got, err := store.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Guardian.WhatsAppNumber != "+15550001111" {
		t.Errorf("guardian number: got %q", got.Guardian.WhatsAppNumber)
	}
	if !got.InGroup(group.ID) {
		t.Error("expected student to be in the group")
	}
	if got.InGroup(primitive.NewObjectID()) {
		t.Error("expected InGroup to be false for an unrelated group")
	}
}
