package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	userstore "github.com/dalemusser/cohorthub/internal/app/store/users"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a staff user with the given role, through the same
// store the application uses so the stored shape matches production.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	user, err := userstore.New(f.db).Create(ctx, models.User{
		FullName: fullName,
		Email:    email,
		Role:     role,
		Status:   "active",
	})
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateInstructor creates a test instructor user.
func (f *Fixtures) CreateInstructor(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "instructor")
}

// CreateGroup creates an active group taught by the given instructors.
// The first instructor doubles as the creator.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, instructorIDs ...primitive.ObjectID) models.Group {
	f.t.Helper()

	createdBy := primitive.NewObjectID()
	if len(instructorIDs) > 0 {
		createdBy = instructorIDs[0]
	}

	now := time.Now().UTC()
	group := models.Group{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		InstructorIDs: instructorIDs,
		Status:        status.Active,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateGroupWithAutomation creates a group with the given notification
// automation flags.
func (f *Fixtures) CreateGroupWithAutomation(ctx context.Context, name string, flags models.AutomationFlags, instructorIDs ...primitive.ObjectID) models.Group {
	f.t.Helper()

	group := f.CreateGroup(ctx, name, instructorIDs...)
	group.Automation = flags

	_, err := f.db.Collection("groups").UpdateByID(ctx, group.ID,
		map[string]any{"$set": map[string]any{"automation": flags}})
	if err != nil {
		f.t.Fatalf("failed to set automation flags: %v", err)
	}
	return group
}

// CreateStudent creates a student enrolled in the given groups.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName string, groupIDs ...primitive.ObjectID) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	student := models.Student{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		GroupIDs:   groupIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("students").InsertOne(ctx, student); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return student
}

// CreateStudentWithGuardian creates a student whose guardian has a
// WhatsApp number, making them reachable by absence notifications.
func (f *Fixtures) CreateStudentWithGuardian(ctx context.Context, fullName, guardianNumber string, groupIDs ...primitive.ObjectID) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	student := models.Student{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		GroupIDs:   groupIDs,
		Guardian: models.GuardianInfo{
			Name:           fullName + " Guardian",
			WhatsAppNumber: guardianNumber,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("students").InsertOne(ctx, student); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return student
}

// CreateSession creates a session for the group on the given day with
// the given status. Times default to a mid-morning slot.
func (f *Fixtures) CreateSession(ctx context.Context, groupID primitive.ObjectID, title, sessionStatus string, day time.Time) models.Session {
	f.t.Helper()

	now := time.Now().UTC()
	sess := models.Session{
		ID:            primitive.NewObjectID(),
		GroupID:       groupID,
		CourseID:      primitive.NewObjectID(),
		Title:         title,
		Status:        sessionStatus,
		ScheduledDate: day.UTC().Truncate(24 * time.Hour),
		StartTime:     "10:00",
		EndTime:       "12:00",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("sessions").InsertOne(ctx, sess); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return sess
}

// CreateSessionAt creates a scheduled session with an explicit day and
// start time, for attendance-window tests.
func (f *Fixtures) CreateSessionAt(ctx context.Context, groupID primitive.ObjectID, title string, day time.Time, startTime string) models.Session {
	f.t.Helper()

	now := time.Now().UTC()
	sess := models.Session{
		ID:            primitive.NewObjectID(),
		GroupID:       groupID,
		CourseID:      primitive.NewObjectID(),
		Title:         title,
		Status:        status.SessionScheduled,
		ScheduledDate: day.UTC().Truncate(24 * time.Hour),
		StartTime:     startTime,
		EndTime:       "",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("sessions").InsertOne(ctx, sess); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return sess
}

// CreateEvaluation creates an evaluation for a student in a group.
func (f *Fixtures) CreateEvaluation(ctx context.Context, groupID, studentID, instructorID primitive.ObjectID, decision string, criteria models.Criteria) models.Evaluation {
	f.t.Helper()

	now := time.Now().UTC()
	eval := models.Evaluation{
		ID:             primitive.NewObjectID(),
		GroupID:        groupID,
		StudentID:      studentID,
		InstructorID:   instructorID,
		Criteria:       criteria,
		FinalDecision:  decision,
		OverallScore:   criteria.Mean(),
		EvaluatedAt:    now,
		EvaluatedBy:    instructorID,
		LastModifiedAt: now,
		LastModifiedBy: instructorID,
	}

	if _, err := f.db.Collection("evaluations").InsertOne(ctx, eval); err != nil {
		f.t.Fatalf("failed to create test evaluation: %v", err)
	}
	return eval
}

// CreateIntent creates a pending notification intent due immediately.
func (f *Fixtures) CreateIntent(ctx context.Context, eventType string, groupID primitive.ObjectID, subjectIDs []primitive.ObjectID, context map[string]string) models.NotificationIntent {
	f.t.Helper()

	now := time.Now().UTC()
	intent := models.NotificationIntent{
		ID:            primitive.NewObjectID(),
		EventType:     eventType,
		GroupID:       groupID,
		SubjectIDs:    subjectIDs,
		Context:       context,
		Status:        status.IntentPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("notification_intents").InsertOne(ctx, intent); err != nil {
		f.t.Fatalf("failed to create test notification intent: %v", err)
	}
	return intent
}
