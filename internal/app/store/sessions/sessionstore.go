// internal/app/store/sessions/sessionstore.go
package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrAttendanceTaken means the one-shot guard already fired: the
	// session's attendance_taken flag was true when the compare-and-swap
	// ran.
	ErrAttendanceTaken = errors.New("attendance has already been taken for this session")

	// ErrStatusChanged means the session's status moved under a
	// conditional update (concurrent writer).
	ErrStatusChanged = errors.New("session status changed concurrently")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// GetByID returns the session if it exists and is not soft-deleted.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	var sess models.Session
	err := s.c.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&sess)
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// ListByGroup returns the group's non-deleted sessions in schedule order.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "scheduled_date", Value: 1},
		{Key: "start_time", Value: 1},
	})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID, "is_deleted": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a session. Scheduling tooling and fixtures use this;
// the API surface itself never creates sessions.
func (s *Store) Create(ctx context.Context, sess models.Session) (models.Session, error) {
	now := time.Now().UTC()
	sess.ID = primitive.NewObjectID()
	if sess.Status == "" {
		sess.Status = status.SessionScheduled
	}
	if sess.Attendance == nil {
		sess.Attendance = []models.AttendanceRecord{}
	}
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// SetStatus moves the session from prior to next. The filter pins the
// prior status so the attendance side effect is applied against the
// state the caller saw:
//   - leaving "completed" clears attendance and resets attendance_taken;
//   - entering "completed" leaves any existing attendance untouched.
//
// Returns ErrStatusChanged if the session moved underneath the caller.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, prior, next string) (models.Session, error) {
	set := bson.M{
		"status":     next,
		"updated_at": time.Now().UTC(),
	}
	if prior == status.SessionCompleted && next != status.SessionCompleted {
		set["attendance"] = []models.AttendanceRecord{}
		set["attendance_taken"] = false
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Session
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": false, "status": prior},
		bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Distinguish "gone" from "moved".
		if _, gerr := s.GetByID(ctx, id); gerr == nil {
			return models.Session{}, ErrStatusChanged
		}
		return models.Session{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Session{}, err
	}
	return updated, nil
}

// UpdateInfo updates the mutable non-status fields. Nil pointers leave
// the stored value unchanged.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, meetingLink, notes *string) (models.Session, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if meetingLink != nil {
		set["meeting_link"] = *meetingLink
	}
	if notes != nil {
		set["notes"] = *notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Session
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return models.Session{}, err
	}
	return updated, nil
}

// CommitAttendance is the one-shot attendance write: a single
// compare-and-swap on attendance_taken=false that stores the records,
// flips the guard, and completes the session. If the guard was already
// set, it returns ErrAttendanceTaken without touching the document; a
// concurrent double-submit loses the swap and gets the same error.
func (s *Store) CommitAttendance(ctx context.Context, id primitive.ObjectID, records []models.AttendanceRecord) (models.Session, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Session
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": false, "attendance_taken": false},
		bson.M{"$set": bson.M{
			"attendance":       records,
			"attendance_taken": true,
			"status":           status.SessionCompleted,
			"updated_at":       time.Now().UTC(),
		}}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		if _, gerr := s.GetByID(ctx, id); gerr == nil {
			return models.Session{}, ErrAttendanceTaken
		}
		return models.Session{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Session{}, err
	}
	return updated, nil
}

// SoftDelete marks the session deleted. Deleted sessions drop out of
// every read path and out of group status reconciliation.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
