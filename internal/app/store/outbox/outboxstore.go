// internal/app/store/outbox/outboxstore.go
package outboxstore

import (
	"context"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the notification outbox. Request handlers Enqueue intents
// after their primary mutation commits; the outbox worker owns every
// later transition (claim, deliver, reschedule, park).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notification_intents")}
}

// Enqueue writes a pending intent due immediately.
func (s *Store) Enqueue(ctx context.Context, intent models.NotificationIntent) (models.NotificationIntent, error) {
	now := time.Now().UTC()
	intent.ID = primitive.NewObjectID()
	intent.Status = status.IntentPending
	intent.Attempts = 0
	intent.NextAttemptAt = now
	intent.CreatedAt = now
	intent.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, intent); err != nil {
		return models.NotificationIntent{}, err
	}
	return intent, nil
}

// ClaimNextDue atomically claims the oldest due pending intent
// (pending -> processing, attempts incremented). Returns
// mongo.ErrNoDocuments when nothing is due, which callers treat as an
// idle tick. The compare-and-swap makes concurrent workers safe.
func (s *Store) ClaimNextDue(ctx context.Context, now time.Time) (models.NotificationIntent, error) {
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)

	var intent models.NotificationIntent
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"status":          status.IntentPending,
			"next_attempt_at": bson.M{"$lte": now},
		},
		bson.M{
			"$set": bson.M{"status": status.IntentProcessing, "updated_at": now},
			"$inc": bson.M{"attempts": 1},
		}, opts).Decode(&intent)
	if err != nil {
		return models.NotificationIntent{}, err
	}
	return intent, nil
}

// MarkDelivered finalizes a successfully dispatched intent.
func (s *Store) MarkDelivered(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":       status.IntentDelivered,
			"delivered_at": now,
			"updated_at":   now,
			"last_error":   "",
		}})
	return err
}

// Reschedule returns a failed attempt to pending, due again at nextAt.
func (s *Store) Reschedule(ctx context.Context, id primitive.ObjectID, cause string, nextAt time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          status.IntentPending,
			"last_error":      cause,
			"next_attempt_at": nextAt,
			"updated_at":      time.Now().UTC(),
		}})
	return err
}

// MarkFailed parks an intent permanently after the attempt budget is
// spent. Parked intents are kept for operator inspection, never retried.
func (s *Store) MarkFailed(ctx context.Context, id primitive.ObjectID, cause string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     status.IntentFailed,
			"last_error": cause,
			"updated_at": time.Now().UTC(),
		}})
	return err
}

// GetByID is used by tests and operator tooling.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.NotificationIntent, error) {
	var intent models.NotificationIntent
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&intent); err != nil {
		return models.NotificationIntent{}, err
	}
	return intent, nil
}

// CountByStatus reports how many intents sit in the given state.
func (s *Store) CountByStatus(ctx context.Context, st string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": st})
}
