// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateGroupName = errors.New("a group with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	if g.Status == "" {
		g.Status = status.Active
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, g)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// MarkCompleted flips an active group to completed and stamps who/when.
// The status filter makes concurrent reconcilers idempotent: only one
// write wins, the rest match nothing. Returns whether this call did the
// flip.
func (s *Store) MarkCompleted(ctx context.Context, id, by primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": status.Active},
		bson.M{"$set": bson.M{
			"status":            status.Completed,
			"meta.completed_at": at,
			"meta.completed_by": by,
			"updated_at":        at,
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RevertActive moves a completed group back to active and clears the
// completion stamps.
func (s *Store) RevertActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": status.Completed},
		bson.M{
			"$set":   bson.M{"status": status.Active, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"meta.completed_at": "", "meta.completed_by": ""},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// EnableEvaluations stamps meta.evaluations_enabled the first time an
// evaluation is recorded for the group. Later calls match nothing.
func (s *Store) EnableEvaluations(ctx context.Context, id, by primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "meta.evaluations_enabled": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"meta.evaluations_enabled":    true,
			"meta.evaluations_enabled_at": now,
			"meta.evaluations_enabled_by": by,
			"updated_at":                  now,
		}})
	return err
}

// SetEvaluationSummary stores the recomputed rollup and maintains the
// evaluations_completed flag. The completion timestamp is stamped only
// on the transition into completed and cleared on the way out.
func (s *Store) SetEvaluationSummary(ctx context.Context, id primitive.ObjectID, sum models.EvaluationSummary, completed bool) error {
	now := time.Now().UTC()
	sum.UpdatedAt = now

	set := bson.M{
		"meta.evaluation_summary":    sum,
		"meta.evaluations_completed": completed,
		"updated_at":                 now,
	}
	update := bson.M{"$set": set}
	if !completed {
		update["$unset"] = bson.M{"meta.evaluations_completed_at": ""}
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return err
	}
	if completed {
		// Stamp only if not already stamped, so re-upserts after
		// completion keep the original time.
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "meta.evaluations_completed_at": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"meta.evaluations_completed_at": now}})
		return err
	}
	return nil
}

// UpdateAutomation replaces the group's automation flags.
func (s *Store) UpdateAutomation(ctx context.Context, id primitive.ObjectID, flags models.AutomationFlags) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"automation": flags, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
