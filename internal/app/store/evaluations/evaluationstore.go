// internal/app/store/evaluations/evaluationstore.go
package evaluationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/cohorthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrDuplicateEvaluation surfaces the unique (group_id, student_id)
// index: two concurrent first-time inserts for the same student.
var ErrDuplicateEvaluation = errors.New("an evaluation for this student already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("evaluations")}
}

func (s *Store) GetByGroupStudent(ctx context.Context, groupID, studentID primitive.ObjectID) (models.Evaluation, error) {
	var e models.Evaluation
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "student_id": studentID}).Decode(&e)
	if err != nil {
		return models.Evaluation{}, err
	}
	return e, nil
}

// Insert creates the first evaluation for (group, student), stamping
// both the evaluated and last-modified pairs to the same actor/time.
func (s *Store) Insert(ctx context.Context, e models.Evaluation) (models.Evaluation, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.EvaluatedAt = now
	e.EvaluatedBy = e.InstructorID
	e.LastModifiedAt = now
	e.LastModifiedBy = e.InstructorID
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Evaluation{}, ErrDuplicateEvaluation
		}
		return models.Evaluation{}, err
	}
	return e, nil
}

// Update rewrites the scored fields of an existing evaluation in place,
// preserving the original evaluated_at/evaluated_by and refreshing the
// last-modified pair.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, criteria models.Criteria, decision string, score float64, notes string, by primitive.ObjectID) (models.Evaluation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Evaluation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"criteria":         criteria,
			"final_decision":   decision,
			"overall_score":    score,
			"notes":            notes,
			"instructor_id":    by,
			"last_modified_at": time.Now().UTC(),
			"last_modified_by": by,
		}}, opts).Decode(&updated)
	if err != nil {
		return models.Evaluation{}, err
	}
	return updated, nil
}

// ListByGroup returns all evaluations for a group keyed by student.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) (map[primitive.ObjectID]models.Evaluation, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]models.Evaluation)
	for cur.Next(ctx) {
		var e models.Evaluation
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out[e.StudentID] = e
	}
	return out, cur.Err()
}
