// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"

	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	err := s.c.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&st)
	if err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// ListByGroup returns the group's roster: non-deleted students whose
// group_ids contains the group, sorted by folded name.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_ids": groupID, "is_deleted": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByGroup returns the roster size without loading documents.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_ids": groupID, "is_deleted": false})
}
