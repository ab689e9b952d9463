// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is an enrolled learner. The roster of a group is the set of
// non-deleted students whose group_ids contains the group.
type Student struct {
	ID         primitive.ObjectID   `bson:"_id" json:"id"`
	FullName   string               `bson:"full_name" json:"full_name"`
	FullNameCI string               `bson:"full_name_ci" json:"full_name_ci"`
	Email      string               `bson:"email,omitempty" json:"email,omitempty"`
	GroupIDs   []primitive.ObjectID `bson:"group_ids" json:"group_ids"`

	Guardian GuardianInfo `bson:"guardian" json:"guardian"`

	Status    string    `bson:"status,omitempty" json:"status,omitempty"`
	IsDeleted bool      `bson:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GuardianInfo is the guardian contact used by absence notifications.
// WhatsAppNumber is required whenever guardian automation is active and
// the student is marked absent, late, or excused.
type GuardianInfo struct {
	Name           string `bson:"name,omitempty" json:"name,omitempty"`
	WhatsAppNumber string `bson:"whatsapp_number,omitempty" json:"whatsapp_number,omitempty"`
}

// InGroup reports whether the student belongs to the given group.
func (s Student) InGroup(groupID primitive.ObjectID) bool {
	for _, gid := range s.GroupIDs {
		if gid == groupID {
			return true
		}
	}
	return false
}
