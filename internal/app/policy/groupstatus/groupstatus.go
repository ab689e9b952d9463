// internal/app/policy/groupstatus/groupstatus.go
//
// Package groupstatus derives a group's lifecycle status from its
// session history. A group is "completed" iff it has at least one
// non-deleted session and every one of them is completed.
//
// Reconciliation is pull-based: every read or write path that needs an
// authoritative group status calls Reconcile first. That trades some
// redundant scans for freedom from an event bus; under read-your-own-
// writes semantics the result is always current.
package groupstatus

import (
	"context"
	"time"

	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
	sessionstore "github.com/dalemusser/cohorthub/internal/app/store/sessions"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionRef identifies an incomplete session in diagnostics.
type SessionRef struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title,omitempty"`
	Status        string             `json:"status"`
	ScheduledDate time.Time          `json:"scheduled_date"`
}

// Result is the authoritative status plus the completion breakdown the
// evaluation gate reports on rejection.
type Result struct {
	Status     string       `json:"status"`
	Total      int          `json:"total_sessions"`
	Completed  int          `json:"completed_sessions"`
	Incomplete []SessionRef `json:"incomplete_sessions"`
}

// AllCompleted reports whether every session is completed (and at least
// one exists).
func (r Result) AllCompleted() bool {
	return r.Total > 0 && r.Completed == r.Total
}

// Reconcile recomputes and, when necessary, rewrites the group's status.
//
// With no sessions the stored status is returned unchanged. When every
// session is completed and the group is still active, the group is
// flipped to completed and stamped with the acting user (falling back
// to the group's creator, then its first instructor). When any session
// is not completed and the group says completed, it reverts to active
// and the stamps are cleared.
func Reconcile(ctx context.Context, db *mongo.Database, group models.Group, actorID primitive.ObjectID) (Result, error) {
	sessions, err := sessionstore.New(db).ListByGroup(ctx, group.ID)
	if err != nil {
		return Result{}, err
	}

	res := Result{Status: group.Status, Total: len(sessions)}
	for _, s := range sessions {
		if s.Status == status.SessionCompleted {
			res.Completed++
			continue
		}
		res.Incomplete = append(res.Incomplete, SessionRef{
			ID:            s.ID,
			Title:         s.Title,
			Status:        s.Status,
			ScheduledDate: s.ScheduledDate,
		})
	}

	if res.Total == 0 {
		return res, nil
	}

	groups := groupstore.New(db)
	switch {
	case res.AllCompleted() && group.Status != status.Completed:
		by := completedBy(group, actorID)
		if _, err := groups.MarkCompleted(ctx, group.ID, by, time.Now().UTC()); err != nil {
			return Result{}, err
		}
		res.Status = status.Completed

	case !res.AllCompleted() && group.Status == status.Completed:
		if _, err := groups.RevertActive(ctx, group.ID); err != nil {
			return Result{}, err
		}
		res.Status = status.Active
	}

	return res, nil
}

// ReconcileID is Reconcile for callers that have not loaded the group
// yet. Returns mongo.ErrNoDocuments when the group does not exist.
func ReconcileID(ctx context.Context, db *mongo.Database, groupID, actorID primitive.ObjectID) (models.Group, Result, error) {
	group, err := groupstore.New(db).GetByID(ctx, groupID)
	if err != nil {
		return models.Group{}, Result{}, err
	}
	res, err := Reconcile(ctx, db, group, actorID)
	if err != nil {
		return models.Group{}, Result{}, err
	}
	group.Status = res.Status
	return group, res, nil
}

func completedBy(group models.Group, actorID primitive.ObjectID) primitive.ObjectID {
	if actorID != primitive.NilObjectID {
		return actorID
	}
	if group.CreatedBy != primitive.NilObjectID {
		return group.CreatedBy
	}
	if len(group.InstructorIDs) > 0 {
		return group.InstructorIDs[0]
	}
	return primitive.NilObjectID
}
