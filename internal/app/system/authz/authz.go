// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's parsed role, name, Mongo ObjectID, and a
// found flag. If no user is present, the role is unknown, or the user ID
// is malformed, it returns ok=false so callers can trust that ok=true
// means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role Role, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	role, ok = ParseRole(user.Role)
	if !ok {
		// Unknown role in the token or user record - fail closed.
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", "", primitive.NilObjectID, false
	}
	return role, user.Name, userID, true
}
