// Package access decides whether a caller may act on a resource.
package access

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quill/models"
)

// Identity is the acting user as resolved from the request credential.
type Identity struct {
	ID   primitive.ObjectID
	Role string
}

// IdentityOf builds the identity for a stored user.
func IdentityOf(user *models.User) Identity {
	return Identity{ID: user.ID, Role: user.Role}
}

func IsAdmin(caller Identity) bool {
	return caller.Role == models.RoleAdmin
}

// CanModify reports whether caller may update or delete a resource owned
// by authorID. It must be checked before any write.
func CanModify(caller Identity, authorID primitive.ObjectID) bool {
	if caller.ID.IsZero() {
		return false
	}
	return caller.ID == authorID || IsAdmin(caller)
}
