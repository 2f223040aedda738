package auth

import (
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

// AuthorizeOwner allows access iff the authenticated actor owns the resource.
// Callers must have already established that the resource exists; a missing
// resource is NOT_FOUND, never FORBIDDEN.
func AuthorizeOwner(actorUserID, resourceOwnerID string) error {
	if actorUserID == resourceOwnerID {
		return nil
	}
	return apperrors.NewForbidden("not authorized to access this resource")
}
