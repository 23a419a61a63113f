package vfs

import (
	"context"

	services "dotfile/internal/domain/services/vfs"
)

// ownerOnlyPermissions is the default PermissionChecker: until a
// sharing subsystem is plugged in, nobody but the owner sees anything.
type ownerOnlyPermissions struct{}

// NewOwnerOnlyPermissions creates a checker that denies every
// non-owner actor
func NewOwnerOnlyPermissions() services.PermissionChecker {
	return ownerOnlyPermissions{}
}

func (ownerOnlyPermissions) HasPermission(ctx context.Context, nodeID, actorID, ownerID string, level services.PermissionLevel) (bool, error) {
	return actorID == ownerID, nil
}
