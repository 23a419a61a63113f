package vfs

import (
	"context"
)

// ByteStorage is the external collaborator that owns physical file
// contents. The engine only ever asks it to drop bytes during permanent
// delete; failures there are logged and never block metadata cleanup.
type ByteStorage interface {
	DeleteBytes(ctx context.Context, storageKey string) error
}

// PermissionLevel is the access level requested from the permission
// collaborator for non-owner actors.
type PermissionLevel string

const (
	PermissionRead  PermissionLevel = "read"
	PermissionWrite PermissionLevel = "write"
)

// PermissionChecker is the narrow view of the sharing subsystem: "does
// this actor have permission P on this node". The engine is agnostic to
// the permission model's internals.
type PermissionChecker interface {
	HasPermission(ctx context.Context, nodeID, actorID, ownerID string, level PermissionLevel) (bool, error)
}
