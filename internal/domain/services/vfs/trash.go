package vfs

import (
	"context"

	"dotfile/internal/domain/models/vfs"
)

// TrashService implements the trash state machine:
// Live -> Trashed (soft delete) -> Live (restore) or Gone (permanent
// delete, terminal). Children of a trashed folder stay live themselves
// and remain independently restorable or deletable.
type TrashService interface {
	// SoftDelete moves a live node to trash
	SoftDelete(ctx context.Context, kind vfs.NodeKind, nodeID, ownerID string) (vfs.Item, error)

	// Restore brings a trashed node back, provided its original parent
	// still exists and is live
	Restore(ctx context.Context, kind vfs.NodeKind, nodeID, ownerID string) (vfs.Item, error)

	// PermanentDelete removes a node and every descendant, live or
	// trashed, child-first. Re-deleting a gone node is a no-op.
	PermanentDelete(ctx context.Context, kind vfs.NodeKind, nodeID, ownerID string) error

	// ListTrash returns the flat trash view: nodes whose own deleted_at
	// is set and whose ancestors are all live
	ListTrash(ctx context.Context, ownerID string) (*vfs.TrashListing, error)

	// EmptyTrash permanently deletes every top-level trashed node
	EmptyTrash(ctx context.Context, ownerID string) (*vfs.EmptyTrashResult, error)
}
