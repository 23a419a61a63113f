package vfs

import (
	"context"
	"fmt"

	repos "dotfile/internal/domain/repositories/vfs"
)

// CountTracker is the single increment/decrement surface for folder
// item counts. Every structural operation that adds or removes a
// living direct child of a folder calls exactly one of these, exactly
// once, for exactly the immediate parent - never for ancestors further
// up. Root-level changes (nil folder ID) are no-ops.
type CountTracker struct {
	folders repos.FolderRepository
}

// NewCountTracker creates a new count tracker
func NewCountTracker(folders repos.FolderRepository) *CountTracker {
	return &CountTracker{folders: folders}
}

// Increment adds one to the folder's direct-child count
func (t *CountTracker) Increment(ctx context.Context, folderID *string, ownerID string) error {
	if folderID == nil {
		return nil
	}
	if err := t.folders.AdjustItems(ctx, *folderID, ownerID, 1); err != nil {
		return fmt.Errorf("increment items of folder %s: %w", *folderID, err)
	}
	return nil
}

// Decrement subtracts one from the folder's direct-child count.
// The store clamps the count at zero.
func (t *CountTracker) Decrement(ctx context.Context, folderID *string, ownerID string) error {
	if folderID == nil {
		return nil
	}
	if err := t.folders.AdjustItems(ctx, *folderID, ownerID, -1); err != nil {
		return fmt.Errorf("decrement items of folder %s: %w", *folderID, err)
	}
	return nil
}
