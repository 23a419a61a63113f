package vfs

import (
	"context"

	"dotfile/internal/domain/models/vfs"
)

// FolderRepository defines data access operations for folders.
// Every lookup is scoped by owner: cross-owner reads and writes must
// never succeed at this boundary, regardless of what the caller checked.
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *vfs.Folder) error

	// GetByID retrieves a folder by ID, whether live or trashed
	GetByID(ctx context.Context, id, ownerID string) (*vfs.Folder, error)

	// GetByIDForUpdate retrieves a folder and locks its row for the
	// duration of the surrounding transaction, serializing concurrent
	// structural edits of the same node
	GetByIDForUpdate(ctx context.Context, id, ownerID string) (*vfs.Folder, error)

	// Update persists name, parent, path data, pin/color and deleted_at
	Update(ctx context.Context, folder *vfs.Folder) error

	// Delete permanently removes a folder record
	Delete(ctx context.Context, id, ownerID string) error

	// ListChildren lists immediate child folders. Trashed children are
	// included only when includeDeleted is set.
	ListChildren(ctx context.Context, parentID *string, ownerID string, includeDeleted bool) ([]vfs.Folder, error)

	// FindLivingByName finds a living sibling folder with the given name,
	// or nil when there is none
	FindLivingByName(ctx context.Context, name string, parentID *string, ownerID string) (*vfs.Folder, error)

	// ListByPathPrefix lists every folder (live and trashed) whose path
	// equals prefix or starts with prefix + "/"
	ListByPathPrefix(ctx context.Context, ownerID, prefix string) ([]vfs.Folder, error)

	// UpdatePathData rewrites only the denormalized path columns
	UpdatePathData(ctx context.Context, id, ownerID, path string, segments []vfs.PathSegment) error

	// AdjustItems adds delta to the folder's direct-child count,
	// clamped at a floor of zero
	AdjustItems(ctx context.Context, id, ownerID string, delta int) error

	// ListTrashed lists every folder whose own deleted_at is set
	ListTrashed(ctx context.Context, ownerID string) ([]vfs.Folder, error)
}
