package vfs

import (
	"context"

	"dotfile/internal/domain/models/vfs"
)

// FileRepository defines data access operations for files, owner-scoped
// the same way as FolderRepository.
type FileRepository interface {
	// Create creates a new file record
	Create(ctx context.Context, file *vfs.File) error

	// GetByID retrieves a file by ID, whether live or trashed
	GetByID(ctx context.Context, id, ownerID string) (*vfs.File, error)

	// GetByIDForUpdate retrieves a file and locks its row for the
	// duration of the surrounding transaction, serializing concurrent
	// structural edits of the same node
	GetByIDForUpdate(ctx context.Context, id, ownerID string) (*vfs.File, error)

	// Update persists name, parent, path data, pin and deleted_at
	Update(ctx context.Context, file *vfs.File) error

	// Delete permanently removes a file record
	Delete(ctx context.Context, id, ownerID string) error

	// ListChildren lists files directly inside a folder. Trashed files
	// are included only when includeDeleted is set.
	ListChildren(ctx context.Context, parentID *string, ownerID string, includeDeleted bool) ([]vfs.File, error)

	// FindLivingByName finds a living sibling file with the given name
	// and extension, or nil when there is none
	FindLivingByName(ctx context.Context, name, extension string, parentID *string, ownerID string) (*vfs.File, error)

	// ListByPathPrefix lists every file (live and trashed) whose path
	// starts with prefix + "/"
	ListByPathPrefix(ctx context.Context, ownerID, prefix string) ([]vfs.File, error)

	// UpdatePathData rewrites only the denormalized path columns
	UpdatePathData(ctx context.Context, id, ownerID, path string, segments []vfs.PathSegment) error

	// ListTrashed lists every file whose own deleted_at is set
	ListTrashed(ctx context.Context, ownerID string) ([]vfs.File, error)
}
