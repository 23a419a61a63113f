package vfs

import (
	"context"
	"fmt"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
)

// ResourceValidator checks destination folders before structural
// operations and derives trash visibility at read time.
type ResourceValidator struct {
	folders repos.FolderRepository
}

// NewResourceValidator creates a new resource validator
func NewResourceValidator(folders repos.FolderRepository) *ResourceValidator {
	return &ResourceValidator{folders: folders}
}

// ValidateParent ensures the destination folder exists, belongs to the
// owner, and is not itself trashed. A trashed container is not a valid
// destination - the caller cannot "see" it as one. Returns nil for a
// nil parent (root is always valid).
func (v *ResourceValidator) ValidateParent(ctx context.Context, parentID *string, ownerID string) (*models.Folder, error) {
	if parentID == nil {
		return nil, nil
	}

	parent, err := v.folders.GetByID(ctx, *parentID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid parent folder: %w", err)
	}
	if parent.IsTrashed() {
		return nil, &domain.InvalidStateError{
			Message: fmt.Sprintf("folder %q is in trash and cannot be used as a destination", parent.Name),
		}
	}

	return parent, nil
}

// HasDeletedAncestor walks the parent chain from parentID up to root
// and reports whether any ancestor is trashed. The walk is bounded by
// tree depth; computing this at read time avoids keeping a second
// derived flag in sync with every trash transition.
func (v *ResourceValidator) HasDeletedAncestor(ctx context.Context, parentID *string, ownerID string) (bool, error) {
	current := parentID
	for current != nil {
		folder, err := v.folders.GetByID(ctx, *current, ownerID)
		if err != nil {
			return false, fmt.Errorf("walk ancestor %s: %w", *current, err)
		}
		if folder.IsTrashed() {
			return true, nil
		}
		current = folder.ParentID
	}
	return false, nil
}
