package vfs

import (
	"context"
	"fmt"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
)

// NameResolver guarantees sibling-name uniqueness among living nodes of
// the same kind (and, for files, the same extension) under one parent.
//
// Without a duplicate action a collision is a reportable conflict so
// the caller can prompt for a decision. "keepBoth" appends " (2)",
// " (3)", ... until no collision remains; "replace" hands the
// conflicting node back to the caller for permanent deletion before
// the new name is written.
type NameResolver struct {
	folders repos.FolderRepository
	files   repos.FileRepository
}

// NewNameResolver creates a new name resolver
func NewNameResolver(folders repos.FolderRepository, files repos.FileRepository) *NameResolver {
	return &NameResolver{folders: folders, files: files}
}

// ResolveRequest describes one naming decision.
type ResolveRequest struct {
	Kind      models.NodeKind
	Name      string
	Extension string  // files only
	ParentID  *string // nil for root
	OwnerID   string
	Action    models.DuplicateAction
	ExcludeID string // node being renamed/moved; it never conflicts with itself
}

// Resolution is the outcome: the final name to use and, for the
// replace directive, the conflicting node the caller must purge first.
type Resolution struct {
	Name          string
	ReplaceTarget models.Item
}

// Resolve returns a name guaranteed unique among living siblings at
// the time of the store reads. The counter loop is bounded only by
// actual data, so it terminates.
func (r *NameResolver) Resolve(ctx context.Context, req *ResolveRequest) (*Resolution, error) {
	conflict, err := r.findConflict(ctx, req, req.Name)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return &Resolution{Name: req.Name}, nil
	}

	switch req.Action {
	case models.DuplicateReplace:
		return &Resolution{Name: req.Name, ReplaceTarget: conflict}, nil

	case models.DuplicateKeepBoth:
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s (%d)", req.Name, n)
			existing, err := r.findConflict(ctx, req, candidate)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return &Resolution{Name: candidate}, nil
			}
		}

	default:
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("a %s named %q already exists in this location", req.Kind, req.Name),
			ResourceType: string(req.Kind),
			ResourceID:   conflict.Base().ID,
			Name:         req.Name,
		}
	}
}

// findConflict looks up a living sibling of the same kind holding the
// candidate name, ignoring the excluded node.
func (r *NameResolver) findConflict(ctx context.Context, req *ResolveRequest, name string) (models.Item, error) {
	switch req.Kind {
	case models.KindFolder:
		folder, err := r.folders.FindLivingByName(ctx, name, req.ParentID, req.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("check folder name %q: %w", name, err)
		}
		if folder == nil || folder.ID == req.ExcludeID {
			return nil, nil
		}
		return folder, nil

	case models.KindFile:
		file, err := r.files.FindLivingByName(ctx, name, req.Extension, req.ParentID, req.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("check file name %q: %w", name, err)
		}
		if file == nil || file.ID == req.ExcludeID {
			return nil, nil
		}
		return file, nil

	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown node kind %q", req.Kind)}
	}
}
