package vfs

import (
	"context"
	"fmt"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
)

// items.go - Kind-dispatch helpers shared by the hierarchy service and
// the trash engine. Both node kinds flow through the same operations;
// only the repository they live in differs.

// fetchItem loads a node of either kind, owner-scoped.
func fetchItem(ctx context.Context, folders repos.FolderRepository, files repos.FileRepository, kind models.NodeKind, id, ownerID string) (models.Item, error) {
	switch kind {
	case models.KindFolder:
		return folders.GetByID(ctx, id, ownerID)
	case models.KindFile:
		return files.GetByID(ctx, id, ownerID)
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown node kind %q", kind)}
	}
}

// fetchItemForUpdate loads a node of either kind with its row locked
// for the surrounding transaction. Structural edits (rename, move,
// trash transitions, purge) go through this so two concurrent edits of
// the same node serialize instead of both reading the same stale
// parent and corrupting item counts.
func fetchItemForUpdate(ctx context.Context, folders repos.FolderRepository, files repos.FileRepository, kind models.NodeKind, id, ownerID string) (models.Item, error) {
	switch kind {
	case models.KindFolder:
		return folders.GetByIDForUpdate(ctx, id, ownerID)
	case models.KindFile:
		return files.GetByIDForUpdate(ctx, id, ownerID)
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown node kind %q", kind)}
	}
}

// saveItem persists a node of either kind.
func saveItem(ctx context.Context, folders repos.FolderRepository, files repos.FileRepository, item models.Item) error {
	switch it := item.(type) {
	case *models.Folder:
		return folders.Update(ctx, it)
	case *models.File:
		return files.Update(ctx, it)
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown item type %T", item)}
	}
}

// collectDescendantFolderIDs enumerates every folder in the subtree of
// rootID (live and trashed) by walking parent links. The move cycle
// guard uses the full enumeration rather than an ancestor walk so a
// concurrent edit higher in the tree cannot hide a descendant.
func collectDescendantFolderIDs(ctx context.Context, folders repos.FolderRepository, rootID, ownerID string) (map[string]bool, error) {
	ids := map[string]bool{rootID: true}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := folders.ListChildren(ctx, &current, ownerID, true)
		if err != nil {
			return nil, fmt.Errorf("enumerate children of folder %s: %w", current, err)
		}
		for _, child := range children {
			if ids[child.ID] {
				continue
			}
			ids[child.ID] = true
			queue = append(queue, child.ID)
		}
	}

	return ids, nil
}
