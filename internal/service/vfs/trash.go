package vfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	"dotfile/internal/domain/repositories"
	repos "dotfile/internal/domain/repositories/vfs"
	services "dotfile/internal/domain/services/vfs"
)

// TrashEngine implements the trash state machine. Soft delete stamps
// only the node itself; descendants stay live and become unreachable
// through normal listing because their nearest trashed ancestor hides
// the path. Permanent delete is the only operation that recurses over
// the full subtree regardless of each descendant's own trash state.
type TrashEngine struct {
	folders   repos.FolderRepository
	files     repos.FileRepository
	counts    *CountTracker
	resolver  *NameResolver
	paths     *PathMaterializer
	validator *ResourceValidator
	txManager repositories.TransactionManager
	storage   services.ByteStorage
	logger    *slog.Logger
}

// NewTrashEngine creates a new trash engine
func NewTrashEngine(
	folders repos.FolderRepository,
	files repos.FileRepository,
	counts *CountTracker,
	resolver *NameResolver,
	paths *PathMaterializer,
	validator *ResourceValidator,
	txManager repositories.TransactionManager,
	storage services.ByteStorage,
	logger *slog.Logger,
) *TrashEngine {
	return &TrashEngine{
		folders:   folders,
		files:     files,
		counts:    counts,
		resolver:  resolver,
		paths:     paths,
		validator: validator,
		txManager: txManager,
		storage:   storage,
		logger:    logger,
	}
}

// SoftDelete moves a live node to trash. The node stops counting as a
// living direct child of its parent; its own descendants are not
// touched.
func (e *TrashEngine) SoftDelete(ctx context.Context, kind models.NodeKind, nodeID, ownerID string) (models.Item, error) {
	var item models.Item

	err := e.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = fetchItemForUpdate(ctx, e.folders, e.files, kind, nodeID, ownerID)
		if err != nil {
			return err
		}

		node := item.Base()
		if node.IsTrashed() {
			return &domain.InvalidStateError{Message: fmt.Sprintf("%s %q is already in trash", kind, node.Name)}
		}

		now := time.Now()
		node.DeletedAt = &now
		node.UpdatedAt = now
		if err := saveItem(ctx, e.folders, e.files, item); err != nil {
			return err
		}

		return e.counts.Decrement(ctx, node.ParentID, ownerID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("node trashed",
		"kind", kind,
		"id", nodeID,
		"owner_id", ownerID,
	)

	return item, nil
}

// Restore brings a trashed node back to life. The original parent must
// still exist and be live; otherwise the caller is told the location
// is gone and the node stays trashed. Descendants that were trashed
// independently stay trashed - each must be restored on its own.
func (e *TrashEngine) Restore(ctx context.Context, kind models.NodeKind, nodeID, ownerID string) (models.Item, error) {
	var item models.Item

	err := e.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = fetchItemForUpdate(ctx, e.folders, e.files, kind, nodeID, ownerID)
		if err != nil {
			return err
		}

		node := item.Base()
		if !node.IsTrashed() {
			return &domain.InvalidStateError{Message: fmt.Sprintf("%s %q is not in trash", kind, node.Name)}
		}

		var parent *models.Folder
		if node.ParentID != nil {
			parent, err = e.folders.GetByID(ctx, *node.ParentID, ownerID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("load parent folder: %w", err)
			}
			if err != nil || parent.IsTrashed() {
				return &domain.LocationUnavailableError{
					Message: fmt.Sprintf("the original location of %q no longer exists; restore its parent folder first or delete the item permanently", node.Name),
				}
			}
		}

		// A living sibling may have claimed the name while this node sat
		// in trash; fall back to the counter suffix to keep siblings
		// unique.
		extension := ""
		if file, ok := item.(*models.File); ok {
			extension = file.Extension
		}
		resolution, err := e.resolver.Resolve(ctx, &ResolveRequest{
			Kind:      kind,
			Name:      node.Name,
			Extension: extension,
			ParentID:  node.ParentID,
			OwnerID:   ownerID,
			Action:    models.DuplicateKeepBoth,
			ExcludeID: node.ID,
		})
		if err != nil {
			return err
		}

		oldPath, oldName, oldDepth := node.Path, node.Name, len(node.PathSegments)

		node.Name = resolution.Name
		node.Path, node.PathSegments = ComputeNodePath(parent, node.Name)
		node.DeletedAt = nil
		node.UpdatedAt = time.Now()
		if err := saveItem(ctx, e.folders, e.files, item); err != nil {
			return err
		}

		if folder, ok := item.(*models.Folder); ok {
			if err := e.paths.CascadeRewrite(ctx, ownerID, folder, oldPath, oldName, oldDepth); err != nil {
				return err
			}
		}

		return e.counts.Increment(ctx, node.ParentID, ownerID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("node restored",
		"kind", kind,
		"id", nodeID,
		"owner_id", ownerID,
		"name", item.Base().Name,
	)

	return item, nil
}

// PermanentDelete removes a node and its entire subtree, child-first.
// Byte-storage cleanup failures are logged and skipped so metadata
// cleanup always completes. Deleting an id that is already gone is a
// no-op, which makes a retried delete safe.
func (e *TrashEngine) PermanentDelete(ctx context.Context, kind models.NodeKind, nodeID, ownerID string) error {
	return e.txManager.ExecTx(ctx, func(ctx context.Context) error {
		_, _, err := e.purgeByID(ctx, kind, nodeID, ownerID)
		return err
	})
}

// ListTrash returns the flat trash view: only nodes whose own
// deleted_at is set appear, and a trashed node nested under another
// trashed node is folded into its ancestor's entry.
func (e *TrashEngine) ListTrash(ctx context.Context, ownerID string) (*models.TrashListing, error) {
	trashedFolders, err := e.folders.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed folders: %w", err)
	}
	trashedFiles, err := e.files.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed files: %w", err)
	}

	listing := &models.TrashListing{Folders: []models.Folder{}, Files: []models.File{}}
	for i := range trashedFolders {
		top, err := e.isTopLevelTrashed(ctx, &trashedFolders[i].Node, ownerID)
		if err != nil {
			return nil, err
		}
		if top {
			listing.Folders = append(listing.Folders, trashedFolders[i])
		}
	}
	for i := range trashedFiles {
		top, err := e.isTopLevelTrashed(ctx, &trashedFiles[i].Node, ownerID)
		if err != nil {
			return nil, err
		}
		if top {
			listing.Files = append(listing.Files, trashedFiles[i])
		}
	}

	return listing, nil
}

// EmptyTrash permanently deletes every top-level trashed node owned by
// ownerID. Nodes nested under another trashed node are purged with
// their ancestor rather than double-counted. Each top-level purge is
// its own transaction, so a failure partway leaves the remaining
// entries purgeable by a re-run.
func (e *TrashEngine) EmptyTrash(ctx context.Context, ownerID string) (*models.EmptyTrashResult, error) {
	listing, err := e.ListTrash(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := &models.EmptyTrashResult{}
	for i := range listing.Folders {
		id := listing.Folders[i].ID
		err := e.txManager.ExecTx(ctx, func(ctx context.Context) error {
			foldersGone, filesGone, err := e.purgeByID(ctx, models.KindFolder, id, ownerID)
			result.Folders += foldersGone
			result.Files += filesGone
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("empty trash: purge folder %s: %w", id, err)
		}
	}
	for i := range listing.Files {
		id := listing.Files[i].ID
		err := e.txManager.ExecTx(ctx, func(ctx context.Context) error {
			foldersGone, filesGone, err := e.purgeByID(ctx, models.KindFile, id, ownerID)
			result.Folders += foldersGone
			result.Files += filesGone
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("empty trash: purge file %s: %w", id, err)
		}
	}

	e.logger.Info("trash emptied",
		"owner_id", ownerID,
		"folders", result.Folders,
		"files", result.Files,
	)

	return result, nil
}

// isTopLevelTrashed reports whether none of the node's ancestors are
// themselves trashed.
func (e *TrashEngine) isTopLevelTrashed(ctx context.Context, node *models.Node, ownerID string) (bool, error) {
	hasTrashedAncestor, err := e.validator.HasDeletedAncestor(ctx, node.ParentID, ownerID)
	if err != nil {
		// A missing ancestor row can only mean a purge is underway;
		// treat the node as already covered.
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !hasTrashedAncestor, nil
}

// purgeByID resolves the node and purges its subtree. A node that is
// already gone purges to nothing.
func (e *TrashEngine) purgeByID(ctx context.Context, kind models.NodeKind, nodeID, ownerID string) (foldersGone, filesGone int, err error) {
	item, err := fetchItemForUpdate(ctx, e.folders, e.files, kind, nodeID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	// Only the top node still counts as a living child of a surviving
	// parent; everything below it disappears together with its parent.
	if !item.Base().IsTrashed() {
		if err := e.counts.Decrement(ctx, item.Base().ParentID, ownerID); err != nil {
			return 0, 0, err
		}
	}

	switch it := item.(type) {
	case *models.Folder:
		return e.purgeFolder(ctx, it, ownerID)
	case *models.File:
		if err := e.purgeFile(ctx, it, ownerID); err != nil {
			return 0, 0, err
		}
		return 0, 1, nil
	}
	return 0, 0, nil
}

// purgeFolder removes a folder subtree child-first.
func (e *TrashEngine) purgeFolder(ctx context.Context, folder *models.Folder, ownerID string) (foldersGone, filesGone int, err error) {
	childFolders, err := e.folders.ListChildren(ctx, &folder.ID, ownerID, true)
	if err != nil {
		return 0, 0, fmt.Errorf("list child folders of %s: %w", folder.ID, err)
	}
	for i := range childFolders {
		fGone, fiGone, err := e.purgeFolder(ctx, &childFolders[i], ownerID)
		if err != nil {
			return foldersGone, filesGone, err
		}
		foldersGone += fGone
		filesGone += fiGone
	}

	childFiles, err := e.files.ListChildren(ctx, &folder.ID, ownerID, true)
	if err != nil {
		return foldersGone, filesGone, fmt.Errorf("list child files of %s: %w", folder.ID, err)
	}
	for i := range childFiles {
		if err := e.purgeFile(ctx, &childFiles[i], ownerID); err != nil {
			return foldersGone, filesGone, err
		}
		filesGone++
	}

	if err := e.folders.Delete(ctx, folder.ID, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return foldersGone, filesGone, nil
		}
		return foldersGone, filesGone, err
	}

	e.logger.Debug("folder purged", "id", folder.ID, "name", folder.Name)
	return foldersGone + 1, filesGone, nil
}

// purgeFile drops the file's bytes, then its metadata record. Storage
// cleanup failure must not block metadata deletion.
func (e *TrashEngine) purgeFile(ctx context.Context, file *models.File, ownerID string) error {
	if file.StorageKey != "" {
		if err := e.storage.DeleteBytes(ctx, file.StorageKey); err != nil {
			e.logger.Warn("byte storage cleanup failed, continuing",
				"file_id", file.ID,
				"storage_key", file.StorageKey,
				"error", err,
			)
		}
	}

	if err := e.files.Delete(ctx, file.ID, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	e.logger.Debug("file purged", "id", file.ID, "name", file.Name)
	return nil
}
