package vfs

import (
	"context"
	"fmt"
	"log/slog"

	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
)

// PathMaterializer computes and rewrites the denormalized path string
// and breadcrumb segments. ComputeNodePath is a pure computation from
// the new parent; CascadeRewrite bulk-applies the two-phase rewrite to
// a folder's descendants so no caller observes a half-updated subtree
// (the whole operation runs inside the caller's transaction).
type PathMaterializer struct {
	folders repos.FolderRepository
	files   repos.FileRepository
	logger  *slog.Logger
}

// NewPathMaterializer creates a new path materializer
func NewPathMaterializer(folders repos.FolderRepository, files repos.FileRepository, logger *slog.Logger) *PathMaterializer {
	return &PathMaterializer{folders: folders, files: files, logger: logger}
}

// ComputeNodePath returns the materialized path and breadcrumb
// segments for a node named name placed under parent (nil for root).
// For files, name must be the base name without extension.
func ComputeNodePath(parent *models.Folder, name string) (string, []models.PathSegment) {
	segment := SanitizeSegment(name)
	if parent == nil {
		return "/" + segment, []models.PathSegment{}
	}

	segments := make([]models.PathSegment, 0, len(parent.PathSegments)+1)
	segments = append(segments, parent.PathSegments...)
	segments = append(segments, models.PathSegment{ID: parent.ID, Name: parent.Name})

	return BuildPath(parent.Path, segment), segments
}

// CascadeRewrite rewrites path data for every descendant (live and
// trashed) of a renamed or moved folder. The folder itself must
// already carry its new name, path and segments; oldPath, oldName and
// oldDepth (the previous ancestor count) describe its state before the
// change.
//
// A case-only rename can keep the sanitized path while still changing
// the display name descendants carry in their breadcrumbs, so the
// no-op check compares both. Rewriting an already-correct row is a
// no-op, so a retried cascade re-applies cleanly.
func (m *PathMaterializer) CascadeRewrite(ctx context.Context, ownerID string, folder *models.Folder, oldPath, oldName string, oldDepth int) error {
	if oldPath == folder.Path && oldName == folder.Name && oldDepth == len(folder.PathSegments) {
		return nil
	}

	childFolders, err := m.folders.ListByPathPrefix(ctx, ownerID, oldPath)
	if err != nil {
		return fmt.Errorf("enumerate descendant folders of %s: %w", oldPath, err)
	}
	childFiles, err := m.files.ListByPathPrefix(ctx, ownerID, oldPath)
	if err != nil {
		return fmt.Errorf("enumerate descendant files of %s: %w", oldPath, err)
	}

	rewritten := 0
	for i := range childFolders {
		d := &childFolders[i]
		if d.ID == folder.ID || !descendsThrough(folder.ID, oldDepth, d.PathSegments) {
			continue
		}
		newPath, newSegs := rewriteDescendant(folder, oldPath, oldDepth, d.Path, d.PathSegments)
		if err := m.folders.UpdatePathData(ctx, d.ID, ownerID, newPath, newSegs); err != nil {
			return fmt.Errorf("rewrite folder %s: %w", d.ID, err)
		}
		rewritten++
	}
	for i := range childFiles {
		d := &childFiles[i]
		if !descendsThrough(folder.ID, oldDepth, d.PathSegments) {
			continue
		}
		newPath, newSegs := rewriteDescendant(folder, oldPath, oldDepth, d.Path, d.PathSegments)
		if err := m.files.UpdatePathData(ctx, d.ID, ownerID, newPath, newSegs); err != nil {
			return fmt.Errorf("rewrite file %s: %w", d.ID, err)
		}
		rewritten++
	}

	m.logger.Debug("cascade rewrite applied",
		"folder_id", folder.ID,
		"old_path", oldPath,
		"new_path", folder.Path,
		"descendants", rewritten,
	)

	return nil
}

// rewriteDescendant swaps the descendant's path prefix and replaces
// the leading oldDepth ancestor segments with the folder's new
// ancestry. The segment at position oldDepth is the folder itself and
// picks up its (possibly renamed) display name.
func rewriteDescendant(folder *models.Folder, oldPath string, oldDepth int, path string, segs []models.PathSegment) (string, []models.PathSegment) {
	newPath := folder.Path + path[len(oldPath):]

	tail := segs[oldDepth:]
	newSegs := make([]models.PathSegment, 0, len(folder.PathSegments)+len(tail))
	newSegs = append(newSegs, folder.PathSegments...)
	newSegs = append(newSegs, tail...)
	newSegs[len(folder.PathSegments)] = models.PathSegment{ID: folder.ID, Name: folder.Name}

	return newPath, newSegs
}

// descendsThrough confirms the candidate actually sits under the
// folder by checking its breadcrumb at the folder's old depth.
// Sanitized segments are not unique among siblings ("My Docs" and
// "my docs" share a path), so a prefix match alone can over-select a
// look-alike sibling subtree.
func descendsThrough(folderID string, oldDepth int, segs []models.PathSegment) bool {
	return len(segs) > oldDepth && segs[oldDepth].ID == folderID
}
