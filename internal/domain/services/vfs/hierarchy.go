package vfs

import (
	"context"

	"dotfile/internal/domain/models/vfs"
)

// HierarchyService orchestrates create/rename/move/list for both node
// kinds. Ownership is checked on every entry point; naming conflicts,
// path maintenance and item counts are handled internally.
type HierarchyService interface {
	// CreateFolder creates a new folder under an optional parent
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*vfs.Folder, error)

	// CreateFile registers a new file record under an optional parent
	CreateFile(ctx context.Context, req *CreateFileRequest) (*vfs.File, error)

	// Get retrieves a single node with its breadcrumb data. Non-owner
	// actors are resolved through the permission collaborator.
	Get(ctx context.Context, kind vfs.NodeKind, nodeID, ownerID, actorID string) (vfs.Item, error)

	// Rename renames a node and rewrites paths across its subtree
	Rename(ctx context.Context, req *RenameRequest) (vfs.Item, error)

	// Move re-parents a node, guarding against cycles, and rewrites
	// paths across its subtree
	Move(ctx context.Context, req *MoveRequest) (vfs.Item, error)

	// Update applies cosmetic changes (pin state, folder color)
	Update(ctx context.Context, req *UpdateRequest) (vfs.Item, error)

	// ListChildren returns one level of children with breadcrumbs and
	// derived has_deleted_ancestor flags
	ListChildren(ctx context.Context, req *ListRequest) (*vfs.Listing, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	OwnerID         string              `json:"-"`
	Name            string              `json:"name"`
	ParentID        *string             `json:"folder_id,omitempty"` // null for root
	Color           string              `json:"color,omitempty"`
	DuplicateAction vfs.DuplicateAction `json:"duplicate_action,omitempty"`
}

// CreateFileRequest represents a file metadata creation request.
// Name may carry an extension ("report.pdf"); the service splits it off
// when Extension is empty. StorageKey is assigned when blank.
type CreateFileRequest struct {
	OwnerID         string              `json:"-"`
	Name            string              `json:"name"`
	Extension       string              `json:"extension,omitempty"`
	Size            int64               `json:"size"`
	StorageKey      string              `json:"storage_key,omitempty"`
	ParentID        *string             `json:"folder_id,omitempty"`
	DuplicateAction vfs.DuplicateAction `json:"duplicate_action,omitempty"`
}

// RenameRequest represents a rename of either node kind
type RenameRequest struct {
	OwnerID         string              `json:"-"`
	Kind            vfs.NodeKind        `json:"-"`
	NodeID          string              `json:"-"`
	NewName         string              `json:"name"`
	DuplicateAction vfs.DuplicateAction `json:"duplicate_action,omitempty"`
}

// MoveRequest represents a re-parenting of either node kind.
// A nil NewParentID moves the node to root.
type MoveRequest struct {
	OwnerID         string              `json:"-"`
	Kind            vfs.NodeKind        `json:"-"`
	NodeID          string              `json:"-"`
	NewParentID     *string             `json:"folder_id"`
	DuplicateAction vfs.DuplicateAction `json:"duplicate_action,omitempty"`
}

// UpdateRequest carries cosmetic updates that never touch the tree
// structure
type UpdateRequest struct {
	OwnerID  string       `json:"-"`
	Kind     vfs.NodeKind `json:"-"`
	NodeID   string       `json:"-"`
	IsPinned *bool        `json:"is_pinned,omitempty"`
	Color    *string      `json:"color,omitempty"` // folders only
}

// ListRequest represents a one-level listing request
type ListRequest struct {
	OwnerID        string
	ActorID        string  // defaults to OwnerID; non-owners go through the permission collaborator
	ParentID       *string // null for root
	IncludeDeleted bool
}
