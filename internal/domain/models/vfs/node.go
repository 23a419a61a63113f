package vfs

import (
	"time"
)

// NodeKind discriminates the two record kinds in the hierarchy.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindFile   NodeKind = "file"
)

// PathSegment is one ancestor entry in a node's breadcrumb trail.
type PathSegment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Node holds the fields shared by Folder and File.
//
// Path is the denormalized slash-separated location from root
// (sanitized segments). PathSegments lists every ancestor folder in
// order, excluding the node itself, so breadcrumbs render without
// re-walking the tree. DeletedAt non-nil means the node is in Trash;
// children are never stamped when an ancestor is trashed - their
// visibility is derived at read time.
type Node struct {
	ID           string        `json:"id" db:"id"`
	OwnerID      string        `json:"owner_id" db:"owner_id"`
	ParentID     *string       `json:"folder_id" db:"parent_id"` // NULL = root level (JSON uses folder_id for API consistency)
	Name         string        `json:"name" db:"name"`
	Path         string        `json:"path" db:"path"`
	PathSegments []PathSegment `json:"path_segments" db:"path_segments"`
	IsPinned     bool          `json:"is_pinned" db:"is_pinned"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsTrashed reports whether the node's own deleted_at is set.
func (n *Node) IsTrashed() bool {
	return n.DeletedAt != nil
}

// Item is implemented by *Folder and *File so kind-agnostic operations
// (rename, move, trash transitions) can return either record.
type Item interface {
	Kind() NodeKind
	Base() *Node
}

// DuplicateAction is the caller-supplied directive resolving a name
// collision detected at create/rename/move time. Absence of a directive
// when a conflict exists is a reportable conflict error, so the caller
// can prompt the human for a decision.
type DuplicateAction string

const (
	// DuplicateReplace permanently deletes the conflicting node before
	// the new one is written.
	DuplicateReplace DuplicateAction = "replace"
	// DuplicateKeepBoth resolves the collision with a " (n)" suffix.
	DuplicateKeepBoth DuplicateAction = "keepBoth"
)

// Valid reports whether the action is one of the known directives.
// The empty action is valid: it means "report conflicts instead of
// resolving them".
func (a DuplicateAction) Valid() bool {
	switch a {
	case "", DuplicateReplace, DuplicateKeepBoth:
		return true
	}
	return false
}
