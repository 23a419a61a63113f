package vfs

// Breadcrumb root labels. A listing rooted under a trashed ancestor
// displays Trash as its effective root instead of Root.
const (
	RootLabelDefault = "Root"
	RootLabelTrash   = "Trash"
)

// FolderEntry is a folder child annotated for listing.
type FolderEntry struct {
	Folder
	HasDeletedAncestor bool `json:"has_deleted_ancestor"`
}

// FileEntry is a file child annotated for listing.
type FileEntry struct {
	File
	HasDeletedAncestor bool `json:"has_deleted_ancestor"`
}

// Listing is one level of children plus the breadcrumb trail of the
// requested parent (nil folder/empty segments for a root listing).
type Listing struct {
	Folder      *Folder       `json:"folder,omitempty"`
	RootLabel   string        `json:"root_label"`
	Breadcrumbs []PathSegment `json:"breadcrumbs"`
	Folders     []FolderEntry `json:"folders"`
	Files       []FileEntry   `json:"files"`
}

// TrashListing is the flat trash view: only nodes whose own deleted_at
// is set and whose ancestors are all live appear here.
type TrashListing struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// EmptyTrashResult reports how many records a purge removed, including
// descendants of the purged top-level entries.
type EmptyTrashResult struct {
	Folders int `json:"folders"`
	Files   int `json:"files"`
}
