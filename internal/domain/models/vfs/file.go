package vfs

// File is a leaf node. StorageKey is an opaque reference into the byte
// storage collaborator; this engine never reads file contents, it only
// asks the collaborator to drop them during permanent delete.
type File struct {
	Node
	Extension  string `json:"extension" db:"extension"`
	Size       int64  `json:"size" db:"size"`
	StorageKey string `json:"-" db:"storage_key"`
	Category   string `json:"category,omitempty" db:"category"`
}

func (f *File) Kind() NodeKind { return KindFile }
func (f *File) Base() *Node    { return &f.Node }
