package vfs

// Folder is a container node.
//
// Items counts living direct children (folders + files whose
// deleted_at is NULL) - not a recursive descendant count. It is
// maintained by the count tracker on every structural change and is
// clamped at zero in the store.
type Folder struct {
	Node
	Items int    `json:"items" db:"items"`
	Color string `json:"color,omitempty" db:"color"`
}

func (f *Folder) Kind() NodeKind { return KindFolder }
func (f *Folder) Base() *Node    { return &f.Node }
