// Package memory provides in-memory implementations of the hierarchy
// repositories. They mirror the Postgres semantics closely enough for
// service-level tests: owner scoping, living-sibling uniqueness, path
// prefix listing and clamped item counts.
package memory

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	models "dotfile/internal/domain/models/vfs"
	"dotfile/internal/domain/repositories"
)

// Store holds both node tables. Reads go through the lock-free maps;
// the mutex serializes compound writes the way Postgres transactions
// do for the real backend.
type Store struct {
	mu      sync.Mutex
	folders *xsync.Map[string, *models.Folder]
	files   *xsync.Map[string, *models.File]
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		folders: xsync.NewMap[string, *models.Folder](),
		files:   xsync.NewMap[string, *models.File](),
	}
}

// TransactionManager satisfies repositories.TransactionManager by
// running the function directly. The store's own lock guards each
// statement; tests do not exercise rollback.
type TransactionManager struct{}

// NewTransactionManager creates a pass-through transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

// ExecTx executes the function within the ambient context
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func cloneSegments(segments []models.PathSegment) []models.PathSegment {
	if segments == nil {
		return nil
	}
	out := make([]models.PathSegment, len(segments))
	copy(out, segments)
	return out
}

func cloneFolder(folder *models.Folder) *models.Folder {
	out := *folder
	out.PathSegments = cloneSegments(folder.PathSegments)
	if folder.ParentID != nil {
		parentID := *folder.ParentID
		out.ParentID = &parentID
	}
	if folder.DeletedAt != nil {
		deletedAt := *folder.DeletedAt
		out.DeletedAt = &deletedAt
	}
	return &out
}

func cloneFile(file *models.File) *models.File {
	out := *file
	out.PathSegments = cloneSegments(file.PathSegments)
	if file.ParentID != nil {
		parentID := *file.ParentID
		out.ParentID = &parentID
	}
	if file.DeletedAt != nil {
		deletedAt := *file.DeletedAt
		out.DeletedAt = &deletedAt
	}
	return &out
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
