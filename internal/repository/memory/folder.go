package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
)

// MemoryFolderRepository implements FolderRepository over a Store
type MemoryFolderRepository struct {
	store *Store
}

// NewFolderRepository creates a folder repository backed by the store
func NewFolderRepository(store *Store) repos.FolderRepository {
	return &MemoryFolderRepository{store: store}
}

// Create creates a new folder, enforcing living-sibling uniqueness the
// way the partial unique index does in Postgres
func (r *MemoryFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing := r.findLiving(folder.Name, folder.ParentID, folder.OwnerID, ""); existing != nil {
		return r.conflictError(existing)
	}

	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	r.store.folders.Store(folder.ID, cloneFolder(folder))
	return nil
}

// GetByID retrieves a folder by ID, live or trashed
func (r *MemoryFolderRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	folder, ok := r.store.folders.Load(id)
	if !ok || folder.OwnerID != ownerID {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}
	return cloneFolder(folder), nil
}

// GetByIDForUpdate behaves like GetByID; the in-memory store has no
// transaction scope to pin a row lock to.
func (r *MemoryFolderRepository) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	return r.GetByID(ctx, id, ownerID)
}

// Update persists the folder's mutable fields
func (r *MemoryFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.folders.Load(folder.ID)
	if !ok || current.OwnerID != folder.OwnerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folder.ID)}
	}

	if folder.DeletedAt == nil {
		if existing := r.findLiving(folder.Name, folder.ParentID, folder.OwnerID, folder.ID); existing != nil {
			return r.conflictError(existing)
		}
	}

	updated := cloneFolder(folder)
	updated.Items = current.Items
	r.store.folders.Store(folder.ID, updated)
	return nil
}

// Delete permanently removes a folder record
func (r *MemoryFolderRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	folder, ok := r.store.folders.Load(id)
	if !ok || folder.OwnerID != ownerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}
	r.store.folders.Delete(id)
	return nil
}

// ListChildren lists immediate child folders
func (r *MemoryFolderRepository) ListChildren(ctx context.Context, parentID *string, ownerID string, includeDeleted bool) ([]models.Folder, error) {
	folders := r.collect(func(folder *models.Folder) bool {
		if folder.OwnerID != ownerID || !sameParent(folder.ParentID, parentID) {
			return false
		}
		return includeDeleted || folder.DeletedAt == nil
	})
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// FindLivingByName finds a living sibling folder by name, or nil
func (r *MemoryFolderRepository) FindLivingByName(ctx context.Context, name string, parentID *string, ownerID string) (*models.Folder, error) {
	if existing := r.findLiving(name, parentID, ownerID, ""); existing != nil {
		return cloneFolder(existing), nil
	}
	return nil, nil
}

// ListByPathPrefix lists folders at or under the prefix, live and trashed
func (r *MemoryFolderRepository) ListByPathPrefix(ctx context.Context, ownerID, prefix string) ([]models.Folder, error) {
	folders := r.collect(func(folder *models.Folder) bool {
		if folder.OwnerID != ownerID {
			return false
		}
		return folder.Path == prefix || strings.HasPrefix(folder.Path, prefix+"/")
	})
	sort.Slice(folders, func(i, j int) bool { return folders[i].Path < folders[j].Path })
	return folders, nil
}

// UpdatePathData rewrites only the denormalized path columns
func (r *MemoryFolderRepository) UpdatePathData(ctx context.Context, id, ownerID, path string, segments []models.PathSegment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	folder, ok := r.store.folders.Load(id)
	if !ok || folder.OwnerID != ownerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}

	updated := cloneFolder(folder)
	updated.Path = path
	updated.PathSegments = cloneSegments(segments)
	r.store.folders.Store(id, updated)
	return nil
}

// AdjustItems adds delta to the direct-child count, clamped at zero
func (r *MemoryFolderRepository) AdjustItems(ctx context.Context, id, ownerID string, delta int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	folder, ok := r.store.folders.Load(id)
	if !ok || folder.OwnerID != ownerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}

	updated := cloneFolder(folder)
	updated.Items += delta
	if updated.Items < 0 {
		updated.Items = 0
	}
	r.store.folders.Store(id, updated)
	return nil
}

// ListTrashed lists folders whose own deleted_at is set
func (r *MemoryFolderRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error) {
	folders := r.collect(func(folder *models.Folder) bool {
		return folder.OwnerID == ownerID && folder.DeletedAt != nil
	})
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].DeletedAt.After(*folders[j].DeletedAt)
	})
	return folders, nil
}

func (r *MemoryFolderRepository) findLiving(name string, parentID *string, ownerID, excludeID string) *models.Folder {
	var found *models.Folder
	r.store.folders.Range(func(id string, folder *models.Folder) bool {
		if id == excludeID || folder.OwnerID != ownerID || folder.DeletedAt != nil {
			return true
		}
		if folder.Name == name && sameParent(folder.ParentID, parentID) {
			found = folder
			return false
		}
		return true
	})
	return found
}

func (r *MemoryFolderRepository) conflictError(existing *models.Folder) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a folder named %q already exists in this location", existing.Name),
		ResourceType: string(models.KindFolder),
		ResourceID:   existing.ID,
		Name:         existing.Name,
	}
}

func (r *MemoryFolderRepository) collect(match func(*models.Folder) bool) []models.Folder {
	folders := []models.Folder{}
	r.store.folders.Range(func(_ string, folder *models.Folder) bool {
		if match(folder) {
			folders = append(folders, *cloneFolder(folder))
		}
		return true
	})
	return folders
}
