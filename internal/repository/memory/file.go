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

// MemoryFileRepository implements FileRepository over a Store
type MemoryFileRepository struct {
	store *Store
}

// NewFileRepository creates a file repository backed by the store
func NewFileRepository(store *Store) repos.FileRepository {
	return &MemoryFileRepository{store: store}
}

// Create creates a new file record, enforcing living-sibling uniqueness
// on (name, extension)
func (r *MemoryFileRepository) Create(ctx context.Context, file *models.File) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing := r.findLiving(file.Name, file.Extension, file.ParentID, file.OwnerID, ""); existing != nil {
		return r.conflictError(existing)
	}

	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	r.store.files.Store(file.ID, cloneFile(file))
	return nil
}

// GetByID retrieves a file by ID, live or trashed
func (r *MemoryFileRepository) GetByID(ctx context.Context, id, ownerID string) (*models.File, error) {
	file, ok := r.store.files.Load(id)
	if !ok || file.OwnerID != ownerID {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}
	return cloneFile(file), nil
}

// GetByIDForUpdate behaves like GetByID; the in-memory store has no
// transaction scope to pin a row lock to.
func (r *MemoryFileRepository) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.File, error) {
	return r.GetByID(ctx, id, ownerID)
}

// Update persists the file's mutable fields
func (r *MemoryFileRepository) Update(ctx context.Context, file *models.File) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.files.Load(file.ID)
	if !ok || current.OwnerID != file.OwnerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", file.ID)}
	}

	if file.DeletedAt == nil {
		if existing := r.findLiving(file.Name, file.Extension, file.ParentID, file.OwnerID, file.ID); existing != nil {
			return r.conflictError(existing)
		}
	}

	r.store.files.Store(file.ID, cloneFile(file))
	return nil
}

// Delete permanently removes a file record
func (r *MemoryFileRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	file, ok := r.store.files.Load(id)
	if !ok || file.OwnerID != ownerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}
	r.store.files.Delete(id)
	return nil
}

// ListChildren lists files directly inside a folder
func (r *MemoryFileRepository) ListChildren(ctx context.Context, parentID *string, ownerID string, includeDeleted bool) ([]models.File, error) {
	files := r.collect(func(file *models.File) bool {
		if file.OwnerID != ownerID || !sameParent(file.ParentID, parentID) {
			return false
		}
		return includeDeleted || file.DeletedAt == nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindLivingByName finds a living sibling file by name and extension,
// or nil
func (r *MemoryFileRepository) FindLivingByName(ctx context.Context, name, extension string, parentID *string, ownerID string) (*models.File, error) {
	if existing := r.findLiving(name, extension, parentID, ownerID, ""); existing != nil {
		return cloneFile(existing), nil
	}
	return nil, nil
}

// ListByPathPrefix lists files under the prefix, live and trashed
func (r *MemoryFileRepository) ListByPathPrefix(ctx context.Context, ownerID, prefix string) ([]models.File, error) {
	files := r.collect(func(file *models.File) bool {
		return file.OwnerID == ownerID && strings.HasPrefix(file.Path, prefix+"/")
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// UpdatePathData rewrites only the denormalized path columns
func (r *MemoryFileRepository) UpdatePathData(ctx context.Context, id, ownerID, path string, segments []models.PathSegment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	file, ok := r.store.files.Load(id)
	if !ok || file.OwnerID != ownerID {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}

	updated := cloneFile(file)
	updated.Path = path
	updated.PathSegments = cloneSegments(segments)
	r.store.files.Store(id, updated)
	return nil
}

// ListTrashed lists files whose own deleted_at is set
func (r *MemoryFileRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.File, error) {
	files := r.collect(func(file *models.File) bool {
		return file.OwnerID == ownerID && file.DeletedAt != nil
	})
	sort.Slice(files, func(i, j int) bool {
		return files[i].DeletedAt.After(*files[j].DeletedAt)
	})
	return files, nil
}

func (r *MemoryFileRepository) findLiving(name, extension string, parentID *string, ownerID, excludeID string) *models.File {
	var found *models.File
	r.store.files.Range(func(id string, file *models.File) bool {
		if id == excludeID || file.OwnerID != ownerID || file.DeletedAt != nil {
			return true
		}
		if file.Name == name && file.Extension == extension && sameParent(file.ParentID, parentID) {
			found = file
			return false
		}
		return true
	})
	return found
}

func (r *MemoryFileRepository) conflictError(existing *models.File) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a file named %q already exists in this location", existing.Name),
		ResourceType: string(models.KindFile),
		ResourceID:   existing.ID,
		Name:         existing.Name,
	}
}

func (r *MemoryFileRepository) collect(match func(*models.File) bool) []models.File {
	files := []models.File{}
	r.store.files.Range(func(_ string, file *models.File) bool {
		if match(file) {
			files = append(files, *cloneFile(file))
		}
		return true
	})
	return files
}
