package vfs

import (
	"context"
	"fmt"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
	"dotfile/internal/repository/postgres"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	config *postgres.RepositoryConfig
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) repos.FolderRepository {
	return &PostgresFolderRepository{config: config}
}

const folderColumns = `id, owner_id, parent_id, name, path, path_segments, is_pinned, items, color, created_at, updated_at, deleted_at`

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, parent_id, name, path, path_segments, is_pinned, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.config.Tables.Folders)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	err := executor.QueryRow(ctx, query,
		folder.OwnerID,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.PathSegments,
		folder.IsPinned,
		folder.Color,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflictError(ctx, folder.Name, folder.ParentID, folder.OwnerID)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID, live or trashed
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	return r.getByID(ctx, id, ownerID, "")
}

// GetByIDForUpdate retrieves a folder and takes a row lock so that a
// concurrent move or trash transition on the same node waits for this
// transaction instead of acting on a stale parent.
func (r *PostgresFolderRepository) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.Folder, error) {
	return r.getByID(ctx, id, ownerID, "FOR UPDATE")
}

func (r *PostgresFolderRepository) getByID(ctx context.Context, id, ownerID, locking string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
		%s
	`, folderColumns, r.config.Tables.Folders, locking)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// Update persists the folder's mutable fields
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, path = $3, path_segments = $4, is_pinned = $5, color = $6, updated_at = $7, deleted_at = $8
		WHERE id = $9 AND owner_id = $10
	`, r.config.Tables.Folders)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.PathSegments,
		folder.IsPinned,
		folder.Color,
		folder.UpdatedAt,
		folder.DeletedAt,
		folder.ID,
		folder.OwnerID,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflictError(ctx, folder.Name, folder.ParentID, folder.OwnerID)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folder.ID)}
	}

	return nil
}

// Delete permanently removes a folder record
func (r *PostgresFolderRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.config.Tables.Folders)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}

	return nil
}

// ListChildren lists immediate child folders
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID *string, ownerID string, includeDeleted bool) ([]models.Folder, error) {
	deletedFilter := "AND deleted_at IS NULL"
	if includeDeleted {
		deletedFilter = ""
	}

	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL %s
			ORDER BY name ASC
		`, folderColumns, r.config.Tables.Folders, deletedFilter)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id = $2 %s
			ORDER BY name ASC
		`, folderColumns, r.config.Tables.Folders, deletedFilter)
		args = append(args, ownerID, *parentID)
	}

	return r.queryFolders(ctx, query, args...)
}

// FindLivingByName finds a living sibling folder by name, or nil
func (r *PostgresFolderRepository) FindLivingByName(ctx context.Context, name string, parentID *string, ownerID string) (*models.Folder, error) {
	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL AND name = $2 AND deleted_at IS NULL
		`, folderColumns, r.config.Tables.Folders)
		args = append(args, ownerID, name)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id = $2 AND name = $3 AND deleted_at IS NULL
		`, folderColumns, r.config.Tables.Folders)
		args = append(args, ownerID, *parentID, name)
	}

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find folder by name: %w", err)
	}

	return folder, nil
}

// ListByPathPrefix lists folders at or under the prefix, live and
// trashed. starts_with avoids LIKE-wildcard surprises: "_" is a legal
// path character.
func (r *PostgresFolderRepository) ListByPathPrefix(ctx context.Context, ownerID, prefix string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND (path = $2 OR starts_with(path, $2 || '/'))
		ORDER BY path ASC
	`, folderColumns, r.config.Tables.Folders)

	return r.queryFolders(ctx, query, ownerID, prefix)
}

// UpdatePathData rewrites only the denormalized path columns
func (r *PostgresFolderRepository) UpdatePathData(ctx context.Context, id, ownerID, path string, segments []models.PathSegment) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET path = $1, path_segments = $2
		WHERE id = $3 AND owner_id = $4
	`, r.config.Tables.Folders)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query, path, segments, id, ownerID)
	if err != nil {
		return fmt.Errorf("update folder path: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}

	return nil
}

// AdjustItems adds delta to the direct-child count, clamped at zero
func (r *PostgresFolderRepository) AdjustItems(ctx context.Context, id, ownerID string, delta int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET items = GREATEST(items + $1, 0)
		WHERE id = $2 AND owner_id = $3
	`, r.config.Tables.Folders)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query, delta, id, ownerID)
	if err != nil {
		return fmt.Errorf("adjust folder items: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}

	return nil
}

// ListTrashed lists folders whose own deleted_at is set
func (r *PostgresFolderRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`, folderColumns, r.config.Tables.Folders)

	return r.queryFolders(ctx, query, ownerID)
}

// conflictError builds a structured conflict carrying the existing
// folder's ID so the caller can offer replace/keep-both.
func (r *PostgresFolderRepository) conflictError(ctx context.Context, name string, parentID *string, ownerID string) error {
	existing, err := r.FindLivingByName(ctx, name, parentID, ownerID)
	if err != nil || existing == nil {
		return fmt.Errorf("folder %q already exists in this location: %w", name, domain.ErrConflict)
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
		ResourceType: string(models.KindFolder),
		ResourceID:   existing.ID,
		Name:         name,
	}
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, query string, args ...interface{}) ([]models.Folder, error) {
	executor := postgres.GetExecutor(ctx, r.config.Pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		var folder models.Folder
		err := rows.Scan(
			&folder.ID,
			&folder.OwnerID,
			&folder.ParentID,
			&folder.Name,
			&folder.Path,
			&folder.PathSegments,
			&folder.IsPinned,
			&folder.Items,
			&folder.Color,
			&folder.CreatedAt,
			&folder.UpdatedAt,
			&folder.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// rowScanner abstracts pgx.Row for single-row scans
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFolder(row rowScanner) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.OwnerID,
		&folder.ParentID,
		&folder.Name,
		&folder.Path,
		&folder.PathSegments,
		&folder.IsPinned,
		&folder.Items,
		&folder.Color,
		&folder.CreatedAt,
		&folder.UpdatedAt,
		&folder.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}
