package vfs

import (
	"context"
	"fmt"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	repos "dotfile/internal/domain/repositories/vfs"
	"dotfile/internal/repository/postgres"
)

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	config *postgres.RepositoryConfig
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) repos.FileRepository {
	return &PostgresFileRepository{config: config}
}

const fileColumns = `id, owner_id, parent_id, name, path, path_segments, is_pinned, extension, size, storage_key, category, created_at, updated_at, deleted_at`

// Create creates a new file record
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, parent_id, name, path, path_segments, is_pinned, extension, size, storage_key, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, r.config.Tables.Files)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	err := executor.QueryRow(ctx, query,
		file.OwnerID,
		file.ParentID,
		file.Name,
		file.Path,
		file.PathSegments,
		file.IsPinned,
		file.Extension,
		file.Size,
		file.StorageKey,
		file.Category,
		file.CreatedAt,
		file.UpdatedAt,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflictError(ctx, file.Name, file.Extension, file.ParentID, file.OwnerID)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID, live or trashed
func (r *PostgresFileRepository) GetByID(ctx context.Context, id, ownerID string) (*models.File, error) {
	return r.getByID(ctx, id, ownerID, "")
}

// GetByIDForUpdate retrieves a file and takes a row lock so that a
// concurrent move or trash transition on the same node waits for this
// transaction instead of acting on a stale parent.
func (r *PostgresFileRepository) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.File, error) {
	return r.getByID(ctx, id, ownerID, "FOR UPDATE")
}

func (r *PostgresFileRepository) getByID(ctx context.Context, id, ownerID, locking string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
		%s
	`, fileColumns, r.config.Tables.Files, locking)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// Update persists the file's mutable fields
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, path = $3, path_segments = $4, is_pinned = $5, extension = $6, category = $7, updated_at = $8, deleted_at = $9
		WHERE id = $10 AND owner_id = $11
	`, r.config.Tables.Files)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query,
		file.ParentID,
		file.Name,
		file.Path,
		file.PathSegments,
		file.IsPinned,
		file.Extension,
		file.Category,
		file.UpdatedAt,
		file.DeletedAt,
		file.ID,
		file.OwnerID,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflictError(ctx, file.Name, file.Extension, file.ParentID, file.OwnerID)
		}
		return fmt.Errorf("update file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", file.ID)}
	}

	return nil
}

// Delete permanently removes a file record
func (r *PostgresFileRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.config.Tables.Files)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}

	return nil
}

// ListChildren lists files directly inside a folder
func (r *PostgresFileRepository) ListChildren(ctx context.Context, parentID *string, ownerID string, includeDeleted bool) ([]models.File, error) {
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
		`, fileColumns, r.config.Tables.Files, deletedFilter)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id = $2 %s
			ORDER BY name ASC
		`, fileColumns, r.config.Tables.Files, deletedFilter)
		args = append(args, ownerID, *parentID)
	}

	return r.queryFiles(ctx, query, args...)
}

// FindLivingByName finds a living sibling file by name and extension,
// or nil
func (r *PostgresFileRepository) FindLivingByName(ctx context.Context, name, extension string, parentID *string, ownerID string) (*models.File, error) {
	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL AND name = $2 AND extension = $3 AND deleted_at IS NULL
		`, fileColumns, r.config.Tables.Files)
		args = append(args, ownerID, name, extension)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id = $2 AND name = $3 AND extension = $4 AND deleted_at IS NULL
		`, fileColumns, r.config.Tables.Files)
		args = append(args, ownerID, *parentID, name, extension)
	}

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	file, err := scanFile(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find file by name: %w", err)
	}

	return file, nil
}

// ListByPathPrefix lists files under the prefix, live and trashed
func (r *PostgresFileRepository) ListByPathPrefix(ctx context.Context, ownerID, prefix string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND starts_with(path, $2 || '/')
		ORDER BY path ASC
	`, fileColumns, r.config.Tables.Files)

	return r.queryFiles(ctx, query, ownerID, prefix)
}

// UpdatePathData rewrites only the denormalized path columns
func (r *PostgresFileRepository) UpdatePathData(ctx context.Context, id, ownerID, path string, segments []models.PathSegment) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET path = $1, path_segments = $2
		WHERE id = $3 AND owner_id = $4
	`, r.config.Tables.Files)

	executor := postgres.GetExecutor(ctx, r.config.Pool)
	result, err := executor.Exec(ctx, query, path, segments, id, ownerID)
	if err != nil {
		return fmt.Errorf("update file path: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
	}

	return nil
}

// ListTrashed lists files whose own deleted_at is set
func (r *PostgresFileRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`, fileColumns, r.config.Tables.Files)

	return r.queryFiles(ctx, query, ownerID)
}

// conflictError builds a structured conflict carrying the existing
// file's ID so the caller can offer replace/keep-both.
func (r *PostgresFileRepository) conflictError(ctx context.Context, name, extension string, parentID *string, ownerID string) error {
	existing, err := r.FindLivingByName(ctx, name, extension, parentID, ownerID)
	if err != nil || existing == nil {
		return fmt.Errorf("file %q already exists in this location: %w", name, domain.ErrConflict)
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a file named %q already exists in this location", name),
		ResourceType: string(models.KindFile),
		ResourceID:   existing.ID,
		Name:         name,
	}
}

func (r *PostgresFileRepository) queryFiles(ctx context.Context, query string, args ...interface{}) ([]models.File, error) {
	executor := postgres.GetExecutor(ctx, r.config.Pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		var file models.File
		err := rows.Scan(
			&file.ID,
			&file.OwnerID,
			&file.ParentID,
			&file.Name,
			&file.Path,
			&file.PathSegments,
			&file.IsPinned,
			&file.Extension,
			&file.Size,
			&file.StorageKey,
			&file.Category,
			&file.CreatedAt,
			&file.UpdatedAt,
			&file.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

func scanFile(row rowScanner) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.OwnerID,
		&file.ParentID,
		&file.Name,
		&file.Path,
		&file.PathSegments,
		&file.IsPinned,
		&file.Extension,
		&file.Size,
		&file.StorageKey,
		&file.Category,
		&file.CreatedAt,
		&file.UpdatedAt,
		&file.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
