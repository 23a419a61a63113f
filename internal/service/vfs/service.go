package vfs

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"dotfile/internal/config"
	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	"dotfile/internal/domain/repositories"
	repos "dotfile/internal/domain/repositories/vfs"
	services "dotfile/internal/domain/services/vfs"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var nameRule = regexp.MustCompile(`^[^/]+$`)

// FileClassifier assigns a display category from a file extension.
type FileClassifier interface {
	Categorize(extension string) string
}

type hierarchyService struct {
	folders    repos.FolderRepository
	files      repos.FileRepository
	resolver   *NameResolver
	paths      *PathMaterializer
	counts     *CountTracker
	validator  *ResourceValidator
	trash      *TrashEngine
	txManager  repositories.TransactionManager
	perms      services.PermissionChecker
	classifier FileClassifier
	logger     *slog.Logger
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(
	folders repos.FolderRepository,
	files repos.FileRepository,
	resolver *NameResolver,
	paths *PathMaterializer,
	counts *CountTracker,
	validator *ResourceValidator,
	trash *TrashEngine,
	txManager repositories.TransactionManager,
	perms services.PermissionChecker,
	classifier FileClassifier,
	logger *slog.Logger,
) services.HierarchyService {
	return &hierarchyService{
		folders:    folders,
		files:      files,
		resolver:   resolver,
		paths:      paths,
		counts:     counts,
		validator:  validator,
		trash:      trash,
		txManager:  txManager,
		perms:      perms,
		classifier: classifier,
		logger:     logger,
	}
}

// CreateFolder creates a new folder under an optional parent
func (s *hierarchyService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := s.validateCreateFolderRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	var folder *models.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		parent, err := s.validator.ValidateParent(ctx, req.ParentID, req.OwnerID)
		if err != nil {
			return err
		}

		name, err := s.resolveName(ctx, &ResolveRequest{
			Kind:     models.KindFolder,
			Name:     req.Name,
			ParentID: req.ParentID,
			OwnerID:  req.OwnerID,
			Action:   req.DuplicateAction,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		path, segments := ComputeNodePath(parent, name)
		if err := validatePath(path); err != nil {
			return err
		}
		folder = &models.Folder{
			Node: models.Node{
				OwnerID:      req.OwnerID,
				ParentID:     req.ParentID,
				Name:         name,
				Path:         path,
				PathSegments: segments,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			Color: req.Color,
		}
		if err := s.folders.Create(ctx, folder); err != nil {
			return err
		}

		return s.counts.Increment(ctx, req.ParentID, req.OwnerID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", req.OwnerID,
		"path", folder.Path,
	)

	return folder, nil
}

// CreateFile registers a new file record under an optional parent.
// The stored name excludes the extension; "report.pdf" becomes name
// "report" with extension "pdf".
func (s *hierarchyService) CreateFile(ctx context.Context, req *services.CreateFileRequest) (*models.File, error) {
	if err := s.validateCreateFileRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	name, extension := req.Name, req.Extension
	if extension == "" {
		name, extension = SplitFileName(req.Name)
	}

	var file *models.File
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		parent, err := s.validator.ValidateParent(ctx, req.ParentID, req.OwnerID)
		if err != nil {
			return err
		}

		finalName, err := s.resolveName(ctx, &ResolveRequest{
			Kind:      models.KindFile,
			Name:      name,
			Extension: extension,
			ParentID:  req.ParentID,
			OwnerID:   req.OwnerID,
			Action:    req.DuplicateAction,
		})
		if err != nil {
			return err
		}

		storageKey := req.StorageKey
		if storageKey == "" {
			storageKey = uuid.NewString()
		}

		now := time.Now()
		path, segments := ComputeNodePath(parent, finalName)
		if err := validatePath(path); err != nil {
			return err
		}
		file = &models.File{
			Node: models.Node{
				OwnerID:      req.OwnerID,
				ParentID:     req.ParentID,
				Name:         finalName,
				Path:         path,
				PathSegments: segments,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			Extension:  extension,
			Size:       req.Size,
			StorageKey: storageKey,
			Category:   s.categorize(extension),
		}
		if err := s.files.Create(ctx, file); err != nil {
			return err
		}

		return s.counts.Increment(ctx, req.ParentID, req.OwnerID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file created",
		"id", file.ID,
		"name", file.Name,
		"extension", file.Extension,
		"owner_id", req.OwnerID,
		"path", file.Path,
	)

	return file, nil
}

// Get retrieves a single node. Non-owner actors go through the
// permission collaborator.
func (s *hierarchyService) Get(ctx context.Context, kind models.NodeKind, nodeID, ownerID, actorID string) (models.Item, error) {
	if actorID == "" {
		actorID = ownerID
	}
	if actorID != ownerID {
		if err := s.authorizeActor(ctx, nodeID, actorID, ownerID); err != nil {
			return nil, err
		}
	}
	return fetchItem(ctx, s.folders, s.files, kind, nodeID, ownerID)
}

// Rename renames a node. Renaming to the current name is a no-op.
func (s *hierarchyService) Rename(ctx context.Context, req *services.RenameRequest) (models.Item, error) {
	if err := s.validateName(req.NewName); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if !req.DuplicateAction.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown duplicate action %q", req.DuplicateAction)}
	}

	var item models.Item
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = fetchItemForUpdate(ctx, s.folders, s.files, req.Kind, req.NodeID, req.OwnerID)
		if err != nil {
			return err
		}
		node := item.Base()

		newName, extension := req.NewName, ""
		if file, ok := item.(*models.File); ok {
			extension = file.Extension
			if base, ext := SplitFileName(req.NewName); ext != "" {
				newName, extension = base, ext
			}
		}
		if newName == node.Name && extensionUnchanged(item, extension) {
			return nil
		}

		finalName, err := s.resolveName(ctx, &ResolveRequest{
			Kind:      req.Kind,
			Name:      newName,
			Extension: extension,
			ParentID:  node.ParentID,
			OwnerID:   req.OwnerID,
			Action:    req.DuplicateAction,
			ExcludeID: node.ID,
		})
		if err != nil {
			return err
		}

		parent, err := s.parentOf(ctx, node, req.OwnerID)
		if err != nil {
			return err
		}

		oldPath, oldName, oldDepth := node.Path, node.Name, len(node.PathSegments)
		node.Name = finalName
		node.Path, node.PathSegments = ComputeNodePath(parent, finalName)
		if err := validatePath(node.Path); err != nil {
			return err
		}
		node.UpdatedAt = time.Now()
		if file, ok := item.(*models.File); ok {
			file.Extension = extension
			file.Category = s.categorize(extension)
		}
		if err := saveItem(ctx, s.folders, s.files, item); err != nil {
			return err
		}

		if folder, ok := item.(*models.Folder); ok {
			return s.paths.CascadeRewrite(ctx, req.OwnerID, folder, oldPath, oldName, oldDepth)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node renamed",
		"kind", req.Kind,
		"id", req.NodeID,
		"owner_id", req.OwnerID,
		"name", item.Base().Name,
	)

	return item, nil
}

// Move re-parents a node. Folders are guarded against becoming their
// own ancestor via full descendant enumeration.
func (s *hierarchyService) Move(ctx context.Context, req *services.MoveRequest) (models.Item, error) {
	if !req.DuplicateAction.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown duplicate action %q", req.DuplicateAction)}
	}

	var item models.Item
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = fetchItemForUpdate(ctx, s.folders, s.files, req.Kind, req.NodeID, req.OwnerID)
		if err != nil {
			return err
		}
		node := item.Base()

		if node.IsTrashed() {
			return &domain.InvalidStateError{Message: fmt.Sprintf("%s %q is in trash; restore it before moving", req.Kind, node.Name)}
		}
		if sameParent(node.ParentID, req.NewParentID) {
			return nil
		}

		if req.Kind == models.KindFolder && req.NewParentID != nil {
			if *req.NewParentID == node.ID {
				return &domain.CycleError{Message: fmt.Sprintf("cannot move folder %q into itself", node.Name)}
			}
			descendants, err := collectDescendantFolderIDs(ctx, s.folders, node.ID, req.OwnerID)
			if err != nil {
				return err
			}
			if descendants[*req.NewParentID] {
				return &domain.CycleError{Message: fmt.Sprintf("cannot move folder %q into its own descendant", node.Name)}
			}
		}

		parent, err := s.validator.ValidateParent(ctx, req.NewParentID, req.OwnerID)
		if err != nil {
			return err
		}

		extension := ""
		if file, ok := item.(*models.File); ok {
			extension = file.Extension
		}
		finalName, err := s.resolveName(ctx, &ResolveRequest{
			Kind:      req.Kind,
			Name:      node.Name,
			Extension: extension,
			ParentID:  req.NewParentID,
			OwnerID:   req.OwnerID,
			Action:    req.DuplicateAction,
			ExcludeID: node.ID,
		})
		if err != nil {
			return err
		}

		oldParentID := node.ParentID
		oldPath, oldName, oldDepth := node.Path, node.Name, len(node.PathSegments)

		node.ParentID = req.NewParentID
		node.Name = finalName
		node.Path, node.PathSegments = ComputeNodePath(parent, finalName)
		if err := validatePath(node.Path); err != nil {
			return err
		}
		node.UpdatedAt = time.Now()
		if err := saveItem(ctx, s.folders, s.files, item); err != nil {
			return err
		}

		if folder, ok := item.(*models.Folder); ok {
			if err := s.paths.CascadeRewrite(ctx, req.OwnerID, folder, oldPath, oldName, oldDepth); err != nil {
				return err
			}
		}

		if err := s.counts.Decrement(ctx, oldParentID, req.OwnerID); err != nil {
			return err
		}
		return s.counts.Increment(ctx, req.NewParentID, req.OwnerID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node moved",
		"kind", req.Kind,
		"id", req.NodeID,
		"owner_id", req.OwnerID,
		"path", item.Base().Path,
	)

	return item, nil
}

// Update applies pin state and folder color. These never touch the
// tree, so no path or count maintenance is involved.
func (s *hierarchyService) Update(ctx context.Context, req *services.UpdateRequest) (models.Item, error) {
	if req.IsPinned == nil && req.Color == nil {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}
	if req.Color != nil && req.Kind != models.KindFolder {
		return nil, &domain.ValidationError{Message: "only folders have a color"}
	}

	item, err := fetchItem(ctx, s.folders, s.files, req.Kind, req.NodeID, req.OwnerID)
	if err != nil {
		return nil, err
	}

	node := item.Base()
	if req.IsPinned != nil {
		node.IsPinned = *req.IsPinned
	}
	if folder, ok := item.(*models.Folder); ok && req.Color != nil {
		folder.Color = *req.Color
	}
	node.UpdatedAt = time.Now()

	if err := saveItem(ctx, s.folders, s.files, item); err != nil {
		return nil, err
	}

	return item, nil
}

// ListChildren returns one level of children with breadcrumbs. Each
// entry carries a derived has_deleted_ancestor flag; the listing's
// effective root flips to Trash when the requested folder itself sits
// under (or in) trash.
func (s *hierarchyService) ListChildren(ctx context.Context, req *services.ListRequest) (*models.Listing, error) {
	actorID := req.ActorID
	if actorID == "" {
		actorID = req.OwnerID
	}
	// The root is not a shareable node, so there is nothing to ask the
	// permission collaborator about; only the owner may list it.
	if actorID != req.OwnerID && req.ParentID == nil {
		return nil, &domain.NotOwnerError{Message: "no access to this item"}
	}

	var parent *models.Folder
	parentHidden := false
	if req.ParentID != nil {
		var err error
		parent, err = s.folders.GetByID(ctx, *req.ParentID, req.OwnerID)
		if err != nil {
			return nil, err
		}
		if actorID != req.OwnerID {
			if err := s.authorizeActor(ctx, parent.ID, actorID, req.OwnerID); err != nil {
				return nil, err
			}
		}

		ancestorTrashed, err := s.validator.HasDeletedAncestor(ctx, parent.ParentID, req.OwnerID)
		if err != nil {
			return nil, err
		}
		parentHidden = parent.IsTrashed() || ancestorTrashed
	}

	childFolders, err := s.folders.ListChildren(ctx, req.ParentID, req.OwnerID, req.IncludeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	childFiles, err := s.files.ListChildren(ctx, req.ParentID, req.OwnerID, req.IncludeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list child files: %w", err)
	}

	listing := &models.Listing{
		Folder:      parent,
		RootLabel:   models.RootLabelDefault,
		Breadcrumbs: []models.PathSegment{},
		Folders:     make([]models.FolderEntry, 0, len(childFolders)),
		Files:       make([]models.FileEntry, 0, len(childFiles)),
	}
	if parentHidden {
		listing.RootLabel = models.RootLabelTrash
	}
	if parent != nil {
		listing.Breadcrumbs = append(listing.Breadcrumbs, parent.PathSegments...)
		listing.Breadcrumbs = append(listing.Breadcrumbs, models.PathSegment{ID: parent.ID, Name: parent.Name})
	}

	for i := range childFolders {
		listing.Folders = append(listing.Folders, models.FolderEntry{
			Folder:             childFolders[i],
			HasDeletedAncestor: parentHidden || childFolders[i].IsTrashed(),
		})
	}
	for i := range childFiles {
		listing.Files = append(listing.Files, models.FileEntry{
			File:               childFiles[i],
			HasDeletedAncestor: parentHidden || childFiles[i].IsTrashed(),
		})
	}

	return listing, nil
}

// resolveName runs the resolver and, for the replace directive, purges
// the conflicting node before handing the name back.
func (s *hierarchyService) resolveName(ctx context.Context, req *ResolveRequest) (string, error) {
	resolution, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return "", err
	}
	if resolution.ReplaceTarget != nil {
		target := resolution.ReplaceTarget
		if _, _, err := s.trash.purgeByID(ctx, target.Kind(), target.Base().ID, req.OwnerID); err != nil {
			return "", fmt.Errorf("replace existing %s %q: %w", target.Kind(), target.Base().Name, err)
		}
		s.logger.Info("conflicting node replaced",
			"kind", target.Kind(),
			"id", target.Base().ID,
			"name", target.Base().Name,
		)
	}
	return resolution.Name, nil
}

// parentOf loads the node's current parent, or nil at root.
func (s *hierarchyService) parentOf(ctx context.Context, node *models.Node, ownerID string) (*models.Folder, error) {
	if node.ParentID == nil {
		return nil, nil
	}
	parent, err := s.folders.GetByID(ctx, *node.ParentID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load parent folder: %w", err)
	}
	return parent, nil
}

// authorizeActor checks a non-owner actor's read access on a node.
func (s *hierarchyService) authorizeActor(ctx context.Context, nodeID, actorID, ownerID string) error {
	if s.perms == nil {
		return &domain.NotOwnerError{Message: "no access to this item"}
	}
	allowed, err := s.perms.HasPermission(ctx, nodeID, actorID, ownerID, services.PermissionRead)
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !allowed {
		return &domain.NotOwnerError{Message: "no access to this item"}
	}
	return nil
}

func (s *hierarchyService) categorize(extension string) string {
	if s.classifier == nil {
		return ""
	}
	return s.classifier.Categorize(extension)
}

// validateCreateFolderRequest validates a folder creation request
func (s *hierarchyService) validateCreateFolderRequest(req *services.CreateFolderRequest) error {
	if !req.DuplicateAction.Valid() {
		return fmt.Errorf("unknown duplicate action %q", req.DuplicateAction)
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(nameRule).Error("folder name cannot contain slashes"),
		),
	)
}

// validateCreateFileRequest validates a file creation request
func (s *hierarchyService) validateCreateFileRequest(req *services.CreateFileRequest) error {
	if !req.DuplicateAction.Valid() {
		return fmt.Errorf("unknown duplicate action %q", req.DuplicateAction)
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(nameRule).Error("file name cannot contain slashes"),
		),
		validation.Field(&req.Size, validation.Min(int64(0))),
	)
}

// validatePath caps the materialized path, which bounds hierarchy
// depth without tracking an explicit depth column.
func validatePath(path string) error {
	if len(path) > config.MaxPathLength {
		return &domain.ValidationError{
			Message: fmt.Sprintf("path would exceed %d characters; reduce nesting or shorten names", config.MaxPathLength),
		}
	}
	return nil
}

func (s *hierarchyService) validateName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxNodeNameLength),
		validation.Match(nameRule).Error("name cannot contain slashes"),
	)
}

func extensionUnchanged(item models.Item, extension string) bool {
	file, ok := item.(*models.File)
	if !ok {
		return true
	}
	return file.Extension == extension
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
