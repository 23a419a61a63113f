package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"dotfile/internal/domain"
	models "dotfile/internal/domain/models/vfs"
	services "dotfile/internal/domain/services/vfs"
	"dotfile/internal/httputil"
)

// HierarchyHandler handles folder and file HTTP requests
type HierarchyHandler struct {
	hierarchy services.HierarchyService
	logger    *slog.Logger
}

// NewHierarchyHandler creates a new hierarchy handler
func NewHierarchyHandler(hierarchy services.HierarchyService, logger *slog.Logger) *HierarchyHandler {
	return &HierarchyHandler{
		hierarchy: hierarchy,
		logger:    logger,
	}
}

// patchNodeRequest is the PATCH body shared by both node kinds.
// name and folder_id use OptionalString because absence and null mean
// different things: an absent folder_id leaves the parent alone while
// an explicit null moves the node to root.
type patchNodeRequest struct {
	Name            httputil.OptionalString `json:"name"`
	FolderID        httputil.OptionalString `json:"folder_id"`
	IsPinned        *bool                   `json:"is_pinned"`
	Color           *string                 `json:"color"`
	DuplicateAction models.DuplicateAction  `json:"duplicate_action"`
}

func (p *patchNodeRequest) empty() bool {
	return !p.Name.Present && !p.FolderID.Present && p.IsPinned == nil && p.Color == nil
}

// CreateFolder creates a new folder
// POST /api/folders
// Returns 201 if created, 409 with the existing folder if duplicate
func (h *HierarchyHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = userID

	folder, err := h.hierarchy.CreateFolder(r.Context(), &req)
	if err != nil {
		if h.respondCreateConflict(w, r, models.KindFolder, err) {
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// CreateFile registers a new file record
// POST /api/files
// Returns 201 if created, 409 with the existing file if duplicate
func (h *HierarchyHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.CreateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = userID

	file, err := h.hierarchy.CreateFile(r.Context(), &req)
	if err != nil {
		if h.respondCreateConflict(w, r, models.KindFile, err) {
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetFolder retrieves a folder by ID
// GET /api/folders/{id}
func (h *HierarchyHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, models.KindFolder)
}

// GetFile retrieves a file by ID
// GET /api/files/{id}
func (h *HierarchyHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, models.KindFile)
}

func (h *HierarchyHandler) get(w http.ResponseWriter, r *http.Request, kind models.NodeKind) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "ID is required")
		return
	}

	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		ownerID = userID
	}

	item, err := h.hierarchy.Get(r.Context(), kind, id, ownerID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// PatchFolder renames, moves or restyles a folder
// PATCH /api/folders/{id}
func (h *HierarchyHandler) PatchFolder(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, models.KindFolder)
}

// PatchFile renames, moves or pins a file
// PATCH /api/files/{id}
func (h *HierarchyHandler) PatchFile(w http.ResponseWriter, r *http.Request) {
	h.patch(w, r, models.KindFile)
}

// patch dispatches the PATCH body onto the service operations. Moves
// run before renames so a combined request resolves the new name in
// the destination folder.
func (h *HierarchyHandler) patch(w http.ResponseWriter, r *http.Request, kind models.NodeKind) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "ID is required")
		return
	}

	var req patchNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.empty() {
		httputil.RespondError(w, http.StatusBadRequest, "No changes requested")
		return
	}
	if req.Name.Present && (req.Name.Value == nil || *req.Name.Value == "") {
		httputil.RespondError(w, http.StatusBadRequest, "Name cannot be empty")
		return
	}

	var item models.Item
	var err error

	if req.FolderID.Present {
		item, err = h.hierarchy.Move(r.Context(), &services.MoveRequest{
			OwnerID:         userID,
			Kind:            kind,
			NodeID:          id,
			NewParentID:     req.FolderID.Value,
			DuplicateAction: req.DuplicateAction,
		})
		if err != nil {
			handleError(w, err)
			return
		}
	}

	if req.Name.Present {
		item, err = h.hierarchy.Rename(r.Context(), &services.RenameRequest{
			OwnerID:         userID,
			Kind:            kind,
			NodeID:          id,
			NewName:         *req.Name.Value,
			DuplicateAction: req.DuplicateAction,
		})
		if err != nil {
			handleError(w, err)
			return
		}
	}

	if req.IsPinned != nil || req.Color != nil {
		item, err = h.hierarchy.Update(r.Context(), &services.UpdateRequest{
			OwnerID:  userID,
			Kind:     kind,
			NodeID:   id,
			IsPinned: req.IsPinned,
			Color:    req.Color,
		})
		if err != nil {
			handleError(w, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// ListChildren returns one level of the tree with breadcrumbs
// GET /api/children?folder_id={id}&include_deleted=true
func (h *HierarchyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	req := services.ListRequest{
		OwnerID:        userID,
		ActorID:        userID,
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}
	if folderID := r.URL.Query().Get("folder_id"); folderID != "" {
		req.ParentID = &folderID
	}
	if ownerID := r.URL.Query().Get("owner_id"); ownerID != "" {
		req.OwnerID = ownerID
	}

	listing, err := h.hierarchy.ListChildren(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// respondCreateConflict returns the existing resource with 409 when the
// create failed on a duplicate name without a duplicate_action
func (h *HierarchyHandler) respondCreateConflict(w http.ResponseWriter, r *http.Request, kind models.NodeKind, err error) bool {
	var conflictErr *domain.ConflictError
	if !errors.As(err, &conflictErr) || conflictErr.ResourceID == "" {
		return false
	}

	userID := httputil.GetUserID(r)
	existing, fetchErr := h.hierarchy.Get(r.Context(), kind, conflictErr.ResourceID, userID, userID)
	if fetchErr != nil {
		return false
	}

	httputil.RespondJSON(w, http.StatusConflict, existing)
	return true
}
