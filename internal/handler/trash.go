package handler

import (
	"log/slog"
	"net/http"

	models "dotfile/internal/domain/models/vfs"
	services "dotfile/internal/domain/services/vfs"
	"dotfile/internal/httputil"
)

// TrashHandler handles trash HTTP requests
type TrashHandler struct {
	trash  services.TrashService
	logger *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(trash services.TrashService, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{
		trash:  trash,
		logger: logger,
	}
}

// DeleteFolder moves a folder to trash
// DELETE /api/folders/{id}
func (h *TrashHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, models.KindFolder)
}

// DeleteFile moves a file to trash
// DELETE /api/files/{id}
func (h *TrashHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, models.KindFile)
}

func (h *TrashHandler) softDelete(w http.ResponseWriter, r *http.Request, kind models.NodeKind) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "ID is required")
		return
	}

	item, err := h.trash.SoftDelete(r.Context(), kind, id, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// RestoreFolder brings a trashed folder back
// POST /api/folders/{id}/restore
func (h *TrashHandler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	h.restore(w, r, models.KindFolder)
}

// RestoreFile brings a trashed file back
// POST /api/files/{id}/restore
func (h *TrashHandler) RestoreFile(w http.ResponseWriter, r *http.Request) {
	h.restore(w, r, models.KindFile)
}

func (h *TrashHandler) restore(w http.ResponseWriter, r *http.Request, kind models.NodeKind) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "ID is required")
		return
	}

	item, err := h.trash.Restore(r.Context(), kind, id, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// PurgeFolder permanently deletes a trashed folder and its subtree
// DELETE /api/folders/{id}/permanent
func (h *TrashHandler) PurgeFolder(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, models.KindFolder)
}

// PurgeFile permanently deletes a file and its content
// DELETE /api/files/{id}/permanent
func (h *TrashHandler) PurgeFile(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, models.KindFile)
}

func (h *TrashHandler) purge(w http.ResponseWriter, r *http.Request, kind models.NodeKind) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "ID is required")
		return
	}

	if err := h.trash.PermanentDelete(r.Context(), kind, id, userID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTrash returns the flat trash view
// GET /api/trash
func (h *TrashHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	listing, err := h.trash.ListTrash(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// EmptyTrash permanently deletes everything in the trash
// DELETE /api/trash
func (h *TrashHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	result, err := h.trash.EmptyTrash(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
