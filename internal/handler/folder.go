package handler

import (
	"net/http"

	"github.com/atcdrive/drive/internal/ctxkeys"
	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/service"
)

type folderHandler struct {
	folderService *service.FolderService
}

func NewFolderHandler(folderService *service.FolderService) *folderHandler {
	return &folderHandler{folderService: folderService}
}

type folderResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id"`
	OwnerID   *string `json:"owner_id"`
	CreatedAt string  `json:"created_at"`
}

func newFolderResponse(f *model.Folder) folderResponse {
	return folderResponse{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		OwnerID:   f.OwnerID,
		CreatedAt: f.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func newFolderResponses(folders []*model.Folder) []folderResponse {
	out := make([]folderResponse, 0, len(folders))
	for _, f := range folders {
		out = append(out, newFolderResponse(f))
	}
	return out
}

func (h *folderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	folder, err := h.folderService.Create(user, req.Name, req.ParentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newFolderResponse(folder))
}

// List returns the folders under ?parent_id, or the visible roots when
// the parameter is absent.
func (h *folderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var parentID *string
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		parentID = &raw
	}

	folders, err := h.folderService.List(user, parentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFolderResponses(folders))
}

func (h *folderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	folder, err := h.folderService.Get(user, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFolderResponse(folder))
}

func (h *folderHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Name     *string `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	folder, err := h.folderService.Update(user, r.PathValue("id"), req.Name, req.ParentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFolderResponse(folder))
}

func (h *folderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.folderService.Delete(user, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "folder deleted"})
}

// Path returns the ancestry from the root down to the folder.
func (h *folderHandler) Path(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	path, err := h.folderService.Path(user, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFolderResponses(path))
}

// Grants lists the access grants on a root folder.
func (h *folderHandler) Grants(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	grants, err := h.folderService.Grants(user, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, grants)
}

// ManageGrant adds or removes a grant on a root folder, keyed by the
// holder's email.
func (h *folderHandler) ManageGrant(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	folderID := r.PathValue("id")

	var req struct {
		Action    string `json:"action"`
		UserEmail string `json:"user_email"`
		Role      string `json:"role"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch req.Action {
	case "add":
		err = h.folderService.Grant(user, folderID, req.UserEmail, req.Role)
	case "remove":
		err = h.folderService.Revoke(user, folderID, req.UserEmail)
	default:
		err = service.ErrInvalidInput
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "permissions updated"})
}

// UserGrants lists the folders a user holds explicit grants on.
func (h *folderHandler) UserGrants(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	folders, err := h.folderService.AccessibleFolders(user, r.PathValue("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFolderResponses(folders))
}
