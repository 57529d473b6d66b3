package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/atcdrive/drive/internal/ctxkeys"
	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/service"
)

type fileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *fileHandler {
	return &fileHandler{fileService: fileService}
}

type fileResponse struct {
	ID          string  `json:"id"`
	Filename    string  `json:"filename"`
	FolderID    string  `json:"folder_id"`
	UploadedBy  *string `json:"uploaded_by"`
	StorageType string  `json:"storage_type"`
	Size        int64   `json:"size"`
	CreatedAt   string  `json:"created_at"`
}

func newFileResponse(f *model.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		Filename:    f.Filename,
		FolderID:    f.FolderID,
		UploadedBy:  f.UploadedBy,
		StorageType: f.StorageType,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func newFileResponses(files []*model.File) []fileResponse {
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, newFileResponse(f))
	}
	return out
}

func (h *fileHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	folderID := r.URL.Query().Get("folder_id")
	if folderID == "" {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	files, err := h.fileService.List(user, folderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFileResponses(files))
}

// Upload accepts a multipart batch under the "files" field plus a
// "folder_id" field naming the destination.
func (h *fileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	// Parts beyond this threshold spill to temp files
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeError(w, r, service.ErrInvalidInput)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to clean up multipart temp files", "error", err)
		}
	}()

	folderID := r.FormValue("folder_id")
	if folderID == "" {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	files, err := h.fileService.UploadBatch(r.Context(), user, folderID, parts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newFileResponses(files))
}

// Download returns a presigned URL for object-store files, or streams
// local files directly with the right content headers.
func (h *fileHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	dl, err := h.fileService.Download(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if dl.URL != "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"url":      dl.URL,
			"filename": dl.Filename,
		})
		return
	}

	defer func() { _ = dl.Content.Close() }()

	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))

	_, err = io.Copy(w, dl.Content)
	if err != nil {
		slog.Error("failed to stream file", "error", err, "filename", dl.Filename)
	}
}

func (h *fileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Filename string `json:"filename"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := h.fileService.Rename(user, r.PathValue("id"), req.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFileResponse(file))
}

func (h *fileHandler) Move(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		FolderID string `json:"folder_id"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := h.fileService.Move(user, r.PathValue("id"), req.FolderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFileResponse(file))
}

func (h *fileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.fileService.Delete(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}
