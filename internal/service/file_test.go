package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
)

// makeParts builds multipart file headers the way an HTTP upload
// would deliver them.
func makeParts(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, err = io.WriteString(part, content)
		if err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	err := w.Close()
	if err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read multipart form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"]
}

func TestUploadBatchLimits(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	root := e.seedFolder(t, "docs", nil, &admin.ID)

	// Batch limit in the test env is 3 files
	tooMany := makeParts(t, map[string]string{
		"a.txt": "a", "b.txt": "b", "c.txt": "c", "d.txt": "d",
	})
	_, err := e.file.UploadBatch(context.Background(), admin, root.ID, tooMany)
	if !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("oversized batch: got %v, want ErrTooManyFiles", err)
	}

	// Size limit is 1 MiB; the oversized part sits last but still
	// rejects the whole batch before anything is stored
	tooBig := makeParts(t, map[string]string{
		"ok.txt":  "fine",
		"big.bin": strings.Repeat("x", 1<<20+1),
	})
	_, err = e.file.UploadBatch(context.Background(), admin, root.ID, tooBig)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("oversized file: got %v, want ErrFileTooLarge", err)
	}

	stored, err := e.file.List(admin, root.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("rejected batches left %d records behind", len(stored))
	}
}

func TestUploadBatchRequiresEdit(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	viewer := e.seedUser(t, "viewer", model.RoleViewer)
	root := e.seedFolder(t, "docs", nil, &admin.ID)

	parts := makeParts(t, map[string]string{"a.txt": "hello"})
	_, err := e.file.UploadBatch(context.Background(), viewer, root.ID, parts)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("viewer upload: got %v, want ErrForbidden", err)
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	root := e.seedFolder(t, "docs", nil, &admin.ID)

	parts := makeParts(t, map[string]string{"report.pdf": "%PDF-1.4 contents"})
	files, err := e.file.UploadBatch(context.Background(), admin, root.ID, parts)
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("uploaded %d files, want 1", len(files))
	}

	f := files[0]
	if f.Filename != "report.pdf" {
		t.Errorf("filename = %q, want report.pdf", f.Filename)
	}
	if f.StorageType != model.StorageTypeLocal {
		t.Errorf("storage type = %q, want local", f.StorageType)
	}
	if !strings.HasPrefix(f.StorageKey, root.ID+"/") {
		t.Errorf("storage key %q not scoped to folder %s", f.StorageKey, root.ID)
	}

	dl, err := e.file.Download(context.Background(), admin, f.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer func() { _ = dl.Content.Close() }()

	if dl.URL != "" {
		t.Errorf("local download returned URL %q", dl.URL)
	}
	if dl.MimeType != "application/pdf" {
		t.Errorf("mime type = %q, want application/pdf", dl.MimeType)
	}

	got, err := io.ReadAll(dl.Content)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(got) != "%PDF-1.4 contents" {
		t.Errorf("downloaded %q, want original contents", got)
	}
}

func TestUploadKeepsRelativeDirectories(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	root := e.seedFolder(t, "docs", nil, &admin.ID)

	parts := makeParts(t, map[string]string{"reports/2024/q1.csv": "a,b"})
	files, err := e.file.UploadBatch(context.Background(), admin, root.ID, parts)
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}

	f := files[0]
	if f.Filename != "q1.csv" {
		t.Errorf("filename = %q, want q1.csv", f.Filename)
	}
	if !strings.HasPrefix(f.StorageKey, root.ID+"/reports/2024/") {
		t.Errorf("storage key %q lost the upload sub-path", f.StorageKey)
	}
}

func TestUploadRejectsEscapingNames(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	root := e.seedFolder(t, "docs", nil, &admin.ID)

	parts := makeParts(t, map[string]string{"../../etc/passwd": "nope"})
	_, err := e.file.UploadBatch(context.Background(), admin, root.ID, parts)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("escaping name: got %v, want ErrInvalidInput", err)
	}
}

func TestFileOwnershipRules(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	uploader := e.seedUser(t, "uploader", model.RoleEditor)
	other := e.seedUser(t, "other", model.RoleEditor)

	root := e.seedFolder(t, "docs", nil, &admin.ID)
	dest := e.seedFolder(t, "archive", nil, &admin.ID)

	parts := makeParts(t, map[string]string{"notes.txt": "hi"})
	files, err := e.file.UploadBatch(context.Background(), uploader, root.ID, parts)
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}
	f := files[0]

	// Another editor is not the uploader
	_, err = e.file.Rename(other, f.ID, "stolen.txt")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("other rename: got %v, want ErrForbidden", err)
	}
	_, err = e.file.Move(other, f.ID, dest.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("other move: got %v, want ErrForbidden", err)
	}
	err = e.file.Delete(context.Background(), other, f.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("other delete: got %v, want ErrForbidden", err)
	}

	renamed, err := e.file.Rename(uploader, f.ID, "notes-v2.txt")
	if err != nil {
		t.Fatalf("uploader rename: %v", err)
	}
	if renamed.Filename != "notes-v2.txt" {
		t.Errorf("filename = %q, want notes-v2.txt", renamed.Filename)
	}

	_, err = e.file.Move(uploader, f.ID, "missing-folder")
	if !errors.Is(err, repository.ErrFolderNotFound) {
		t.Errorf("move to missing folder: got %v, want ErrFolderNotFound", err)
	}

	moved, err := e.file.Move(uploader, f.ID, dest.ID)
	if err != nil {
		t.Fatalf("uploader move: %v", err)
	}
	if moved.FolderID != dest.ID {
		t.Errorf("folder = %s, want %s", moved.FolderID, dest.ID)
	}
	if moved.StorageKey != f.StorageKey {
		t.Errorf("move changed storage key %q -> %q", f.StorageKey, moved.StorageKey)
	}

	// Admins may manage anyone's files
	err = e.file.Delete(context.Background(), admin, f.ID)
	if err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	_, err = e.files.ByID(f.ID)
	if !errors.Is(err, repository.ErrFileNotFound) {
		t.Errorf("deleted file lookup: got %v, want ErrFileNotFound", err)
	}
}
