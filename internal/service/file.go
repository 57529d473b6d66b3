package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"time"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/storage"
	"github.com/atcdrive/drive/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrTooManyFiles   = errors.New("too many files in upload batch")
	ErrFileTooLarge   = errors.New("file exceeds the maximum allowed size")
	ErrUnknownStorage = errors.New("file has an unknown storage backend")
)

// Download is the result of a download request: a presigned URL for
// object-store files, or an open byte stream for local files.
type Download struct {
	URL      string
	Content  io.ReadCloser
	Filename string
	MimeType string
	Size     int64
}

type FileService struct {
	fileRepo       repository.FileRepository
	folderRepo     repository.FolderRepository
	access         *AccessService
	storage        storage.Storage
	maxUploadFiles int
	maxFileSize    int64
}

func NewFileService(
	fileRepo repository.FileRepository,
	folderRepo repository.FolderRepository,
	access *AccessService,
	store storage.Storage,
	maxUploadFiles int,
	maxFileSize int64,
) *FileService {
	return &FileService{
		fileRepo:       fileRepo,
		folderRepo:     folderRepo,
		access:         access,
		storage:        store,
		maxUploadFiles: maxUploadFiles,
		maxFileSize:    maxFileSize,
	}
}

// UploadBatch stores a batch of uploaded parts into a folder.
//
// The batch count and every part's size are validated before any
// storage write, so an oversized batch or file rejects the whole
// request with nothing stored. After validation parts are processed
// in order; the first storage or record failure aborts the batch.
// Parts already completed stay durable and are never reported as part
// of a failed batch.
func (s *FileService) UploadBatch(ctx context.Context, user *model.User, folderID string, parts []*multipart.FileHeader) ([]*model.File, error) {
	if len(parts) > s.maxUploadFiles {
		return nil, fmt.Errorf("%w: %d files (max %d)", ErrTooManyFiles, len(parts), s.maxUploadFiles)
	}

	folder, err := s.folderRepo.ByID(folderID)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(user, folder, CapabilityEdit)
	if err != nil {
		return nil, err
	}

	// Size check precedes all I/O
	for _, part := range parts {
		if part.Size > s.maxFileSize {
			return nil, fmt.Errorf("%w: %q is %d bytes (max %d)", ErrFileTooLarge, part.Filename, part.Size, s.maxFileSize)
		}
	}

	uploaded := make([]*model.File, 0, len(parts))
	for _, part := range parts {
		file, err := s.uploadOne(ctx, user, folder, part)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, file)
	}

	slog.Info("upload batch completed", "folder_id", folderID, "files", len(uploaded), "user_id", user.ID)
	return uploaded, nil
}

// uploadOne writes one part to storage and records it. The record is
// only created after the storage write succeeds; a record failure
// triggers a best-effort blob cleanup.
func (s *FileService) uploadOne(ctx context.Context, user *model.User, folder *model.Folder, part *multipart.FileHeader) (*model.File, error) {
	subdir, base, err := validation.CleanUploadPath(part.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	key := storageKey(folder.ID, subdir, base)

	src, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	err = s.storage.Save(ctx, key, src)
	if err != nil {
		return nil, fmt.Errorf("failed to store %q: %w", base, err)
	}

	file := &model.File{
		ID:          uuid.New().String(),
		Filename:    base,
		FolderID:    folder.ID,
		UploadedBy:  &user.ID,
		StorageType: s.storage.Kind(),
		StorageKey:  key,
		Size:        part.Size,
		CreatedAt:   time.Now(),
	}

	err = s.fileRepo.Create(file)
	if err != nil {
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to clean up blob after record failure", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return file, nil
}

// storageKey namespaces a random blob name by folder id and optional
// upload sub-path, so concurrent uploads never collide across folders.
func storageKey(folderID, subdir, filename string) string {
	name := uuid.New().String()
	if ext := filepath.Ext(filename); ext != "" {
		name += ext
	}
	if subdir != "" {
		return path.Join(folderID, subdir, name)
	}
	return path.Join(folderID, name)
}

// List returns the files in a folder, after a view check on it.
func (s *FileService) List(user *model.User, folderID string) ([]*model.File, error) {
	folder, err := s.folderRepo.ByID(folderID)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(user, folder, CapabilityView)
	if err != nil {
		return nil, err
	}

	return s.fileRepo.ByFolder(folderID)
}

// Download resolves a file into a retrieval address. Object-store
// files get a time-limited presigned URL; local files are streamed
// with a MIME type derived from the filename extension.
func (s *FileService) Download(ctx context.Context, user *model.User, fileID string) (*Download, error) {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return nil, err
	}

	folder, err := s.folderRepo.ByID(file.FolderID)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(user, folder, CapabilityView)
	if err != nil {
		return nil, err
	}

	switch file.StorageType {
	case model.StorageTypeS3:
		s3Store, ok := s.storage.(*storage.S3Storage)
		if !ok {
			return nil, fmt.Errorf("%w: s3 file but backend is %s", ErrUnknownStorage, s.storage.Kind())
		}
		url, err := s3Store.PresignedURL(ctx, file.StorageKey)
		if err != nil {
			return nil, err
		}
		return &Download{URL: url, Filename: file.Filename, Size: file.Size}, nil

	case model.StorageTypeLocal:
		localStore, ok := s.storage.(*storage.LocalStorage)
		if !ok {
			return nil, fmt.Errorf("%w: local file but backend is %s", ErrUnknownStorage, s.storage.Kind())
		}
		content, err := localStore.Open(file.StorageKey)
		if err != nil {
			return nil, repository.ErrFileNotFound
		}
		return &Download{
			Content:  content,
			Filename: file.Filename,
			MimeType: storage.MimeType(file.Filename),
			Size:     file.Size,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, file.StorageType)
}

// Rename changes a file's display name. Uploader or admin only.
func (s *FileService) Rename(user *model.User, fileID, name string) (*model.File, error) {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return nil, err
	}

	if !file.UploaderIs(user.ID) && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	_, base, err := validation.CleanUploadPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	file.Filename = base
	err = s.fileRepo.Update(file)
	if err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	return file, nil
}

// Move reassigns a file to a new folder. Uploader or admin only; the
// storage key never changes.
func (s *FileService) Move(user *model.User, fileID, newFolderID string) (*model.File, error) {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return nil, err
	}

	if !file.UploaderIs(user.ID) && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	_, err = s.folderRepo.ByID(newFolderID)
	if err != nil {
		return nil, err
	}

	file.FolderID = newFolderID
	err = s.fileRepo.Update(file)
	if err != nil {
		return nil, fmt.Errorf("failed to move file: %w", err)
	}

	slog.Info("file moved", "file_id", fileID, "folder_id", newFolderID, "user_id", user.ID)
	return file, nil
}

// Delete removes a file record. Uploader or admin only. Local blobs
// are deleted first, best-effort: a missing blob never blocks the
// record cleanup. Object-store blobs are left for a background reaper.
func (s *FileService) Delete(ctx context.Context, user *model.User, fileID string) error {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return err
	}

	if !file.UploaderIs(user.ID) && !user.IsAdmin() {
		return ErrForbidden
	}

	if file.StorageType == model.StorageTypeLocal && s.storage.Kind() == model.StorageTypeLocal {
		delErr := s.storage.Delete(ctx, file.StorageKey)
		if delErr != nil {
			slog.Error("failed to delete blob, removing record anyway", "error", delErr, "key", file.StorageKey)
		}
	}

	err = s.fileRepo.Delete(fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	slog.Info("file deleted", "file_id", fileID, "user_id", user.ID)
	return nil
}
