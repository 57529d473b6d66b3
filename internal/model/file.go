package model

import (
	"time"
)

const (
	StorageTypeS3    = "s3"
	StorageTypeLocal = "local"
)

type File struct {
	ID          string    `db:"id"`
	Filename    string    `db:"filename"`
	FolderID    string    `db:"folder_id"`
	UploadedBy  *string   `db:"uploaded_by"` // nil after the uploader is deleted
	StorageType string    `db:"storage_type"`
	StorageKey  string    `db:"storage_key"` // opaque outside the matching backend
	Size        int64     `db:"size"`
	CreatedAt   time.Time `db:"created_at"`
}

// UploaderIs reports whether userID is the recorded uploader.
func (f *File) UploaderIs(userID string) bool {
	return f.UploadedBy != nil && *f.UploadedBy == userID
}
