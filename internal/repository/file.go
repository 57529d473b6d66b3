package repository

import (
	"database/sql"
	"errors"

	"github.com/atcdrive/drive/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	ByFolder(folderID string) ([]*model.File, error)
	ByUploader(userID string) ([]*model.File, error)
	Update(file *model.File) error
	Delete(id string) error
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, filename, folder_id, uploaded_by, storage_type, storage_key, size, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		file.ID,
		file.Filename,
		file.FolderID,
		file.UploadedBy,
		file.StorageType,
		file.StorageKey,
		file.Size,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := r.db.Get(file, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) ByFolder(folderID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE folder_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&files, query, folderID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) ByUploader(userID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE uploaded_by = $1 ORDER BY created_at DESC`

	err := r.db.Select(&files, query, userID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Update persists rename and move. The storage key is immutable after
// creation and deliberately not part of the statement.
func (r *fileRepository) Update(file *model.File) error {
	query := `UPDATE files SET filename = $1, folder_id = $2 WHERE id = $3`

	result, err := r.db.Exec(query, file.Filename, file.FolderID, file.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (r *fileRepository) Delete(id string) error {
	query := `DELETE FROM files WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}
