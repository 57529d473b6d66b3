package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/atcdrive/drive/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderNotEmpty = errors.New("folder has child folders or files")
)

type FolderRepository interface {
	Create(folder *model.Folder) error
	ByID(id string) (*model.Folder, error)
	Children(parentID *string) ([]*model.Folder, error)
	Update(folder *model.Folder) error
	DeleteEmpty(id string) error
	VisibleTo(userID string, parentID *string) ([]*model.Folder, error)
	GrantedTo(userID string) ([]*model.Folder, error)
}

type folderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(folder *model.Folder) error {
	query := `INSERT INTO folders (id, name, parent_id, owner_id, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, folder.ID, folder.Name, folder.ParentID, folder.OwnerID, folder.CreatedAt)
	return err
}

func (r *folderRepository) ByID(id string) (*model.Folder, error) {
	folder := &model.Folder{}
	query := `SELECT * FROM folders WHERE id = $1`

	err := r.db.Get(folder, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFolderNotFound
	}

	return folder, err
}

// Children lists folders under parentID, or root folders when
// parentID is nil.
func (r *folderRepository) Children(parentID *string) ([]*model.Folder, error) {
	var folders []*model.Folder
	var err error

	if parentID == nil {
		err = r.db.Select(&folders, `SELECT * FROM folders WHERE parent_id IS NULL ORDER BY name`)
	} else {
		err = r.db.Select(&folders, `SELECT * FROM folders WHERE parent_id = $1 ORDER BY name`, *parentID)
	}
	if err != nil {
		return nil, err
	}

	return folders, nil
}

func (r *folderRepository) Update(folder *model.Folder) error {
	query := `UPDATE folders SET name = $1, parent_id = $2 WHERE id = $3`

	result, err := r.db.Exec(query, folder.Name, folder.ParentID, folder.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFolderNotFound
	}

	return nil
}

// DeleteEmpty deletes the folder only if it has no child folders and
// no files. The structural check and the delete run in a single
// transaction so a concurrent create cannot slip a child in between.
func (r *folderRepository) DeleteEmpty(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var children int
	err = tx.Get(&children, `SELECT COUNT(*) FROM folders WHERE parent_id = $1`, id)
	if err != nil {
		return err
	}

	var files int
	err = tx.Get(&files, `SELECT COUNT(*) FROM files WHERE folder_id = $1`, id)
	if err != nil {
		return err
	}

	if children > 0 || files > 0 {
		return ErrFolderNotEmpty
	}

	result, err := tx.Exec(`DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFolderNotFound
	}

	return tx.Commit()
}

// VisibleTo lists folders under parentID that userID owns or holds a
// grant on. Admin listings bypass this and use Children directly.
func (r *folderRepository) VisibleTo(userID string, parentID *string) ([]*model.Folder, error) {
	var folders []*model.Folder
	var err error

	if parentID == nil {
		query := `SELECT DISTINCT f.* FROM folders f
		          LEFT JOIN folder_permissions p ON p.folder_id = f.id
		          WHERE f.parent_id IS NULL AND (f.owner_id = $1 OR p.user_id = $1)
		          ORDER BY f.name`
		err = r.db.Select(&folders, query, userID)
	} else {
		err = r.db.Select(&folders, `SELECT * FROM folders WHERE parent_id = $1 ORDER BY name`, *parentID)
	}
	if err != nil {
		return nil, err
	}

	return folders, nil
}

// GrantedTo lists the folders userID holds explicit grants on.
func (r *folderRepository) GrantedTo(userID string) ([]*model.Folder, error) {
	var folders []*model.Folder
	query := `SELECT f.* FROM folders f
	          JOIN folder_permissions p ON p.folder_id = f.id
	          WHERE p.user_id = $1 ORDER BY f.name`

	err := r.db.Select(&folders, query, userID)
	if err != nil {
		return nil, err
	}

	return folders, nil
}
