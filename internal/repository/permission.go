package repository

import (
	"database/sql"
	"errors"

	"github.com/atcdrive/drive/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrPermissionNotFound  = errors.New("permission not found")
	ErrDuplicatePermission = errors.New("permission already exists")
)

type PermissionRepository interface {
	Create(perm *model.FolderPermission) error
	ByFolderAndUser(folderID, userID string) (*model.FolderPermission, error)
	ByFolder(folderID string) ([]*model.FolderPermission, error)
	Delete(folderID, userID string) error
}

type permissionRepository struct {
	db *sqlx.DB
}

func NewPermissionRepository(db *sqlx.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(perm *model.FolderPermission) error {
	query := `INSERT INTO folder_permissions (id, folder_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, perm.ID, perm.FolderID, perm.UserID, perm.Role, perm.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePermission
		}
		return err
	}

	return nil
}

func (r *permissionRepository) ByFolderAndUser(folderID, userID string) (*model.FolderPermission, error) {
	perm := &model.FolderPermission{}
	query := `SELECT * FROM folder_permissions WHERE folder_id = $1 AND user_id = $2`

	err := r.db.Get(perm, query, folderID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrPermissionNotFound
	}

	return perm, err
}

func (r *permissionRepository) ByFolder(folderID string) ([]*model.FolderPermission, error) {
	var perms []*model.FolderPermission
	query := `SELECT * FROM folder_permissions WHERE folder_id = $1 ORDER BY created_at`

	err := r.db.Select(&perms, query, folderID)
	if err != nil {
		return nil, err
	}

	return perms, nil
}

func (r *permissionRepository) Delete(folderID, userID string) error {
	result, err := r.db.Exec(`DELETE FROM folder_permissions WHERE folder_id = $1 AND user_id = $2`, folderID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPermissionNotFound
	}

	return nil
}
