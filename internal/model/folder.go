package model

import (
	"time"
)

type Folder struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ParentID  *string   `db:"parent_id"` // nil for root folders
	OwnerID   *string   `db:"owner_id"`  // nil after the owner is deleted
	CreatedAt time.Time `db:"created_at"`
}

// IsRoot reports whether the folder is a root folder, the only tier
// that may carry permission grants.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// FolderPermission grants a user a role on a root folder. One row per
// (folder, user) pair.
type FolderPermission struct {
	ID        string    `db:"id"`
	FolderID  string    `db:"folder_id"`
	UserID    string    `db:"user_id"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}
