package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrFolderCycle  = errors.New("destination folder is inside the folder being moved")
	ErrNotRoot      = errors.New("grants are only valid on root folders")
	ErrIntegrity    = errors.New("folder ancestry contains a cycle")
	ErrInvalidInput = errors.New("invalid input")
)

// Grant is a folder permission joined with the holder's email.
type Grant struct {
	UserEmail string     `json:"user_email"`
	Role      model.Role `json:"role"`
}

type FolderService struct {
	folderRepo     repository.FolderRepository
	permissionRepo repository.PermissionRepository
	userRepo       repository.UserRepository
	access         *AccessService
}

func NewFolderService(
	folderRepo repository.FolderRepository,
	permissionRepo repository.PermissionRepository,
	userRepo repository.UserRepository,
	access *AccessService,
) *FolderService {
	return &FolderService{
		folderRepo:     folderRepo,
		permissionRepo: permissionRepo,
		userRepo:       userRepo,
		access:         access,
	}
}

// Create makes a new folder. Root creation (no parent) is restricted
// to admins; creation under a parent requires effective edit on that
// parent. New root folders record an editor grant for their creator.
func (s *FolderService) Create(user *model.User, name string, parentID *string) (*model.Folder, error) {
	err := validation.ValidateFolderName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if parentID == nil {
		if !user.IsAdmin() {
			return nil, ErrForbidden
		}
	} else {
		parent, err := s.folderRepo.ByID(*parentID)
		if err != nil {
			return nil, err
		}

		err = s.access.Authorize(user, parent, CapabilityEdit)
		if err != nil {
			return nil, err
		}
	}

	folder := &model.Folder{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		OwnerID:   &user.ID,
		CreatedAt: time.Now(),
	}

	err = s.folderRepo.Create(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	if folder.IsRoot() {
		perm := &model.FolderPermission{
			ID:        uuid.New().String(),
			FolderID:  folder.ID,
			UserID:    user.ID,
			Role:      model.RoleEditor,
			CreatedAt: time.Now(),
		}
		err = s.permissionRepo.Create(perm)
		if err != nil && !errors.Is(err, repository.ErrDuplicatePermission) {
			slog.Warn("failed to record creator grant", "error", err, "folder_id", folder.ID, "user_id", user.ID)
		}
	}

	slog.Info("folder created", "folder_id", folder.ID, "parent_id", parentID, "user_id", user.ID)
	return folder, nil
}

// List returns the folders under parentID (roots when nil) visible to
// the user. Admins see everything; other users see root folders they
// own or hold a grant on, and all folders below a root.
func (s *FolderService) List(user *model.User, parentID *string) ([]*model.Folder, error) {
	if user.IsAdmin() {
		return s.folderRepo.Children(parentID)
	}
	return s.folderRepo.VisibleTo(user.ID, parentID)
}

// Get fetches a folder after checking effective view access.
func (s *FolderService) Get(user *model.User, id string) (*model.Folder, error) {
	folder, err := s.folderRepo.ByID(id)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(user, folder, CapabilityView)
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// Update renames a folder and optionally moves it under a new parent.
// A parent change validates the destination exists and is not the
// folder itself or one of its descendants.
func (s *FolderService) Update(user *model.User, id string, name *string, newParentID *string) (*model.Folder, error) {
	folder, err := s.folderRepo.ByID(id)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(user, folder, CapabilityEdit)
	if err != nil {
		return nil, err
	}

	if name != nil {
		err = validation.ValidateFolderName(*name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		folder.Name = *name
	}

	if newParentID != nil {
		dest, err := s.folderRepo.ByID(*newParentID)
		if err != nil {
			return nil, err
		}

		err = s.access.Authorize(user, dest, CapabilityEdit)
		if err != nil {
			return nil, err
		}

		err = s.checkNoCycle(id, dest)
		if err != nil {
			return nil, err
		}

		folder.ParentID = newParentID
	}

	err = s.folderRepo.Update(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}

	return folder, nil
}

// checkNoCycle rejects a reparent whose destination sits inside the
// subtree rooted at folderID.
func (s *FolderService) checkNoCycle(folderID string, dest *model.Folder) error {
	seen := map[string]bool{}
	current := dest

	for {
		if current.ID == folderID {
			return ErrFolderCycle
		}
		if seen[current.ID] {
			return ErrIntegrity
		}
		seen[current.ID] = true

		if current.ParentID == nil {
			return nil
		}

		parent, err := s.folderRepo.ByID(*current.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrFolderNotFound) {
				return ErrIntegrity
			}
			return err
		}
		current = parent
	}
}

// Delete removes a folder. Root folders require admin; non-root
// folders require effective edit. The structural guard is
// unconditional: a folder with any child folder or file is never
// deleted, regardless of caller role.
func (s *FolderService) Delete(user *model.User, id string) error {
	folder, err := s.folderRepo.ByID(id)
	if err != nil {
		return err
	}

	required := CapabilityEdit
	if folder.IsRoot() {
		required = CapabilityAdmin
	}
	err = s.access.Authorize(user, folder, required)
	if err != nil {
		return err
	}

	err = s.folderRepo.DeleteEmpty(id)
	if err != nil {
		return err
	}

	slog.Info("folder deleted", "folder_id", id, "user_id", user.ID)
	return nil
}

// Path returns the folder sequence from the root down to id. A
// revisited ancestor is a data-integrity failure, surfaced instead of
// walked forever.
func (s *FolderService) Path(user *model.User, id string) ([]*model.Folder, error) {
	folder, err := s.folderRepo.ByID(id)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(user, folder, CapabilityView)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var path []*model.Folder
	current := folder

	for {
		if seen[current.ID] {
			slog.Error("cycle detected in folder ancestry", "folder_id", id, "at", current.ID)
			return nil, ErrIntegrity
		}
		seen[current.ID] = true
		path = append([]*model.Folder{current}, path...)

		if current.ParentID == nil {
			return path, nil
		}

		parent, err := s.folderRepo.ByID(*current.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrFolderNotFound) {
				slog.Error("folder ancestry references missing parent", "folder_id", id, "parent_id", *current.ParentID)
				return nil, ErrIntegrity
			}
			return nil, err
		}
		current = parent
	}
}

// Grants lists who holds access on a root folder. Admin only.
func (s *FolderService) Grants(user *model.User, folderID string) ([]Grant, error) {
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}

	folder, err := s.folderRepo.ByID(folderID)
	if err != nil {
		return nil, err
	}
	if !folder.IsRoot() {
		return nil, ErrNotRoot
	}

	perms, err := s.permissionRepo.ByFolder(folderID)
	if err != nil {
		return nil, err
	}

	grants := make([]Grant, 0, len(perms))
	for _, p := range perms {
		holder, err := s.userRepo.ByID(p.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		grants = append(grants, Grant{UserEmail: holder.Email, Role: p.Role})
	}

	return grants, nil
}

// Grant records a role for a user on a root folder. Admin only; role
// strings outside the closed enumeration are rejected at this
// boundary; an existing grant for the same user is a conflict.
func (s *FolderService) Grant(user *model.User, folderID, email, role string) error {
	if !user.IsAdmin() {
		return ErrForbidden
	}

	parsed, err := model.ParseRole(role)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	folder, err := s.folderRepo.ByID(folderID)
	if err != nil {
		return err
	}
	if !folder.IsRoot() {
		return ErrNotRoot
	}

	target, err := s.userRepo.ByEmail(email)
	if err != nil {
		return err
	}

	perm := &model.FolderPermission{
		ID:        uuid.New().String(),
		FolderID:  folderID,
		UserID:    target.ID,
		Role:      parsed,
		CreatedAt: time.Now(),
	}

	err = s.permissionRepo.Create(perm)
	if err != nil {
		return err
	}

	slog.Info("folder grant added", "folder_id", folderID, "user_id", target.ID, "role", parsed, "by", user.ID)
	return nil
}

// Revoke removes a user's grant on a root folder. Admin only.
func (s *FolderService) Revoke(user *model.User, folderID, email string) error {
	if !user.IsAdmin() {
		return ErrForbidden
	}

	folder, err := s.folderRepo.ByID(folderID)
	if err != nil {
		return err
	}
	if !folder.IsRoot() {
		return ErrNotRoot
	}

	target, err := s.userRepo.ByEmail(email)
	if err != nil {
		return err
	}

	err = s.permissionRepo.Delete(folderID, target.ID)
	if err != nil {
		return err
	}

	slog.Info("folder grant removed", "folder_id", folderID, "user_id", target.ID, "by", user.ID)
	return nil
}

// AccessibleFolders lists the folders a user holds explicit grants
// on. Admin only.
func (s *FolderService) AccessibleFolders(user *model.User, email string) ([]*model.Folder, error) {
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}

	target, err := s.userRepo.ByEmail(email)
	if err != nil {
		return nil, err
	}

	return s.folderRepo.GrantedTo(target.ID)
}
