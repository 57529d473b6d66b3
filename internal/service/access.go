package service

import (
	"errors"
	"fmt"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
)

var (
	ErrForbidden = errors.New("insufficient permissions")
)

// Capability is the access level an operation requires on a folder.
type Capability string

const (
	CapabilityView  Capability = "view"
	CapabilityEdit  Capability = "edit"
	CapabilityAdmin Capability = "admin"
)

// AccessService resolves effective roles for the folder hierarchy.
//
// Grants are only meaningful on root folders. A user's effective role
// on a root folder is their grant role when one exists, otherwise
// their global role — a missing grant falls back, it never denies.
// Below the root (and on roots without grants) the global role applies
// directly; there is no per-folder override beyond the root tier.
type AccessService struct {
	permissionRepo repository.PermissionRepository
}

func NewAccessService(permissionRepo repository.PermissionRepository) *AccessService {
	return &AccessService{permissionRepo: permissionRepo}
}

// EffectiveRole computes the role applied when authorizing operations
// on folder. Pure given the folder tier, the grant table and the
// user's global role.
func (s *AccessService) EffectiveRole(user *model.User, folder *model.Folder) (model.Role, error) {
	if !folder.IsRoot() {
		return user.Role, nil
	}

	perm, err := s.permissionRepo.ByFolderAndUser(folder.ID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPermissionNotFound) {
			return user.Role, nil
		}
		return "", fmt.Errorf("failed to look up folder grant: %w", err)
	}

	return perm.Role, nil
}

// Authorize checks the user's effective role on folder against the
// required capability. Every folder and file operation calls through
// here before touching records or storage.
func (s *AccessService) Authorize(user *model.User, folder *model.Folder, required Capability) error {
	role, err := s.EffectiveRole(user, folder)
	if err != nil {
		return err
	}

	var ok bool
	switch required {
	case CapabilityView:
		ok = role.CanView()
	case CapabilityEdit:
		ok = role.CanEdit()
	case CapabilityAdmin:
		ok = role.IsAdmin()
	}

	if !ok {
		return ErrForbidden
	}

	return nil
}
