package service

import (
	"errors"
	"testing"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
)

func TestUserCreateAdminOnly(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	editor := e.seedUser(t, "editor", model.RoleEditor)

	_, err := e.user.Create(editor, "bob", "bob@example.com", "orange-crab7", "viewer")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("editor create: got %v, want ErrForbidden", err)
	}

	_, err = e.user.Create(admin, "bob", "bob@example.com", "orange-crab7", "owner")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: got %v, want ErrInvalidInput", err)
	}

	user, err := e.user.Create(admin, "bob", "bob@example.com", "orange-crab7", "editor")
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if user.Role != model.RoleEditor {
		t.Errorf("role = %q, want editor", user.Role)
	}

	_, err = e.auth.Login("bob", "orange-crab7")
	if err != nil {
		t.Errorf("created account login: %v", err)
	}
}

func TestUserListAdminOnly(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	viewer := e.seedUser(t, "viewer", model.RoleViewer)

	_, err := e.user.List(viewer, 0, 10)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("viewer list: got %v, want ErrForbidden", err)
	}

	users, err := e.user.List(admin, 0, 10)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("listed %d users, want 2", len(users))
	}
}

func TestUserUpdate(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	target := e.seedUser(t, "bob", model.RoleViewer)

	role := "editor"
	active := false
	updated, err := e.user.Update(admin, target.ID, UserUpdate{Role: &role, IsActive: &active})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Role != model.RoleEditor {
		t.Errorf("role = %q, want editor", updated.Role)
	}
	if updated.IsActive {
		t.Error("account still active after deactivation")
	}

	bad := "not a valid email"
	_, err = e.user.Update(admin, target.ID, UserUpdate{Email: &bad})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad email: got %v, want ErrInvalidInput", err)
	}

	_, err = e.user.Update(admin, "missing-id", UserUpdate{Role: &role})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("missing user: got %v, want ErrUserNotFound", err)
	}
}

func TestUserDeleteGuards(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	editor := e.seedUser(t, "editor", model.RoleEditor)
	target := e.seedUser(t, "bob", model.RoleViewer)

	err := e.user.Delete(editor, target.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("editor delete: got %v, want ErrForbidden", err)
	}

	err = e.user.Delete(admin, admin.ID)
	if !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("self delete: got %v, want ErrSelfDelete", err)
	}

	err = e.user.Delete(admin, target.ID)
	if err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	_, err = e.users.ByID(target.ID)
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("deleted user lookup: got %v, want ErrUserNotFound", err)
	}
}
