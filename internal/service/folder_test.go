package service

import (
	"errors"
	"testing"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
)

func TestCreateRootFolderAdminOnly(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	editor := e.seedUser(t, "editor", model.RoleEditor)

	_, err := e.folder.Create(editor, "projects", nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("editor root create: got %v, want ErrForbidden", err)
	}

	root, err := e.folder.Create(admin, "projects", nil)
	if err != nil {
		t.Fatalf("admin root create: %v", err)
	}
	if !root.IsRoot() {
		t.Error("created folder is not a root")
	}

	// The creator gets an editor grant on their new root
	perm, err := e.perms.ByFolderAndUser(root.ID, admin.ID)
	if err != nil {
		t.Fatalf("creator grant missing: %v", err)
	}
	if perm.Role != model.RoleEditor {
		t.Errorf("creator grant role = %q, want %q", perm.Role, model.RoleEditor)
	}
}

func TestCreateChildFolderRequiresEdit(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	viewer := e.seedUser(t, "viewer", model.RoleViewer)

	root := e.seedFolder(t, "projects", nil, &admin.ID)

	_, err := e.folder.Create(viewer, "drafts", &root.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("viewer child create: got %v, want ErrForbidden", err)
	}

	e.grant(t, root.ID, viewer.ID, model.RoleEditor)
	child, err := e.folder.Create(viewer, "drafts", &root.ID)
	if err != nil {
		t.Fatalf("granted viewer child create: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("child parent = %v, want %s", child.ParentID, root.ID)
	}
}

func TestCreateFolderRejectsBadNames(t *testing.T) {
	e := newEnv(t)
	admin := e.seedUser(t, "admin", model.RoleAdmin)

	for _, name := range []string{"", "a/b"} {
		_, err := e.folder.Create(admin, name, nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("name %q: got %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestListRootsVisibility(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	viewer := e.seedUser(t, "viewer", model.RoleViewer)

	mine := e.seedFolder(t, "mine", nil, &viewer.ID)
	shared := e.seedFolder(t, "shared", nil, &admin.ID)
	e.seedFolder(t, "private", nil, &admin.ID)
	e.grant(t, shared.ID, viewer.ID, model.RoleViewer)

	roots, err := e.folder.List(viewer, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("viewer sees %d roots, want 2", len(roots))
	}
	got := map[string]bool{}
	for _, f := range roots {
		got[f.ID] = true
	}
	if !got[mine.ID] || !got[shared.ID] {
		t.Errorf("viewer roots = %v, want {%s, %s}", got, mine.ID, shared.ID)
	}

	all, err := e.folder.List(admin, nil)
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("admin sees %d roots, want 3", len(all))
	}
}

func TestDeleteFolderPolicies(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	editor := e.seedUser(t, "editor", model.RoleEditor)

	root := e.seedFolder(t, "projects", nil, &admin.ID)
	child := e.seedFolder(t, "drafts", &root.ID, &editor.ID)

	// Root deletion is admin territory
	err := e.folder.Delete(editor, root.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("editor root delete: got %v, want ErrForbidden", err)
	}

	// The structural guard holds even for admins
	err = e.folder.Delete(admin, root.ID)
	if !errors.Is(err, repository.ErrFolderNotEmpty) {
		t.Fatalf("non-empty root delete: got %v, want ErrFolderNotEmpty", err)
	}

	err = e.folder.Delete(editor, child.ID)
	if err != nil {
		t.Fatalf("editor child delete: %v", err)
	}

	err = e.folder.Delete(admin, root.ID)
	if err != nil {
		t.Fatalf("empty root delete: %v", err)
	}

	_, err = e.folders.ByID(root.ID)
	if !errors.Is(err, repository.ErrFolderNotFound) {
		t.Errorf("deleted root lookup: got %v, want ErrFolderNotFound", err)
	}
}

func TestUpdateFolderRejectsCycle(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	root := e.seedFolder(t, "a", nil, &admin.ID)
	mid := e.seedFolder(t, "b", &root.ID, &admin.ID)
	leaf := e.seedFolder(t, "c", &mid.ID, &admin.ID)

	// Moving a folder into itself
	_, err := e.folder.Update(admin, mid.ID, nil, &mid.ID)
	if !errors.Is(err, ErrFolderCycle) {
		t.Errorf("self move: got %v, want ErrFolderCycle", err)
	}

	// Moving a folder under its own descendant
	_, err = e.folder.Update(admin, root.ID, nil, &leaf.ID)
	if !errors.Is(err, ErrFolderCycle) {
		t.Errorf("descendant move: got %v, want ErrFolderCycle", err)
	}

	// A sibling move is fine
	other := e.seedFolder(t, "d", &root.ID, &admin.ID)
	moved, err := e.folder.Update(admin, leaf.ID, nil, &other.ID)
	if err != nil {
		t.Fatalf("valid move: %v", err)
	}
	if *moved.ParentID != other.ID {
		t.Errorf("moved parent = %s, want %s", *moved.ParentID, other.ID)
	}
}

func TestFolderPath(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	root := e.seedFolder(t, "a", nil, &admin.ID)
	mid := e.seedFolder(t, "b", &root.ID, &admin.ID)
	leaf := e.seedFolder(t, "c", &mid.ID, &admin.ID)

	path, err := e.folder.Path(admin, leaf.ID)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}

	want := []string{root.ID, mid.ID, leaf.ID}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d", len(path), len(want))
	}
	for i, f := range path {
		if f.ID != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, f.ID, want[i])
		}
	}
}

func TestGrantManagement(t *testing.T) {
	e := newEnv(t)

	admin := e.seedUser(t, "admin", model.RoleAdmin)
	editor := e.seedUser(t, "editor", model.RoleEditor)
	viewer := e.seedUser(t, "viewer", model.RoleViewer)

	root := e.seedFolder(t, "shared", nil, &admin.ID)
	child := e.seedFolder(t, "inside", &root.ID, &admin.ID)

	err := e.folder.Grant(editor, root.ID, viewer.Email, "editor")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin grant: got %v, want ErrForbidden", err)
	}

	err = e.folder.Grant(admin, child.ID, viewer.Email, "editor")
	if !errors.Is(err, ErrNotRoot) {
		t.Fatalf("non-root grant: got %v, want ErrNotRoot", err)
	}

	err = e.folder.Grant(admin, root.ID, viewer.Email, "owner")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role grant: got %v, want ErrInvalidInput", err)
	}

	err = e.folder.Grant(admin, root.ID, viewer.Email, "editor")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	err = e.folder.Grant(admin, root.ID, viewer.Email, "viewer")
	if !errors.Is(err, repository.ErrDuplicatePermission) {
		t.Fatalf("duplicate grant: got %v, want ErrDuplicatePermission", err)
	}

	grants, err := e.folder.Grants(admin, root.ID)
	if err != nil {
		t.Fatalf("Grants: %v", err)
	}
	if len(grants) != 1 || grants[0].UserEmail != viewer.Email || grants[0].Role != model.RoleEditor {
		t.Errorf("grants = %+v, want one editor grant for %s", grants, viewer.Email)
	}

	folders, err := e.folder.AccessibleFolders(admin, viewer.Email)
	if err != nil {
		t.Fatalf("AccessibleFolders: %v", err)
	}
	if len(folders) != 1 || folders[0].ID != root.ID {
		t.Errorf("accessible folders = %v, want [%s]", folders, root.ID)
	}

	err = e.folder.Revoke(admin, root.ID, viewer.Email)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	err = e.folder.Revoke(admin, root.ID, viewer.Email)
	if !errors.Is(err, repository.ErrPermissionNotFound) {
		t.Errorf("revoke missing grant: got %v, want ErrPermissionNotFound", err)
	}
}
