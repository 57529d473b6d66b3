package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atcdrive/drive/internal/db"
	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// env holds a full service stack over a throwaway sqlite database and
// a local storage root.
type env struct {
	users   repository.UserRepository
	folders repository.FolderRepository
	perms   repository.PermissionRepository
	files   repository.FileRepository

	access *AccessService
	auth   *AuthService
	user   *UserService
	folder *FolderService
	file   *FileService

	store storage.Storage
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Init("sqlite", dsn)
	if err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	if err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}

	users := repository.NewUserRepository(database)
	folders := repository.NewFolderRepository(database)
	perms := repository.NewPermissionRepository(database)
	files := repository.NewFileRepository(database)

	email := NewEmailService("", "noreply@example.com", "http://localhost:3000", "Drive", true)
	access := NewAccessService(perms)
	auth := NewAuthService(users, email, "test-secret", time.Hour, time.Hour)
	user := NewUserService(users, auth)
	folder := NewFolderService(folders, perms, users, access)
	file := NewFileService(files, folders, access, store, 3, 1<<20)

	return &env{
		users:   users,
		folders: folders,
		perms:   perms,
		files:   files,
		access:  access,
		auth:    auth,
		user:    user,
		folder:  folder,
		file:    file,
		store:   store,
	}
}

// seedUser inserts an account directly, skipping registration rules,
// so tests can mint admins and editors.
func (e *env) seedUser(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = e.users.Create(user)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func (e *env) seedFolder(t *testing.T, name string, parentID, ownerID *string) *model.Folder {
	t.Helper()

	folder := &model.Folder{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	err := e.folders.Create(folder)
	if err != nil {
		t.Fatalf("seed folder %s: %v", name, err)
	}
	return folder
}

func (e *env) grant(t *testing.T, folderID, userID string, role model.Role) {
	t.Helper()

	err := e.perms.Create(&model.FolderPermission{
		ID:        uuid.New().String(),
		FolderID:  folderID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed grant: %v", err)
	}
}
