package app

import (
	"fmt"

	"github.com/atcdrive/drive/internal/config"
	"github.com/atcdrive/drive/internal/db"
	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/service"
	"github.com/atcdrive/drive/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	AuthService   *service.AuthService
	UserService   *service.UserService
	EmailService  *service.EmailService
	FolderService *service.FolderService
	FileService   *service.FileService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	folderRepository := repository.NewFolderRepository(database)
	permissionRepository := repository.NewPermissionRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	accessService := service.NewAccessService(permissionRepository)
	authService := service.NewAuthService(
		userRepository,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.ResetTokenExpiry,
	)
	userService := service.NewUserService(userRepository, authService)
	folderService := service.NewFolderService(folderRepository, permissionRepository, userRepository, accessService)
	fileService := service.NewFileService(
		fileRepository,
		folderRepository,
		accessService,
		fileStorage,
		cfg.MaxUploadFiles,
		cfg.MaxFileSize,
	)

	return &App{
		Cfg:           cfg,
		DB:            database,
		AuthService:   authService,
		UserService:   userService,
		EmailService:  emailService,
		FolderService: folderService,
		FileService:   fileService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
