package routes

import (
	"net/http"

	"github.com/atcdrive/drive/internal/app"
	"github.com/atcdrive/drive/internal/handler"
	"github.com/atcdrive/drive/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	user := handler.NewUserHandler(app.UserService)
	folder := handler.NewFolderHandler(app.FolderService)
	file := handler.NewFileHandler(app.FileService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)

	// Auth flow (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/users/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/users/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/users/token", rateLimiter(auth.Token))
	mux.HandleFunc("POST /api/users/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/users/reset-password", rateLimiter(auth.ResetPassword))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/users/me", middleware.RequireAuth(auth.Me))

	// Admin user management
	mux.HandleFunc("POST /api/users/admin/create", middleware.RequireAuth(user.Create))
	mux.HandleFunc("GET /api/users/admin/users", middleware.RequireAuth(user.List))
	mux.HandleFunc("PUT /api/users/admin/users/{id}", middleware.RequireAuth(user.Update))
	mux.HandleFunc("DELETE /api/users/admin/users/{id}", middleware.RequireAuth(user.Delete))

	// Folders
	mux.HandleFunc("POST /api/folders", middleware.RequireAuth(folder.Create))
	mux.HandleFunc("GET /api/folders", middleware.RequireAuth(folder.List))
	mux.HandleFunc("GET /api/folders/users/{email}/permissions", middleware.RequireAuth(folder.UserGrants))
	mux.HandleFunc("GET /api/folders/{id}", middleware.RequireAuth(folder.Get))
	mux.HandleFunc("PUT /api/folders/{id}", middleware.RequireAuth(folder.Update))
	mux.HandleFunc("DELETE /api/folders/{id}", middleware.RequireAuth(folder.Delete))
	mux.HandleFunc("GET /api/folders/{id}/path", middleware.RequireAuth(folder.Path))
	mux.HandleFunc("GET /api/folders/{id}/permissions", middleware.RequireAuth(folder.Grants))
	mux.HandleFunc("POST /api/folders/{id}/permissions", middleware.RequireAuth(folder.ManageGrant))

	// Files
	mux.HandleFunc("GET /api/files", middleware.RequireAuth(file.List))
	mux.HandleFunc("POST /api/files/upload", middleware.RequireAuth(file.Upload))
	mux.HandleFunc("GET /api/files/{id}/download", middleware.RequireAuth(file.Download))
	mux.HandleFunc("POST /api/files/{id}/move", middleware.RequireAuth(file.Move))
	mux.HandleFunc("PUT /api/files/{id}", middleware.RequireAuth(file.Rename))
	mux.HandleFunc("DELETE /api/files/{id}", middleware.RequireAuth(file.Delete))

	// Global middleware - executed in order (top to bottom). Auth runs
	// before logging so request logs carry the caller's user id.
	handler := middleware.Chain(
		mux,
		middleware.CORS(app.Cfg.CORSOrigins),
		middleware.Auth(app.AuthService, app.UserService),
		middleware.RequestLogging,
	)

	return handler
}
