package handler

import (
	"net/http"
	"strconv"

	"github.com/atcdrive/drive/internal/ctxkeys"
	"github.com/atcdrive/drive/internal/service"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Create(admin, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *userHandler) List(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())

	offset := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	users, err := h.userService.List(admin, offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *userHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	id := r.PathValue("id")

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Update(admin, id, service.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *userHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	id := r.PathValue("id")

	err := h.userService.Delete(admin, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
