package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atcdrive/drive/internal/ctxkeys"
	"github.com/atcdrive/drive/internal/service"
)

// Auth verifies the bearer token and loads the caller into the
// request context. Requests without a token continue unauthenticated;
// RequireAuth decides whether that matters.
func Auth(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authService.VerifyJWT(token)
			if err != nil {
				status := "invalid_token"
				if errors.Is(err, service.ErrTokenExpired) {
					status = "expired_token"
				}
				challenge(w, status)
				return
			}

			user, err := userService.ByID(userID)
			if err != nil || !user.IsActive {
				challenge(w, "invalid_token")
				return
			}

			// The hash never travels further than this point
			user.PasswordHash = ""

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with a 401 challenge.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			challenge(w, "missing_token")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func challenge(w http.ResponseWriter, reason string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
