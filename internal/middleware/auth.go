package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/models"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const NameKey contextKey = "name"
const RoleKey contextKey = "role"

// UserLookup loads the current user row for a token's user id.
type UserLookup interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      UserLookup
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		users:      users,
	}
}

// bearerToken reads "Authorization: Bearer <token>". Websocket clients
// cannot set headers, so a token query parameter is accepted as well.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, ""
		}
		return "", "Authorization header required"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format"
	}
	return parts[1], ""
}

// authenticate validates the token and reloads the user so deleted users
// and role changes take effect immediately.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token, problem := bearerToken(r)
	if problem != "" {
		writeJSONError(w, http.StatusUnauthorized, problem)
		return nil, false
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}

	user, err := m.users.Get(r.Context(), claims.UserID)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "User not found")
		return nil, false
	}
	return user, true
}

func withUser(r *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
	ctx = context.WithValue(ctx, NameKey, user.Name)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	return r.WithContext(ctx)
}

// Authenticate is a middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

// RequireRole is a middleware that ensures the user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Inside an Authenticate subrouter the user is already loaded.
			if _, authenticated := GetUserIDFromContext(r.Context()); !authenticated {
				user, ok := m.authenticate(w, r)
				if !ok {
					return
				}
				r = withUser(r, user)
			}

			role, _ := GetRoleFromContext(r.Context())
			hasRole := false
			for _, allowed := range allowedRoles {
				if role == allowed {
					hasRole = true
					break
				}
			}
			if !hasRole {
				writeJSONError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetNameFromContext extracts the user name from request context
func GetNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(NameKey).(string)
	return name, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error": %q}`, message)
}
