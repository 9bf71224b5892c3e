package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

// Role is the capability set attached to an authenticated request.
type Role string

const (
	RoleNone   Role = ""
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// CanDeleteFiles reports whether the role may delete attachments.
func (r Role) CanDeleteFiles() bool { return r == RoleEditor || r == RoleAdmin }

// CanManageOptions reports whether the role may change settings.
func (r Role) CanManageOptions() bool { return r == RoleAdmin }

type roleKey struct{}

// WithRole returns a context carrying role.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFrom returns the role stored in ctx, or RoleNone.
func RoleFrom(ctx context.Context) Role {
	if ctx == nil {
		return RoleNone
	}
	r, _ := ctx.Value(roleKey{}).(Role)
	return r
}

var public = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Middleware authenticates "Authorization: Bearer <token>" against
// UNIQUEFILE_API_TOKEN (editor) and UNIQUEFILE_ADMIN_TOKEN (admin).
func Middleware(next http.Handler) http.Handler {
	token := os.Getenv("UNIQUEFILE_API_TOKEN")
	adminToken := os.Getenv("UNIQUEFILE_ADMIN_TOKEN")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			http.Error(w, "missing API token", http.StatusUnauthorized)
			return
		}

		got := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		var role Role
		switch {
		case matches(got, adminToken):
			role = RoleAdmin
		case matches(got, token):
			role = RoleEditor
		default:
			http.Error(w, "invalid API token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
	})
}

func matches(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
