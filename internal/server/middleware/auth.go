package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
)

// Principal represents the authenticated admin making the request.
type Principal struct {
	AdminID string
	Role    string
}

// IsSuperAdmin reports whether the principal holds the SUPER_ADMIN role.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == model.RoleSuperAdmin
}

// Authenticate returns an HTTP middleware that requires a JWT Bearer token
// issued by login. On success, a Principal is attached to the request
// context. On failure, a 401 JSON error response is returned.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required. Provide a Bearer token.")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			p, err := authSvc.ValidateToken(token)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, service.ErrTokenExpired) {
					msg = "Token expired"
				}
				writeAuthError(w, http.StatusUnauthorized, msg)
				return
			}

			principal := &Principal{AdminID: p.AdminID, Role: p.Role}
			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns an HTTP middleware that admits only principals holding
// role. It must be used after Authenticate in the middleware chain.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil || principal.Role != role {
				writeAuthError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: message})
}
