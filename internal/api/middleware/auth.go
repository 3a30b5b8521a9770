package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ballotbox/internal/common"
	"ballotbox/internal/common/security"
	"ballotbox/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// NewAuthenticator builds the bearer-token gate for protected routes. The
// verified token is resolved to a stored user, so a token for a deleted user
// is rejected and the injected role is always current.
func NewAuthenticator(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

			if err != nil {
				if strings.Contains(err.Error(), "token not found") || token == nil {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}

			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "User no longer exists")
					return
				}
				common.RespondWithDomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, user.ID)
			ctx = context.WithValue(ctx, UserRoleCtxKey, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// Helper to get user role from context
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
