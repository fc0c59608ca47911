package middleware

import (
	"net/http"

	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

const RoleAdmin = "admin"

// RequireRole must run after AuthMiddleware. Requests whose principal
// has none of the given roles get 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgNotAuthorized, nil,
				)
				return
			}

			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			utils.RespondErrorWithCode(
				w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient permissions", nil,
			)
		})
	}
}

// AdminAuthMiddleware verifies the bearer token and ensures it belongs to
// an admin.
func AdminAuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	authenticate := AuthMiddleware(verifier)
	authorize := RequireRole(RoleAdmin)
	return func(next http.Handler) http.Handler {
		return authenticate(authorize(next))
	}
}
