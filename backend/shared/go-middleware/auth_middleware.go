package middleware

import (
	"context"
	"net/http"

	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

type contextKey string

const (
	ContextKeyUserID    = contextKey("userID")
	ContextKeyPrincipal = contextKey("principal")
)

// AuthMiddleware – for protected endpoints. A missing bearer token or any
// verification failure returns 401 with the same public message; the
// cause only reaches the logs.
func AuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := ExtractBearerToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authorized, no token", nil, err,
				)
				return
			}

			principal, vErr := verifier.VerifyRequest(r.Context(), tokenStr)
			if vErr != nil || principal == nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgNotAuthorized, nil, vErr,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, principal.UserID.String())
			ctx = context.WithValue(ctx, ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
