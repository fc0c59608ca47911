package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenIssuer identifies the service that issues all access/refresh tokens.
const TokenIssuer = "CleanMatch"

var (
	ErrMissingAuthorization = errors.New("missing Authorization header")
	ErrMalformedBearer      = errors.New("malformed bearer token")
)

// Principal is the identity a verified access token stands for.
type Principal struct {
	UserID    uuid.UUID
	Role      string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RequestVerifier decides whether a raw bearer token may be trusted. The
// auth service implements it with signature, blacklist and
// invalidation-date checks.
type RequestVerifier interface {
	VerifyRequest(ctx context.Context, token string) (*Principal, error)
}

// ExtractBearerToken reads the token from "Authorization: Bearer <token>".
func ExtractBearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingAuthorization
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedBearer
	}
	return token, nil
}

// PrincipalFromContext returns the principal stored by AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(*Principal)
	return p, ok && p != nil
}
