package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateAccessJWT signs an access token the way the service does, with a
// caller-chosen iat and lifetime.
func (h *TestHelper) CreateAccessJWT(userID uuid.UUID, role string, issuedAt time.Time, ttl time.Duration) string {
	return SignJWT(h.T, h.JWTSecret, userID, role, "access", issuedAt, ttl)
}

// CreateRefreshJWT is CreateAccessJWT for refresh tokens.
func (h *TestHelper) CreateRefreshJWT(userID uuid.UUID, role string, issuedAt time.Time, ttl time.Duration) string {
	return SignJWT(h.T, h.JWTRefreshSecret, userID, role, "refresh", issuedAt, ttl)
}

// SignJWT builds an HS256 token carrying the service's claim set.
func SignJWT(
	t require.TestingT,
	secret []byte,
	userID uuid.UUID,
	role, typ string,
	issuedAt time.Time,
	ttl time.Duration,
) string {
	claims := jwt.MapClaims{
		"iss":  "CleanMatch",
		"sub":  userID.String(),
		"role": role,
		"typ":  typ,
		"jti":  uuid.NewString(),
		"iat":  jwt.NewNumericDate(issuedAt),
		"exp":  jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err, "Failed to sign test JWT")
	return signed
}
