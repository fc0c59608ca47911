package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/shared/go-middleware"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tokens carry a millisecond iat so a logout-all stamp and a login in the
// same second still order correctly. Claims are encoded at microsecond
// precision: float64 decoding of a millisecond value can land just below it,
// and truncating that to the millisecond would lose a whole millisecond.
func init() {
	jwt.TimePrecision = time.Microsecond
}

// TokenKind is carried in the "typ" claim; an access token never passes
// as a refresh token or the other way round.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ErrInvalidToken covers every signature, algorithm, issuer, type and
// expiry failure.
var ErrInvalidToken = errors.New("invalid token")

type TokenClaims struct {
	Role string    `json:"role"`
	Type TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IssuedAtTime returns iat at millisecond precision, undoing the sub-microsecond
// error of parsing the claim as float64 seconds.
func (c *TokenClaims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time.Round(time.Millisecond)
}

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

type JWTService interface {
	IssueToken(userID uuid.UUID, role models.RoleType, kind TokenKind) (string, *TokenClaims, error)

	// VerifyToken checks signature, algorithm, issuer, kind and expiry.
	VerifyToken(token string, kind TokenKind) (*TokenClaims, error)

	// DecodeToken reads claims without verifying the signature. Only use
	// it to learn a token's expiry.
	DecodeToken(token string) (*TokenClaims, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type jwtService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewJWTService(cfg *config.Config) JWTService {
	return &jwtService{
		accessSecret:  cfg.JWTSecret,
		refreshSecret: cfg.JWTRefreshSecret,
		accessTTL:     cfg.AccessTokenExpiry,
		refreshTTL:    cfg.RefreshTokenExpiry,
		now:           time.Now,
	}
}

func (j *jwtService) keyFor(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case TokenKindAccess:
		return j.accessSecret, j.accessTTL, nil
	case TokenKindRefresh:
		return j.refreshSecret, j.refreshTTL, nil
	}
	return nil, 0, fmt.Errorf("unknown token kind %q", kind)
}

// ---------------------------------------------------------------------
// IssueToken
// ---------------------------------------------------------------------

func (j *jwtService) IssueToken(userID uuid.UUID, role models.RoleType, kind TokenKind) (string, *TokenClaims, error) {
	secret, ttl, err := j.keyFor(kind)
	if err != nil {
		return "", nil, err
	}

	now := j.now().Truncate(time.Millisecond)
	claims := &TokenClaims{
		Role: string(role),
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    middleware.TokenIssuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ---------------------------------------------------------------------
// VerifyToken
// ---------------------------------------------------------------------

func (j *jwtService) VerifyToken(token string, kind TokenKind) (*TokenClaims, error) {
	secret, _, err := j.keyFor(kind)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(middleware.TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)

	claims := &TokenClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Type)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, nil
}

// ---------------------------------------------------------------------
// DecodeToken
// ---------------------------------------------------------------------

func (j *jwtService) DecodeToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidTokenFormat, err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", utils.ErrInvalidTokenFormat)
	}
	return claims, nil
}
