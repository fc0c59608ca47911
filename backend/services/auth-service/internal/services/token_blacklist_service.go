package services

import (
	"context"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
)

// TokenBlacklistService revokes individual tokens ahead of their expiry.
type TokenBlacklistService interface {
	Hash(token string) string

	// Add revokes token until its own exp. The signature is not checked;
	// undecodable input yields utils.ErrInvalidTokenFormat.
	Add(ctx context.Context, token string, userID uuid.UUID, reason models.RevocationReason) error

	AddHashed(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time, reason models.RevocationReason) error

	// IsRevoked never returns an error. When the store is unreachable it
	// answers false (fail-open) unless the service was built fail-closed.
	IsRevoked(ctx context.Context, token string) bool

	SweepExpired(ctx context.Context) (int64, error)
}

type tokenBlacklistService struct {
	repo       repositories.TokenBlacklistRepository
	jwt        JWTService
	failClosed bool
}

func NewTokenBlacklistService(
	repo repositories.TokenBlacklistRepository,
	jwtService JWTService,
	failClosed bool,
) TokenBlacklistService {
	return &tokenBlacklistService{
		repo:       repo,
		jwt:        jwtService,
		failClosed: failClosed,
	}
}

func (s *tokenBlacklistService) Hash(token string) string {
	return utils.HashToken(token)
}

func (s *tokenBlacklistService) Add(
	ctx context.Context,
	token string,
	userID uuid.UUID,
	reason models.RevocationReason,
) error {
	claims, err := s.jwt.DecodeToken(token)
	if err != nil {
		return err
	}
	if userID == uuid.Nil {
		// Best effort; user_id is informational only.
		userID, _ = claims.UserID()
	}
	return s.AddHashed(ctx, s.Hash(token), userID, claims.ExpiresAt.Time, reason)
}

func (s *tokenBlacklistService) AddHashed(
	ctx context.Context,
	tokenHash string,
	userID uuid.UUID,
	expiresAt time.Time,
	reason models.RevocationReason,
) error {
	// Redis has no CHECK constraint; both backends get the same reason set.
	if _, err := models.ParseRevocationReason(string(reason)); err != nil {
		return err
	}
	return s.repo.BlacklistToken(ctx, &models.BlacklistedToken{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Reason:    reason,
	})
}

func (s *tokenBlacklistService) IsRevoked(ctx context.Context, token string) bool {
	revoked, err := s.repo.IsTokenBlacklisted(ctx, s.Hash(token))
	if err != nil {
		if s.failClosed {
			utils.Logger.WithError(err).Error("Blacklist lookup failed; rejecting token (fail-closed)")
			return true
		}
		utils.Logger.WithError(err).Warn("Blacklist lookup failed; accepting token (fail-open)")
		return false
	}
	return revoked
}

func (s *tokenBlacklistService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.CleanupExpiredBlacklistedTokens(ctx)
}
