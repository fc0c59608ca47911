package repositories

import (
	"context"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
)

// TokenBlacklistRepository stores revoked tokens by hash. Any backend must
// keep these guarantees:
//
//   - BlacklistToken is idempotent on TokenHash; a repeat insert keeps one
//     entry and the last writer's reason.
//   - IsTokenBlacklisted only reports entries whose ExpiresAt is still in
//     the future.
//   - CleanupExpiredBlacklistedTokens deletes entries with
//     ExpiresAt <= now and reports how many went. Safe to run
//     concurrently with the other two.
type TokenBlacklistRepository interface {
	BlacklistToken(ctx context.Context, entry *models.BlacklistedToken) error
	IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error)
	CleanupExpiredBlacklistedTokens(ctx context.Context) (int64, error)
}
