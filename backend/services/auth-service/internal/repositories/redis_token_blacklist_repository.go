package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "token_blacklist:"

type redisTokenBlacklistRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisTokenBlacklistRepository keeps each entry as a key whose TTL is
// the token's remaining lifetime, so Redis does the sweeping itself.
func NewRedisTokenBlacklistRepository(client redis.Cmdable) TokenBlacklistRepository {
	return &redisTokenBlacklistRepository{client: client, now: time.Now}
}

type redisBlacklistValue struct {
	UserID    string `json:"user_id"`
	Reason    string `json:"reason"`
	ExpiresAt int64  `json:"expires_at"`
	CreatedAt int64  `json:"created_at"`
}

func (r *redisTokenBlacklistRepository) BlacklistToken(ctx context.Context, entry *models.BlacklistedToken) error {
	now := r.now()
	ttl := entry.ExpiresAt.Sub(now)
	if ttl <= 0 {
		// Already expired: there is nothing left to block.
		return nil
	}

	val, err := json.Marshal(redisBlacklistValue{
		UserID:    entry.UserID.String(),
		Reason:    string(entry.Reason),
		ExpiresAt: entry.ExpiresAt.Unix(),
		CreatedAt: now.Unix(),
	})
	if err != nil {
		return err
	}

	// SET overwrites, so a repeat revoke keeps one key and the newest reason.
	return r.client.Set(ctx, blacklistKeyPrefix+entry.TokenHash, val, ttl).Err()
}

func (r *redisTokenBlacklistRepository) IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+tokenHash).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupExpiredBlacklistedTokens is a no-op: expired keys are evicted by
// Redis.
func (r *redisTokenBlacklistRepository) CleanupExpiredBlacklistedTokens(ctx context.Context) (int64, error) {
	return 0, nil
}
