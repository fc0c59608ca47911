package repositories

import (
	"context"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
)

type tokenBlacklistRepository struct {
	db repositories.DB
}

// NewTokenBlacklistRepository returns the Postgres-backed blacklist. The
// primary key on token_hash is the only concurrency guard it needs.
func NewTokenBlacklistRepository(db repositories.DB) TokenBlacklistRepository {
	return &tokenBlacklistRepository{db: db}
}

func (r *tokenBlacklistRepository) BlacklistToken(ctx context.Context, entry *models.BlacklistedToken) error {
	query := `
		INSERT INTO token_blacklist (token_hash, user_id, expires_at, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (token_hash) DO UPDATE SET reason = EXCLUDED.reason
	`
	_, err := r.db.Exec(ctx, query, entry.TokenHash, entry.UserID, entry.ExpiresAt, string(entry.Reason))
	return err
}

func (r *tokenBlacklistRepository) IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM token_blacklist
			WHERE token_hash = $1 AND expires_at > NOW()
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&exists)
	return exists, err
}

func (r *tokenBlacklistRepository) CleanupExpiredBlacklistedTokens(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM token_blacklist WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
