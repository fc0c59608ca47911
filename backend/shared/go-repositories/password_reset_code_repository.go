// go-repositories/password_reset_code_repository.go
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type PasswordResetCodeRepository interface {
	// ReplaceCode drops any pending code for the user and stores a new one.
	ReplaceCode(ctx context.Context, userID uuid.UUID, email, code string, expiresAt time.Time) error
	// GetLatest returns the newest code for the email, or nil.
	GetLatest(ctx context.Context, email string) (*models.PasswordResetCode, error)
	// ClaimAttempt counts one guess against the code. It reports false when
	// maxAttempts guesses have already been counted or the code is gone.
	ClaimAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error)
	DeleteCode(ctx context.Context, id uuid.UUID) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type passwordResetCodeRepository struct {
	db DB
}

func NewPasswordResetCodeRepository(db DB) PasswordResetCodeRepository {
	return &passwordResetCodeRepository{db: db}
}

func (r *passwordResetCodeRepository) ReplaceCode(
	ctx context.Context,
	userID uuid.UUID,
	email, code string,
	expiresAt time.Time,
) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM password_reset_codes WHERE user_id = $1`, userID); err != nil {
		return err
	}

	q := `
		INSERT INTO password_reset_codes
			(id, user_id, email, code, expires_at, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW())
	`
	_, err := r.db.Exec(ctx, q, uuid.New(), userID, email, code, expiresAt)
	return err
}

func (r *passwordResetCodeRepository) GetLatest(ctx context.Context, email string) (*models.PasswordResetCode, error) {
	q := `
		SELECT id, user_id, email, code, expires_at, attempts, created_at
		FROM password_reset_codes
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var rec models.PasswordResetCode
	err := r.db.QueryRow(ctx, q, email).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Email,
		&rec.Code,
		&rec.ExpiresAt,
		&rec.Attempts,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *passwordResetCodeRepository) ClaimAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error) {
	q := `
		UPDATE password_reset_codes
		SET attempts = attempts + 1
		WHERE id = $1 AND attempts < $2
		RETURNING attempts
	`
	var attempts int
	if err := r.db.QueryRow(ctx, q, id, maxAttempts).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *passwordResetCodeRepository) DeleteCode(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_codes WHERE id = $1`, id)
	return err
}

func (r *passwordResetCodeRepository) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM password_reset_codes WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
