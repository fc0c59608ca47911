package services

import (
	"context"

	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

// VerificationCleanupService purges expired password reset codes.
type VerificationCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type verificationCleanupService struct {
	codeRepo repositories.PasswordResetCodeRepository
}

func NewVerificationCleanupService(codeRepo repositories.PasswordResetCodeRepository) VerificationCleanupService {
	return &verificationCleanupService{codeRepo: codeRepo}
}

// CleanupDaily deletes expired reset codes and logs any errors encountered.
func (s *verificationCleanupService) CleanupDaily(ctx context.Context) error {
	var removed int64
	err := runWithRetry(ctx, "reset code cleanup", func(ctx context.Context) error {
		n, err := s.codeRepo.CleanupExpired(ctx)
		removed = n
		return err
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup password_reset_codes")
		return err
	}

	utils.Logger.WithField("removed", removed).Info("Daily reset-codes cleanup completed successfully.")
	return nil
}
