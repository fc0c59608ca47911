package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

const msgInvalidResetCode = "Invalid or expired reset code"

// PasswordResetService runs the emailed-code password reset flow.
type PasswordResetService interface {
	// RequestReset reports success for unknown emails too.
	RequestReset(ctx context.Context, email, clientIP string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type passwordResetService struct {
	userRepo    repositories.UserRepository
	codeRepo    repositories.PasswordResetCodeRepository
	rateLimiter RateLimiterService
	mailer      EmailSender
	cfg         *config.Config
	now         func() time.Time
}

func NewPasswordResetService(
	userRepo repositories.UserRepository,
	codeRepo repositories.PasswordResetCodeRepository,
	rateLimiter RateLimiterService,
	mailer EmailSender,
	cfg *config.Config,
) PasswordResetService {
	return &passwordResetService{
		userRepo:    userRepo,
		codeRepo:    codeRepo,
		rateLimiter: rateLimiter,
		mailer:      mailer,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email, clientIP string) error {
	email = utils.NormalizeEmail(email)
	if err := s.rateLimiter.CheckEmailRateLimits(ctx, clientIP, email); err != nil {
		return rateLimitOrInternal(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if user == nil || !user.IsActive {
		utils.Logger.Debug("Password reset requested for unknown or inactive account")
		return nil
	}

	code, err := utils.RandomNumericString(s.cfg.PasswordResetCodeLength)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if err := s.codeRepo.ReplaceCode(ctx, user.ID, email, code, s.now().Add(s.cfg.PasswordResetCodeExpiry)); err != nil {
		return utils.NewInternalError(err)
	}

	minutes := int(s.cfg.PasswordResetCodeExpiry.Minutes())
	subject := s.cfg.OrganizationName + " - Password Reset Code"
	plain := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf(resetCodeEmailHTML,
		"Password Reset",
		fmt.Sprintf("Use the following code to reset your password. This code will expire in %d minutes.", minutes),
		code, s.now().Year(),
	)

	// A delivery failure must look like success to the caller, otherwise
	// the response leaks which emails are registered.
	if err := s.mailer.SendEmail(ctx, email, subject, plain, html); err != nil {
		utils.Logger.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = utils.NormalizeEmail(email)
	invalid := func() error { return utils.NewValidationError(msgInvalidResetCode, nil) }

	rec, err := s.codeRepo.GetLatest(ctx, email)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if rec == nil {
		return invalid()
	}

	dropCode := func() error {
		if err := s.codeRepo.DeleteCode(ctx, rec.ID); err != nil {
			utils.Logger.WithError(err).Warn("Failed to delete spent reset code")
		}
		return invalid()
	}

	now := s.now()
	if rec.IsExpired(now) {
		return dropCode()
	}
	// The attempt is counted before comparing so concurrent guesses cannot
	// all read the same counter.
	claimed, err := s.codeRepo.ClaimAttempt(ctx, rec.ID, s.cfg.PasswordResetMaxAttempts)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if !claimed {
		return dropCode()
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return invalid()
	}

	user, err := s.userRepo.GetByID(ctx, rec.UserID)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if user == nil || !user.IsActive {
		return invalid()
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptRounds)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash, now.Truncate(time.Millisecond)); err != nil {
		return utils.NewInternalError(err)
	}
	if err := s.codeRepo.DeleteCode(ctx, rec.ID); err != nil {
		utils.Logger.WithError(err).Warn("Failed to delete used reset code")
	}

	utils.Logger.WithField("user_id", user.ID).Info("Password reset; existing sessions invalidated")
	return nil
}
