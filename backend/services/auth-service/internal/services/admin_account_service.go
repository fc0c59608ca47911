package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	auth_models "github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// AdminAccountService lets admins switch accounts off and on. Suspension
// ends every session of the account at once.
type AdminAccountService interface {
	// SuspendAccount optionally revokes knownToken as well, so it is
	// rejected by hash even before the user lookup.
	SuspendAccount(ctx context.Context, adminID, userID uuid.UUID, knownToken string) (*models.User, error)

	// ReactivateAccount does not revive tokens issued before the suspension.
	ReactivateAccount(ctx context.Context, adminID, userID uuid.UUID) (*models.User, error)
}

type adminAccountService struct {
	userRepo  repositories.UserRepository
	blacklist TokenBlacklistService
	now       func() time.Time
}

func NewAdminAccountService(
	userRepo repositories.UserRepository,
	blacklist TokenBlacklistService,
) AdminAccountService {
	return &adminAccountService{
		userRepo:  userRepo,
		blacklist: blacklist,
		now:       time.Now,
	}
}

func (s *adminAccountService) SuspendAccount(
	ctx context.Context,
	adminID, userID uuid.UUID,
	knownToken string,
) (*models.User, error) {
	if adminID == userID {
		return nil, utils.NewValidationError("Admins cannot suspend their own account", nil)
	}

	stamp := s.now().Truncate(time.Millisecond)
	user, err := s.update(ctx, userID, func(u *models.User) error {
		u.IsActive = false
		u.TokenInvalidationDate = &stamp
		return nil
	})
	if err != nil {
		return nil, err
	}

	if knownToken != "" {
		if err := s.blacklist.Add(ctx, knownToken, userID, auth_models.ReasonAccountSuspended); err != nil {
			utils.Logger.WithError(err).Warn("Failed to blacklist token of suspended account")
		}
	}

	utils.Logger.WithFields(map[string]any{
		"admin_id": adminID,
		"user_id":  userID,
	}).Info("Account suspended")
	return user, nil
}

func (s *adminAccountService) ReactivateAccount(ctx context.Context, adminID, userID uuid.UUID) (*models.User, error) {
	user, err := s.update(ctx, userID, func(u *models.User) error {
		u.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(map[string]any{
		"admin_id": adminID,
		"user_id":  userID,
	}).Info("Account reactivated")
	return user, nil
}

// update runs mutate under optimistic locking and returns the stored row.
func (s *adminAccountService) update(
	ctx context.Context,
	userID uuid.UUID,
	mutate func(*models.User) error,
) (*models.User, error) {
	var updated *models.User
	err := s.userRepo.UpdateWithRetry(ctx, userID, func(u *models.User) error {
		updated = u
		return mutate(u)
	})
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, utils.NewNotFoundError("User not found")
	case errors.Is(err, utils.ErrRowVersionConflict):
		return nil, &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeRowVersionConflict,
			Message:    "The account was modified concurrently, please retry",
			Kind:       utils.ErrConflict,
			Err:        err,
		}
	}
	return nil, utils.NewInternalError(err)
}
