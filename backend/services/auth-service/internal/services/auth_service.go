package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	auth_models "github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-middleware"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
)

const (
	msgInvalidRefreshToken   = "Invalid or expired refresh token"
	msgIncorrectCurrentPwd   = "Current password is incorrect"
	msgAdminSelfRegistration = "Admin accounts cannot be self-registered"
)

// AuthResult is what every token-issuing flow hands back. RefreshToken is
// the presented one on Refresh, since refresh tokens are not rotated.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// AuthService owns the credential lifecycle. Every error it returns is an
// *utils.AppError.
type AuthService interface {
	Register(ctx context.Context, req dtos.RegisterRequest, clientIP string) (*AuthResult, error)
	Login(ctx context.Context, email, password, clientIP string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)

	// Logout always succeeds; blacklist failures are only logged.
	Logout(ctx context.Context, accessToken string, userID uuid.UUID, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// VerifyRequest implements middleware.RequestVerifier.
	VerifyRequest(ctx context.Context, token string) (*middleware.Principal, error)

	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, accessToken, currentPassword, newPassword string) (*AuthResult, error)
}

type authService struct {
	userRepo    repositories.UserRepository
	jwt         JWTService
	blacklist   TokenBlacklistService
	rateLimiter RateLimiterService
	cfg         *config.Config

	// Compared against when the email is unknown so both paths cost one
	// bcrypt round.
	dummyHash string
	now       func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	jwtService JWTService,
	blacklist TokenBlacklistService,
	rateLimiter RateLimiterService,
	cfg *config.Config,
) AuthService {
	dummy, err := utils.HashPassword(utils.RandomString(32), cfg.BcryptRounds)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to prepare dummy password hash")
	}
	return &authService{
		userRepo:    userRepo,
		jwt:         jwtService,
		blacklist:   blacklist,
		rateLimiter: rateLimiter,
		cfg:         cfg,
		dummyHash:   dummy,
		now:         time.Now,
	}
}

// ---------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req dtos.RegisterRequest, clientIP string) (*AuthResult, error) {
	if err := s.rateLimiter.CheckRegistrationRateLimits(ctx, clientIP); err != nil {
		return nil, rateLimitOrInternal(err)
	}

	role := models.RoleType(req.Role)
	if details := validateRoleProfile(role, req); len(details) > 0 {
		msg := "Missing required profile fields"
		if role == models.RoleAdmin {
			msg = msgAdminSelfRegistration
		}
		return nil, utils.NewValidationError(msg, details)
	}

	email := utils.NormalizeEmail(req.Email)
	handle := utils.NilIfBlank(req.Handle)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	if existing != nil {
		return nil, utils.NewConflictError("email")
	}
	if handle != nil {
		existing, err = s.userRepo.GetByHandle(ctx, *handle)
		if err != nil {
			return nil, utils.NewInternalError(err)
		}
		if existing != nil {
			return nil, utils.NewConflictError("handle")
		}
	}

	hash, err := utils.HashPassword(req.Password, s.cfg.BcryptRounds)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	services := req.Services
	if services == nil {
		services = []string{}
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Handle:       handle,
		PasswordHash: hash,
		Role:         role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        utils.NilIfBlank(req.Phone),
		Address:      utils.NilIfBlank(req.Address),
		City:         utils.NilIfBlank(req.City),
		State:        utils.NilIfBlank(req.State),
		ZipCode:      utils.NilIfBlank(req.ZipCode),
		Services:     services,
		IsActive:     true,
	}

	// The pre-checks race with concurrent registrations; the unique
	// constraints settle it.
	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, utils.ErrEmailExists):
			return nil, utils.NewConflictError("email")
		case errors.Is(err, utils.ErrHandleExists):
			return nil, utils.NewConflictError("handle")
		}
		return nil, utils.NewInternalError(err)
	}

	utils.Logger.WithField("user_id", user.ID).Infof("Registered new %s account", role)
	return s.issuePair(user)
}

// validateRoleProfile enforces the per-role required fields that struct
// tags cannot express.
func validateRoleProfile(role models.RoleType, req dtos.RegisterRequest) []dtos.ValidationErrorDetail {
	var details []dtos.ValidationErrorDetail
	missing := func(field string) {
		details = append(details, dtos.ValidationErrorDetail{
			Field:   field,
			Message: field + " is required for " + string(role) + " accounts",
			Code:    "required",
		})
	}

	if !role.Valid() {
		return append(details, dtos.ValidationErrorDetail{
			Field:   "role",
			Message: "role must be customer or cleaner",
			Code:    "oneof",
		})
	}

	switch role {
	case models.RoleCustomer:
		if utils.NilIfBlank(req.Handle) == nil {
			missing("handle")
		}
	case models.RoleCleaner:
		for field, v := range map[string]*string{
			"address": req.Address,
			"city":    req.City,
			"state":   req.State,
			"zipCode": req.ZipCode,
		} {
			if utils.NilIfBlank(v) == nil {
				missing(field)
			}
		}
		if len(req.Services) == 0 {
			details = append(details, dtos.ValidationErrorDetail{
				Field:   "services",
				Message: "at least one service is required for cleaner accounts",
				Code:    "min",
			})
		}
	case models.RoleAdmin:
		details = append(details, dtos.ValidationErrorDetail{
			Field:   "role",
			Message: msgAdminSelfRegistration,
			Code:    "oneof",
		})
	}
	return details
}

// ---------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, email, password, clientIP string) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	if err := s.rateLimiter.CheckLoginRateLimits(ctx, clientIP, email); err != nil {
		return nil, rateLimitOrInternal(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	if user == nil {
		utils.CheckPasswordHash(password, s.dummyHash)
		return nil, utils.NewAuthenticationError(utils.MsgInvalidCredentials, errors.New("unknown email"))
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, utils.NewAuthenticationError(utils.MsgInvalidCredentials, errors.New("password mismatch"))
	}
	if !user.IsActive {
		return nil, utils.NewAuthenticationError(utils.MsgInvalidCredentials, errors.New("account suspended"))
	}

	return s.issuePair(user)
}

// ---------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwt.VerifyToken(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, utils.NewAuthenticationError(msgInvalidRefreshToken, err)
	}

	user, err := s.checkSession(ctx, refreshToken, claims)
	if err != nil {
		return nil, utils.NewAuthenticationError(msgInvalidRefreshToken, err)
	}

	access, _, err := s.jwt.IssueToken(user.ID, user.Role, TokenKindAccess)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refreshToken}, nil
}

// ---------------------------------------------------------------------
// Logout / LogoutAll
// ---------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, accessToken string, userID uuid.UUID, refreshToken string) error {
	logger := utils.Logger.WithField("user_id", userID)

	if err := s.blacklist.Add(ctx, accessToken, userID, auth_models.ReasonLogout); err != nil {
		logger.WithError(err).Warn("Failed to blacklist access token on logout")
	}
	if refreshToken == "" {
		return nil
	}
	// Only the caller's own valid refresh token is stored.
	claims, err := s.jwt.VerifyToken(refreshToken, TokenKindRefresh)
	if err != nil || claims.Subject != userID.String() {
		logger.Debug("Ignoring unusable refresh token on logout")
		return nil
	}
	if err := s.blacklist.Add(ctx, refreshToken, userID, auth_models.ReasonLogout); err != nil {
		logger.WithError(err).Warn("Failed to blacklist refresh token on logout")
	}
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.SetTokenInvalidationDate(ctx, userID, s.invalidationStamp()); err != nil {
		if errors.Is(err, utils.ErrNoRowsUpdated) {
			return utils.NewNotFoundError("User not found")
		}
		return utils.NewInternalError(err)
	}
	utils.Logger.WithField("user_id", userID).Info("Invalidated all sessions")
	return nil
}

// ---------------------------------------------------------------------
// VerifyRequest
// ---------------------------------------------------------------------

func (s *authService) VerifyRequest(ctx context.Context, token string) (*middleware.Principal, error) {
	claims, err := s.jwt.VerifyToken(token, TokenKindAccess)
	if err != nil {
		return nil, s.rejectRequest(err)
	}

	user, err := s.checkSession(ctx, token, claims)
	if err != nil {
		return nil, s.rejectRequest(err)
	}

	return &middleware.Principal{
		UserID:    user.ID,
		Role:      string(user.Role),
		Token:     token,
		IssuedAt:  claims.IssuedAtTime(),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) rejectRequest(cause error) error {
	utils.Logger.WithError(cause).Debug("Rejected bearer token")
	return utils.NewAuthenticationError(utils.MsgNotAuthorized, cause)
}

var (
	errTokenRevoked     = errors.New("token revoked")
	errTokenInvalidated = errors.New("token issued before invalidation date")
	errAccountInactive  = errors.New("account missing or inactive")
)

// checkSession runs the stateful checks shared by every verification
// path: blacklist, account state and the logout-all stamp.
func (s *authService) checkSession(ctx context.Context, token string, claims *TokenClaims) (*models.User, error) {
	if s.blacklist.IsRevoked(ctx, token) {
		return nil, errTokenRevoked
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, errAccountInactive
	}
	if user.TokensIssuedBeforeAreInvalid(claims.IssuedAtTime()) {
		return nil, errTokenInvalidated
	}
	return user, nil
}

// ---------------------------------------------------------------------
// Me / ChangePassword
// ---------------------------------------------------------------------

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	if user == nil {
		return nil, utils.NewNotFoundError("User not found")
	}
	return user, nil
}

func (s *authService) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	accessToken, currentPassword, newPassword string,
) (*AuthResult, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, utils.NewValidationError(msgIncorrectCurrentPwd, []dtos.ValidationErrorDetail{{
			Field:   "currentPassword",
			Message: msgIncorrectCurrentPwd,
			Code:    "mismatch",
		}})
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptRounds)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	stamp := s.invalidationStamp()
	if err := s.userRepo.UpdatePassword(ctx, userID, hash, stamp); err != nil {
		return nil, utils.NewInternalError(err)
	}
	user.PasswordHash = hash
	user.TokenInvalidationDate = &stamp

	if err := s.blacklist.Add(ctx, accessToken, userID, auth_models.ReasonPasswordReset); err != nil {
		utils.Logger.WithError(err).Warn("Failed to blacklist token after password change")
	}

	return s.issuePair(user)
}

// ---------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------

func (s *authService) issuePair(user *models.User) (*AuthResult, error) {
	access, _, err := s.jwt.IssueToken(user.ID, user.Role, TokenKindAccess)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	refresh, _, err := s.jwt.IssueToken(user.ID, user.Role, TokenKindRefresh)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// invalidationStamp matches the millisecond precision of iat, so a token
// issued right after the stamp is never considered older than it.
func (s *authService) invalidationStamp() time.Time {
	return s.now().Truncate(time.Millisecond)
}

func rateLimitOrInternal(err error) error {
	if errors.Is(err, utils.ErrRateLimitExceeded) {
		return utils.NewRateLimitError(err)
	}
	return utils.NewInternalError(err)
}
