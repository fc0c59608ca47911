package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	auth_testhelpers "github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/testhelpers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-testhelpers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

const testClientIP = "203.0.113.7"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		OrganizationName:          config.OrganizationName,
		AppName:                   "auth-service-test",
		Env:                       "test",
		JWTSecret:                 []byte("access-secret-access-secret-0123456789"),
		JWTRefreshSecret:          []byte("refresh-secret-refresh-secret-0123456789"),
		AccessTokenExpiry:         time.Hour,
		RefreshTokenExpiry:        24 * time.Hour,
		BcryptRounds:              4,
		PasswordResetCodeLength:   config.PasswordResetCodeLength,
		PasswordResetCodeExpiry:   config.DefaultPasswordResetCodeExpiry,
		PasswordResetMaxAttempts:  config.PasswordResetMaxAttempts,
		EmailLimitPerIPPerHour:    100,
		EmailLimitPerEmailPerHour: 100,
		GlobalEmailLimitPerHour:   1000,
		LoginLimitPerIPPerHour:    1000,
		LoginLimitPerEmailPerHour: 1000,
		RegisterLimitPerIPPerHour: 1000,
		RateLimitWindow:           time.Hour,
	}
}

// fixture wires the real services over in-memory stores sharing one clock.
type fixture struct {
	cfg   *config.Config
	clock *fakeClock

	users         *testhelpers.MemUserRepository
	codes         *testhelpers.MemPasswordResetCodeRepository
	blacklistRepo *auth_testhelpers.MemTokenBlacklistRepository
	rateRepo      *auth_testhelpers.MemRateLimitRepository
	mailer        *auth_testhelpers.FakeEmailSender

	jwt       JWTService
	blacklist TokenBlacklistService
	auth      AuthService
	reset     PasswordResetService
	admin     AdminAccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cfg:           testConfig(),
		clock:         newFakeClock(),
		users:         testhelpers.NewMemUserRepository(),
		codes:         testhelpers.NewMemPasswordResetCodeRepository(),
		blacklistRepo: auth_testhelpers.NewMemTokenBlacklistRepository(),
		rateRepo:      auth_testhelpers.NewMemRateLimitRepository(),
		mailer:        &auth_testhelpers.FakeEmailSender{},
	}
	f.blacklistRepo.Now = f.clock.Now

	f.jwt = NewJWTService(f.cfg)
	f.jwt.(*jwtService).now = f.clock.Now

	f.blacklist = NewTokenBlacklistService(f.blacklistRepo, f.jwt, false)
	rateLimiter := NewRateLimiterService(f.rateRepo, f.cfg)

	f.auth = NewAuthService(f.users, f.jwt, f.blacklist, rateLimiter, f.cfg)
	f.auth.(*authService).now = f.clock.Now

	f.reset = NewPasswordResetService(f.users, f.codes, rateLimiter, f.mailer, f.cfg)
	f.reset.(*passwordResetService).now = f.clock.Now

	f.admin = NewAdminAccountService(f.users, f.blacklist)
	f.admin.(*adminAccountService).now = f.clock.Now

	return f
}

// seedUser stores an active user whose password is
// testhelpers.DefaultTestPassword.
func (f *fixture) seedUser(t *testing.T, role models.RoleType) *models.User {
	t.Helper()
	u := testhelpers.NewTestUser(t, role)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) login(t *testing.T, u *models.User) *AuthResult {
	t.Helper()
	res, err := f.auth.Login(context.Background(), u.Email, testhelpers.DefaultTestPassword, testClientIP)
	require.NoError(t, err)
	return res
}

func customerRequest() dtos.RegisterRequest {
	return dtos.RegisterRequest{
		Email:     testhelpers.UniqueEmail("customer"),
		Password:  testhelpers.DefaultTestPassword,
		Role:      string(models.RoleCustomer),
		FirstName: "Jane",
		LastName:  "Doe",
		Handle:    utils.Ptr(testhelpers.UniqueHandle("jane")),
	}
}

func cleanerRequest() dtos.RegisterRequest {
	return dtos.RegisterRequest{
		Email:     testhelpers.UniqueEmail("cleaner"),
		Password:  testhelpers.DefaultTestPassword,
		Role:      string(models.RoleCleaner),
		FirstName: "Sam",
		LastName:  "Scrub",
		Address:   utils.Ptr("1 Main St"),
		City:      utils.Ptr("Springfield"),
		State:     utils.Ptr("IL"),
		ZipCode:   utils.Ptr("62701"),
		Services:  []string{"standard-clean", "deep-clean"},
	}
}

// requireAppError asserts err is an *utils.AppError with the given status.
func requireAppError(t *testing.T, err error, status int) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.StatusCode, appErr.Error())
	return appErr
}
