package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/controllers"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/services"
	auth_testhelpers "github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/testhelpers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-testhelpers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	router *mux.Router
	pinger *stubPinger
	users  *testhelpers.MemUserRepository
	codes  *testhelpers.MemPasswordResetCodeRepository
	mailer *auth_testhelpers.FakeEmailSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		OrganizationName:          config.OrganizationName,
		JWTSecret:                 []byte("router-test-access-secret-0123456789"),
		JWTRefreshSecret:          []byte("router-test-refresh-secret-0123456789"),
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

	s := &testServer{
		pinger: &stubPinger{},
		users:  testhelpers.NewMemUserRepository(),
		codes:  testhelpers.NewMemPasswordResetCodeRepository(),
		mailer: &auth_testhelpers.FakeEmailSender{},
	}

	jwtSvc := services.NewJWTService(cfg)
	blacklist := services.NewTokenBlacklistService(auth_testhelpers.NewMemTokenBlacklistRepository(), jwtSvc, false)
	rateLimiter := services.NewRateLimiterService(auth_testhelpers.NewMemRateLimitRepository(), cfg)
	authSvc := services.NewAuthService(s.users, jwtSvc, blacklist, rateLimiter, cfg)

	s.router = NewRouter(Controllers{
		Auth:          controllers.NewAuthController(authSvc),
		PasswordReset: controllers.NewPasswordResetController(services.NewPasswordResetService(s.users, s.codes, rateLimiter, s.mailer, cfg)),
		AdminAccount:  controllers.NewAdminAccountController(services.NewAdminAccountService(s.users, blacklist)),
		Health:        controllers.NewHealthController(s.pinger),
	}, authSvc)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.20:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func (s *testServer) login(t *testing.T, email, password string) dtos.AuthResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, AuthLogin, "", dtos.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[dtos.AuthResponse](t, rec)
}

func (s *testServer) seedUser(t *testing.T, role models.RoleType) *models.User {
	t.Helper()
	u := testhelpers.NewTestUser(t, role)
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func (s *testServer) meStatus(t *testing.T, token string) int {
	t.Helper()
	return s.do(t, http.MethodGet, AuthMe, token, nil).Code
}

// Tokens issued in the same millisecond as a logout-all stamp survive it.
func waitForNextMillisecond() {
	time.Sleep(2 * time.Millisecond)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, Health, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode[dtos.HealthCheckResponse](t, rec).Status)

	s.pinger.err = errors.New("db down")
	rec = s.do(t, http.MethodGet, Health, "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, utils.ErrCodeServiceUnavailable, decode[utils.ErrorResponse](t, rec).Code)
}

func TestRegisterMeLogoutFlow(t *testing.T) {
	s := newTestServer(t)

	email := testhelpers.UniqueEmail("flow")
	rec := s.do(t, http.MethodPost, AuthRegister, "", map[string]any{
		"email":     email,
		"password":  testhelpers.DefaultTestPassword,
		"role":      "customer",
		"firstName": "Jane",
		"lastName":  "Doe",
		"handle":    testhelpers.UniqueHandle("jane"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[dtos.AuthResponse](t, rec)
	assert.True(t, reg.Success)
	assert.Equal(t, email, reg.User.Email)
	assert.Equal(t, "customer", reg.User.Role)
	require.NotEmpty(t, reg.Token)
	require.NotEmpty(t, reg.RefreshToken)

	rec = s.do(t, http.MethodGet, AuthMe, reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reg.User.ID, decode[dtos.MeResponse](t, rec).User.ID)

	rec = s.do(t, http.MethodPost, AuthLogout, reg.Token, dtos.LogoutRequest{RefreshToken: reg.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decode[dtos.MessageResponse](t, rec).Message)

	rec = s.do(t, http.MethodGet, AuthMe, reg.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.MsgNotAuthorized, decode[utils.ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, AuthRefresh, "", dtos.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	again := s.login(t, email, testhelpers.DefaultTestPassword)
	assert.Equal(t, http.StatusOK, s.meStatus(t, again.Token))
}

func TestLogoutWithoutBody(t *testing.T) {
	s := newTestServer(t)
	u := s.seedUser(t, models.RoleCustomer)
	tokens := s.login(t, u.Email, testhelpers.DefaultTestPassword)

	rec := s.do(t, http.MethodPost, AuthLogout, tokens.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, tokens.Token))

	// The refresh token was not presented, so it still works.
	rec = s.do(t, http.MethodPost, AuthRefresh, "", dtos.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutAllEndsEverySession(t *testing.T) {
	s := newTestServer(t)
	u := s.seedUser(t, models.RoleCleaner)

	t1 := s.login(t, u.Email, testhelpers.DefaultTestPassword)
	t2 := s.login(t, u.Email, testhelpers.DefaultTestPassword)
	waitForNextMillisecond()

	rec := s.do(t, http.MethodPost, AuthLogoutAll, t1.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out from all devices", decode[dtos.MessageResponse](t, rec).Message)

	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, t1.Token))
	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, t2.Token))

	t3 := s.login(t, u.Email, testhelpers.DefaultTestPassword)
	assert.Equal(t, http.StatusOK, s.meStatus(t, t3.Token))
}

func TestChangePasswordEndpoint(t *testing.T) {
	s := newTestServer(t)
	u := s.seedUser(t, models.RoleCustomer)
	tokens := s.login(t, u.Email, testhelpers.DefaultTestPassword)
	waitForNextMillisecond()

	rec := s.do(t, http.MethodPost, AuthChangePassword, tokens.Token, dtos.ChangePasswordRequest{
		CurrentPassword: "wrong-password",
		NewPassword:     "N3w-Passw0rd!",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, AuthChangePassword, tokens.Token, dtos.ChangePasswordRequest{
		CurrentPassword: testhelpers.DefaultTestPassword,
		NewPassword:     "N3w-Passw0rd!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	changed := decode[dtos.ChangePasswordResponse](t, rec)

	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, tokens.Token))
	assert.Equal(t, http.StatusOK, s.meStatus(t, changed.Token))
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, AuthMe},
		{http.MethodPost, AuthLogout},
		{http.MethodPost, AuthLogoutAll},
		{http.MethodPost, AuthChangePassword},
	} {
		rec := s.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)

		rec = s.do(t, route.method, route.path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestAdminSuspendAndReactivate(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, models.RoleAdmin)
	u := s.seedUser(t, models.RoleCustomer)

	adminTokens := s.login(t, admin.Email, testhelpers.DefaultTestPassword)
	userTokens := s.login(t, u.Email, testhelpers.DefaultTestPassword)

	suspendPath := "/admin/users/" + u.ID.String() + "/suspend"
	reactivatePath := "/admin/users/" + u.ID.String() + "/reactivate"

	// Non-admins are refused.
	rec := s.do(t, http.MethodPost, suspendPath, userTokens.Token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, suspendPath, adminTokens.Token, dtos.SuspendUserRequest{Token: userTokens.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[dtos.AccountStatusResponse](t, rec)
	assert.Equal(t, u.ID.String(), status.UserID)
	assert.False(t, status.IsActive)

	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, userTokens.Token))
	rec = s.do(t, http.MethodPost, AuthLogin, "", dtos.LoginRequest{Email: u.Email, Password: testhelpers.DefaultTestPassword})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, reactivatePath, adminTokens.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dtos.AccountStatusResponse](t, rec).IsActive)

	// Reactivation does not revive the old token.
	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, userTokens.Token))
	fresh := s.login(t, u.Email, testhelpers.DefaultTestPassword)
	assert.Equal(t, http.StatusOK, s.meStatus(t, fresh.Token))
}

func TestAdminRejectsBadUserID(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, models.RoleAdmin)
	tokens := s.login(t, admin.Email, testhelpers.DefaultTestPassword)

	rec := s.do(t, http.MethodPost, "/admin/users/not-a-uuid/suspend", tokens.Token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user id", decode[utils.ErrorResponse](t, rec).Error)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, AuthRegister, "", map[string]any{
		"email":    "not-an-email",
		"password": "short",
		"role":     "customer",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Code    string                       `json:"code"`
		Details []dtos.ValidationErrorDetail `json:"details"`
	}](t, rec)
	assert.Equal(t, utils.ErrCodeValidation, body.Code)

	fields := map[string]string{}
	for _, d := range body.Details {
		fields[d.Field] = d.Code
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "min", fields["password"])
	assert.Equal(t, "required", fields["firstName"])

	req := httptest.NewRequest(http.MethodPost, AuthRegister, bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Equal(t, utils.ErrCodeInvalidPayload, decode[utils.ErrorResponse](t, raw).Code)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newTestServer(t)
	u := s.seedUser(t, models.RoleCustomer)
	tokens := s.login(t, u.Email, testhelpers.DefaultTestPassword)

	unknown := s.do(t, http.MethodPost, AuthForgotPassword, "", dtos.ForgotPasswordRequest{Email: "nobody@example.com"})
	known := s.do(t, http.MethodPost, AuthForgotPassword, "", dtos.ForgotPasswordRequest{Email: u.Email})
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, unknown.Body.String(), known.Body.String(), "responses must not reveal which emails exist")
	require.Len(t, s.mailer.Sent, 1)

	rec, err := s.codes.GetLatest(context.Background(), u.Email)
	require.NoError(t, err)
	require.NotNil(t, rec)
	waitForNextMillisecond()

	resp := s.do(t, http.MethodPost, AuthResetPassword, "", dtos.ResetPasswordRequest{
		Email:       u.Email,
		Code:        rec.Code,
		NewPassword: "Fr3sh-Passw0rd",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.meStatus(t, tokens.Token))
	s.login(t, u.Email, "Fr3sh-Passw0rd")
}
