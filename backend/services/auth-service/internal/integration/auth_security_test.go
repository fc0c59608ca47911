//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/routes"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-testhelpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTamperedTokenRejected(t *testing.T) {
	h.T = t
	_, reg := registerCustomer(t)

	tampered := reg.Token[:len(reg.Token)-2] + "xx"
	require.Equal(t, http.StatusUnauthorized, meStatus(t, tampered))

	forged := testhelpers.SignJWT(t, []byte("not-the-real-secret-not-the-real-secret"),
		reg.User.ID, "customer", "access", time.Now(), time.Hour)
	require.Equal(t, http.StatusUnauthorized, meStatus(t, forged))
}

func TestRefreshTokenCannotAuthenticateRequests(t *testing.T) {
	h.T = t
	_, reg := registerCustomer(t)
	require.Equal(t, http.StatusUnauthorized, meStatus(t, reg.RefreshToken))
}

func TestExpiredRefreshTokenRejected(t *testing.T) {
	h.T = t
	_, reg := registerCustomer(t)

	expired := h.CreateRefreshJWT(reg.User.ID, "customer", time.Now().Add(-2*time.Hour), time.Hour)
	resp := h.PostJSON(routes.AuthRefresh, "", dtos.RefreshTokenRequest{RefreshToken: expired})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, h.ReadBody(resp))

	var body map[string]any
	h.DecodeJSON(resp, &body)
	require.NotContains(t, body, "token")
}

func TestTokenIssuedBeforeInvalidationRejected(t *testing.T) {
	h.T = t
	_, reg := registerCustomer(t)

	require.NoError(t, h.UserRepo.SetTokenInvalidationDate(h.Ctx, reg.User.ID, time.Now()))
	old := h.CreateAccessJWT(reg.User.ID, "customer", time.Now().Add(-time.Minute), time.Hour)
	require.Equal(t, http.StatusUnauthorized, meStatus(t, old))
}

func TestAdminSuspensionEndsSessions(t *testing.T) {
	h.T = t
	admin := h.CreateTestUser(h.Ctx, models.RoleAdmin)
	adminToken := login(t, admin.Email, testhelpers.DefaultTestPassword).Token

	_, victim := registerCustomer(t)
	require.Equal(t, http.StatusOK, meStatus(t, victim.Token))

	resp := h.PostJSON("/admin/users/"+victim.User.ID.String()+"/suspend", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, h.ReadBody(resp))
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, meStatus(t, victim.Token))

	// The suspended token cannot reach admin routes either.
	resp = h.PostJSON("/admin/users/"+uuid.NewString()+"/suspend", victim.Token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
