package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	auth_models "github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-testhelpers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspendAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seedUser(t, models.RoleAdmin)
	u := f.seedUser(t, models.RoleCustomer)

	t1 := f.login(t, u)
	t2 := f.login(t, u)
	f.clock.Advance(time.Millisecond)

	suspended, err := f.admin.SuspendAccount(ctx, admin.ID, u.ID, t1.AccessToken)
	require.NoError(t, err)
	assert.False(t, suspended.IsActive)
	require.NotNil(t, suspended.TokenInvalidationDate)
	assert.True(t, suspended.TokenInvalidationDate.Equal(f.clock.Now()))

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// The presented token is blacklisted; the rest fall to the account check.
	entry, ok := f.blacklistRepo.Entry(utils.HashToken(t1.AccessToken))
	require.True(t, ok)
	assert.Equal(t, auth_models.ReasonAccountSuspended, entry.Reason)
	assert.Equal(t, 1, f.blacklistRepo.Len())

	for _, tok := range []string{t1.AccessToken, t2.AccessToken} {
		_, err := f.auth.VerifyRequest(ctx, tok)
		requireAppError(t, err, http.StatusUnauthorized)
	}

	_, err = f.auth.Login(ctx, u.Email, testhelpers.DefaultTestPassword, testClientIP)
	requireAppError(t, err, http.StatusUnauthorized)
}

func TestSuspendAccountRejectsSelf(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, models.RoleAdmin)

	_, err := f.admin.SuspendAccount(context.Background(), admin.ID, admin.ID, "")
	requireAppError(t, err, http.StatusBadRequest)

	stored, err := f.users.GetByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestSuspendAccountUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.admin.SuspendAccount(context.Background(), uuid.New(), uuid.New(), "")
	requireAppError(t, err, http.StatusNotFound)
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestReactivateAccountKeepsOldTokensDead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seedUser(t, models.RoleAdmin)
	u := f.seedUser(t, models.RoleCustomer)

	before := f.login(t, u)
	f.clock.Advance(time.Millisecond)
	_, err := f.admin.SuspendAccount(ctx, admin.ID, u.ID, "")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	reactivated, err := f.admin.ReactivateAccount(ctx, admin.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)

	_, err = f.auth.VerifyRequest(ctx, before.AccessToken)
	requireAppError(t, err, http.StatusUnauthorized)

	after := f.login(t, u)
	_, err = f.auth.VerifyRequest(ctx, after.AccessToken)
	require.NoError(t, err)
}

func TestReactivateAccountUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.admin.ReactivateAccount(context.Background(), uuid.New(), uuid.New())
	requireAppError(t, err, http.StatusNotFound)
}
