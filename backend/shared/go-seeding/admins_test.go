package seeding

import (
	"context"
	"testing"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-testhelpers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewMemUserRepository()
	seed := AdminSeed{Email: " Root@CleanMatch.app ", Password: "Adm1n-Bootstrap", BcryptCost: 4}

	require.NoError(t, SeedDefaultAdmin(ctx, repo, seed))
	require.NoError(t, SeedDefaultAdmin(ctx, repo, seed))

	admin, err := repo.GetByID(ctx, uuid.MustParse(DefaultAdminID))
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "root@cleanmatch.app", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, utils.CheckPasswordHash("Adm1n-Bootstrap", admin.PasswordHash))
}

func TestSeedDefaultAdminSkipsTakenEmail(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewMemUserRepository()
	existing := testhelpers.NewTestUser(t, models.RoleCustomer)
	require.NoError(t, repo.Create(ctx, existing))

	err := SeedDefaultAdmin(ctx, repo, AdminSeed{Email: existing.Email, Password: "Adm1n-Bootstrap", BcryptCost: 4})
	require.NoError(t, err)

	admin, err := repo.GetByID(ctx, uuid.MustParse(DefaultAdminID))
	require.NoError(t, err)
	assert.Nil(t, admin)
}

func TestSeedDefaultAdminRequiresCredentials(t *testing.T) {
	err := SeedDefaultAdmin(context.Background(), testhelpers.NewMemUserRepository(), AdminSeed{Email: "a@b.co"})
	require.Error(t, err)
}
