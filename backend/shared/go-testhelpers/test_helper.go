package testhelpers

import (
	"context"
	"os"
	"testing"

	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestHelper encapsulates all necessary components for running integration
// tests against a live auth-service and its database.
type TestHelper struct {
	T       *testing.T
	Ctx     context.Context
	BaseURL string
	DB      *pgxpool.Pool

	// Same secrets the service signs with, for forging edge-case tokens.
	JWTSecret        []byte
	JWTRefreshSecret []byte

	AppName string

	// Repositories
	UserRepo      repositories.UserRepository
	ResetCodeRepo repositories.PasswordResetCodeRepository
}

// NewTestHelper reads APP_URL_FROM_ANYWHERE, DB_URL, JWT_SECRET and
// JWT_REFRESH_SECRET from the environment and connects to the DB. It's
// designed to be called once from a TestMain function.
func NewTestHelper(t *testing.T, appName string) *TestHelper {
	baseURL := mustEnv(t, "APP_URL_FROM_ANYWHERE")
	dbURL := mustEnv(t, "DB_URL")

	ctx := context.Background()
	dbPool, err := pgxpool.Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { dbPool.Close() })

	return &TestHelper{
		T:                t,
		Ctx:              ctx,
		BaseURL:          baseURL,
		DB:               dbPool,
		JWTSecret:        []byte(mustEnv(t, "JWT_SECRET")),
		JWTRefreshSecret: []byte(mustEnv(t, "JWT_REFRESH_SECRET")),
		AppName:          appName,
		UserRepo:         repositories.NewUserRepository(dbPool),
		ResetCodeRepo:    repositories.NewPasswordResetCodeRepository(dbPool),
	}
}

func mustEnv(t *testing.T, key string) string {
	v := os.Getenv(key)
	require.NotEmptyf(t, v, "%s env var is missing", key)
	return v
}
