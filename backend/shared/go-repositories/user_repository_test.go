package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pashagolub/pgxmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "email", "handle", "password_hash", "role",
	"first_name", "last_name", "phone",
	"address", "city", "state", "zip_code", "services",
	"is_active", "token_invalidation_date",
	"row_version", "created_at", "updated_at",
}

func userRow(id uuid.UUID, version int64, active bool) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userColumns).AddRow(
		id, "jane@example.com", utils.Ptr("jane"), "$2a$04$hash", "customer",
		"Jane", "Doe", (*string)(nil),
		(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), []string{},
		active, (*time.Time)(nil),
		version, now, now,
	)
}

func newMockUserRepo(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func TestUserRepositoryCreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "email", constraint: "users_email_key", want: utils.ErrEmailExists},
		{name: "handle", constraint: usersHandleUniqueKeyName, want: utils.ErrHandleExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockUserRepo(t)
			mock.ExpectExec("INSERT INTO users").
				WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), &models.User{ID: uuid.New(), Email: "jane@example.com"})
			require.ErrorIs(t, err, tt.want)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepositoryCreateSetsRowVersion(t *testing.T) {
	mock, repo := newMockUserRepo(t)
	mock.ExpectExec("INSERT INTO users").WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user := &models.User{ID: uuid.New(), Email: "jane@example.com", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(1), user.RowVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByEmailNormalizesAndHandlesMissing(t *testing.T) {
	mock, repo := newMockUserRepo(t)
	mock.ExpectQuery("FROM users").
		WithArgs("jane@example.com").
		WillReturnError(pgx.ErrNoRows)

	user, err := repo.GetByEmail(context.Background(), "  Jane@Example.com ")
	require.NoError(t, err)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdatePasswordReportsMissingRow(t *testing.T) {
	mock, repo := newMockUserRepo(t)
	id := uuid.New()
	at := time.Now()
	mock.ExpectExec("UPDATE users SET").
		WithArgs("$2a$04$new", at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePassword(context.Background(), id, "$2a$04$new", at)
	require.ErrorIs(t, err, utils.ErrNoRowsUpdated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateWithRetryRetriesOnVersionConflict(t *testing.T) {
	mock, repo := newMockUserRepo(t)
	id := uuid.New()

	mock.ExpectQuery("FROM users").WithArgs(id.String()).WillReturnRows(userRow(id, 1, true))
	mock.ExpectExec("UPDATE users SET").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("FROM users").WithArgs(id.String()).WillReturnRows(userRow(id, 2, true))
	mock.ExpectExec("UPDATE users SET").WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	calls := 0
	err := repo.UpdateWithRetry(context.Background(), id, func(u *models.User) error {
		calls++
		u.IsActive = false
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateWithRetryMissingUser(t *testing.T) {
	mock, repo := newMockUserRepo(t)
	id := uuid.New()
	mock.ExpectQuery("FROM users").WithArgs(id.String()).WillReturnError(pgx.ErrNoRows)

	err := repo.UpdateWithRetry(context.Background(), id, func(u *models.User) error { return nil })
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
