// go-repositories/user_repository.go
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

const (
	pgUniqueViolation        = "23505"
	usersHandleUniqueKeyName = "users_handle_key"
)

// UserRepository defines the interface for credential data operations.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByHandle(ctx context.Context, handle string) (*models.User, error)

	// UpdatePassword stores a new hash and stamps token_invalidation_date
	// in one statement.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, invalidatedAt time.Time) error
	SetTokenInvalidationDate(ctx context.Context, id uuid.UUID, at time.Time) error

	UpdateIfVersion(ctx context.Context, user *models.User, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error
}

type userRepo struct {
	*BaseVersionedRepo[*models.User]
	db DB
}

func NewUserRepository(db DB) UserRepository {
	r := &userRepo{db: db}
	selectStmt := baseSelectUser() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanUser)
	return r
}

// Create inserts a new user. The caller is responsible for hashing the
// password. Unique violations come back as utils.ErrEmailExists or
// utils.ErrHandleExists.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	services := user.Services
	if services == nil {
		services = []string{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, email, handle, password_hash, role,
			first_name, last_name, phone,
			address, city, state, zip_code, services,
			is_active, created_at, updated_at, row_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), 1)
	`,
		user.ID, user.Email, user.Handle, user.PasswordHash, string(user.Role),
		user.FirstName, user.LastName, user.Phone,
		user.Address, user.City, user.State, user.ZipCode, services,
		user.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == usersHandleUniqueKeyName {
				return utils.ErrHandleExists
			}
			return utils.ErrEmailExists
		}
		return err
	}
	user.RowVersion = 1
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE email=$1", utils.NormalizeEmail(email))
	return r.scanUser(row)
}

func (r *userRepo) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE handle=$1", handle)
	return r.scanUser(row)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, invalidatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			password_hash=$1, token_invalidation_date=$2,
			updated_at=NOW(), row_version=row_version+1
		WHERE id=$3`,
		passwordHash, invalidatedAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

func (r *userRepo) SetTokenInvalidationDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			token_invalidation_date=$1,
			updated_at=NOW(), row_version=row_version+1
		WHERE id=$2`,
		at, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

// UpdateIfVersion writes the mutable profile and status columns. Email
// and password changes go through their own flows.
func (r *userRepo) UpdateIfVersion(ctx context.Context, user *models.User, expected int64) (pgconn.CommandTag, error) {
	services := user.Services
	if services == nil {
		services = []string{}
	}

	sql := `
		UPDATE users SET
			handle=$1, first_name=$2, last_name=$3, phone=$4,
			address=$5, city=$6, state=$7, zip_code=$8, services=$9,
			is_active=$10, token_invalidation_date=$11,
			updated_at=NOW(), row_version=row_version+1
		WHERE id=$12 AND row_version=$13`
	args := []any{
		user.Handle, user.FirstName, user.LastName, user.Phone,
		user.Address, user.City, user.State, user.ZipCode, services,
		user.IsActive, user.TokenInvalidationDate,
		user.ID, expected,
	}
	return r.db.Exec(ctx, sql, args...)
}

func (r *userRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func baseSelectUser() string {
	return `
		SELECT id, email, handle, password_hash, role,
		       first_name, last_name, phone,
		       address, city, state, zip_code, services,
		       is_active, token_invalidation_date,
		       row_version, created_at, updated_at
		FROM users`
}

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var role string

	err := row.Scan(
		&user.ID, &user.Email, &user.Handle, &user.PasswordHash, &role,
		&user.FirstName, &user.LastName, &user.Phone,
		&user.Address, &user.City, &user.State, &user.ZipCode, &user.Services,
		&user.IsActive, &user.TokenInvalidationDate,
		&user.RowVersion, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	user.Role = models.RoleType(role)
	return &user, nil
}
