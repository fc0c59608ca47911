package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
)

// MemUserRepository is an in-memory repositories.UserRepository for unit
// tests. Err, when set, is returned by every call.
type MemUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	Err   error
}

var _ repositories.UserRepository = (*MemUserRepository)(nil)

func NewMemUserRepository() *MemUserRepository {
	return &MemUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Services = append([]string(nil), u.Services...)
	if u.TokenInvalidationDate != nil {
		t := *u.TokenInvalidationDate
		c.TokenInvalidationDate = &t
	}
	return &c
}

func (r *MemUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: %s", utils.ErrEmailExists, user.Email)
		}
		if user.Handle != nil && u.Handle != nil && *u.Handle == *user.Handle {
			return fmt.Errorf("%w: %s", utils.ErrHandleExists, *user.Handle)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	user.RowVersion = 1
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *MemUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *MemUserRepository) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Handle != nil && *u.Handle == handle })
}

func (r *MemUserRepository) modify(id uuid.UUID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	fn(u)
	u.RowVersion++
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, invalidatedAt time.Time) error {
	return r.modify(id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.TokenInvalidationDate = &invalidatedAt
	})
}

func (r *MemUserRepository) SetTokenInvalidationDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.modify(id, func(u *models.User) { u.TokenInvalidationDate = &at })
}

func (r *MemUserRepository) UpdateIfVersion(ctx context.Context, user *models.User, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	cur, ok := r.users[user.ID]
	if !ok || cur.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	next := cloneUser(user)
	next.Email, next.PasswordHash, next.CreatedAt = cur.Email, cur.PasswordHash, cur.CreatedAt
	next.RowVersion = expected + 1
	next.UpdatedAt = time.Now()
	r.users[user.ID] = next
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *MemUserRepository) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return repositories.WithRetry[*models.User](ctx, 3, id.String(),
		func(ctx context.Context, id string) (*models.User, error) {
			return r.GetByID(ctx, uuid.MustParse(id))
		},
		r.UpdateIfVersion,
		mutate,
	)
}

// Put stores u as-is, bypassing uniqueness checks.
func (r *MemUserRepository) Put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneUser(u)
}

// MemPasswordResetCodeRepository is an in-memory
// repositories.PasswordResetCodeRepository.
type MemPasswordResetCodeRepository struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.PasswordResetCode
	seq   time.Duration
}

var _ repositories.PasswordResetCodeRepository = (*MemPasswordResetCodeRepository)(nil)

func NewMemPasswordResetCodeRepository() *MemPasswordResetCodeRepository {
	return &MemPasswordResetCodeRepository{codes: make(map[uuid.UUID]*models.PasswordResetCode)}
}

func (r *MemPasswordResetCodeRepository) ReplaceCode(ctx context.Context, userID uuid.UUID, email, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.UserID == userID {
			delete(r.codes, id)
		}
	}
	// seq keeps CreatedAt strictly increasing within a test.
	r.seq++
	rec := &models.PasswordResetCode{
		ID:        uuid.New(),
		UserID:    userID,
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().Add(r.seq),
	}
	r.codes[rec.ID] = rec
	return nil
}

func (r *MemPasswordResetCodeRepository) GetLatest(ctx context.Context, email string) (*models.PasswordResetCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*models.PasswordResetCode
	for _, c := range r.codes {
		if c.Email == email {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	c := *matches[0]
	return &c, nil
}

func (r *MemPasswordResetCodeRepository) ClaimAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[id]
	if !ok || c.Attempts >= maxAttempts {
		return false, nil
	}
	c.Attempts++
	return true, nil
}

func (r *MemPasswordResetCodeRepository) DeleteCode(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, id)
	return nil
}

func (r *MemPasswordResetCodeRepository) CleanupExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for id, c := range r.codes {
		if c.ExpiresAt.Before(now) {
			delete(r.codes, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many codes are stored.
func (r *MemPasswordResetCodeRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}
