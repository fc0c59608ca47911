package testhelpers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// DefaultTestPassword satisfies the registration password rules.
const DefaultTestPassword = "Sup3r-Secret-Pass"

var uniqueSeq atomic.Int64

func nextUnique() int64 {
	return time.Now().UnixNano() + uniqueSeq.Add(1)
}

// UniqueEmail generates a unique email for testing.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d%s", prefix, nextUnique(), utils.TestEmailSuffix)
}

// UniqueHandle generates a unique alphanumeric handle.
func UniqueHandle(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, nextUnique()%1_000_000_000)
}

// NewTestUser builds (without persisting) an active user of the given
// role whose password is DefaultTestPassword. bcrypt runs at the minimum
// cost to keep tests fast.
func NewTestUser(t require.TestingT, role models.RoleType) *models.User {
	hash, err := utils.HashPassword(DefaultTestPassword, 4)
	require.NoError(t, err)

	u := &models.User{
		ID:           uuid.New(),
		Email:        UniqueEmail(string(role)),
		PasswordHash: hash,
		Role:         role,
		FirstName:    "Test",
		LastName:     "User",
		Services:     []string{},
		IsActive:     true,
	}
	switch role {
	case models.RoleCustomer:
		u.Handle = utils.Ptr(UniqueHandle("cust"))
	case models.RoleCleaner:
		u.Address = utils.Ptr("1 Main St")
		u.City = utils.Ptr("Springfield")
		u.State = utils.Ptr("IL")
		u.ZipCode = utils.Ptr("62701")
		u.Services = []string{"standard-clean"}
	}
	return u
}

// CreateTestUser creates and persists a new user.
func (h *TestHelper) CreateTestUser(ctx context.Context, role models.RoleType) *models.User {
	u := NewTestUser(h.T, role)
	require.NoError(h.T, h.UserRepo.Create(ctx, u), "Failed to create test user")
	h.T.Logf("Created test %s %s (%s)", role, u.Email, u.ID)
	return u
}
