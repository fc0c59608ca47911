package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
)

// DefaultAdminID is fixed so every environment seeds the same row.
const DefaultAdminID = "11111111-2222-3333-4444-555555555555"

// AdminSeed describes the bootstrap admin. Admin accounts cannot be
// self-registered, so this is the only way the first one exists.
type AdminSeed struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	BcryptCost int
}

// SeedDefaultAdmin creates the bootstrap admin unless an account with the
// same ID or email already exists. Safe to run on every start.
func SeedDefaultAdmin(ctx context.Context, userRepo repositories.UserRepository, seed AdminSeed) error {
	if seed.Email == "" || seed.Password == "" {
		return errors.New("admin seed needs both email and password")
	}
	adminID := uuid.MustParse(DefaultAdminID)
	email := utils.NormalizeEmail(seed.Email)

	existing, err := userRepo.GetByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("error checking for existing admin by ID: %w", err)
	}
	if existing == nil {
		existing, err = userRepo.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("error checking for existing admin by email: %w", err)
		}
	}
	if existing != nil {
		utils.Logger.Infof("Default admin already exists (ID=%s); skipping seed.", existing.ID)
		return nil
	}

	hash, err := utils.HashPassword(seed.Password, seed.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to bcrypt-hash default admin password: %w", err)
	}

	admin := &models.User{
		ID:           adminID,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		Services:     []string{},
		IsActive:     true,
	}
	if admin.FirstName == "" {
		admin.FirstName = "Admin"
	}
	if admin.LastName == "" {
		admin.LastName = "CleanMatch"
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		// Another replica won the race.
		if errors.Is(err, utils.ErrEmailExists) {
			return nil
		}
		return fmt.Errorf("failed to insert default admin: %w", err)
	}

	utils.Logger.Infof("Successfully seeded default admin (ID=%s, email=%s).", admin.ID, admin.Email)
	return nil
}
