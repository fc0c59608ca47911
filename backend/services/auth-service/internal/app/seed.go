package app

import (
	"context"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	seeding "github.com/cleanmatch/mono-repo/backend/shared/go-seeding"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

// SeedAdmin creates the bootstrap admin when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are both set. It is a no-op otherwise.
func SeedAdmin(ctx context.Context, cfg *config.Config, userRepo repositories.UserRepository) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		utils.Logger.Debug("No bootstrap admin configured; skipping seed.")
		return nil
	}
	return seeding.SeedDefaultAdmin(ctx, userRepo, seeding.AdminSeed{
		Email:      cfg.SeedAdminEmail,
		Password:   cfg.SeedAdminPassword,
		BcryptCost: cfg.BcryptRounds,
	})
}
