package services

import (
	"context"
	"fmt"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

// RateLimiterService provides a high-level interface for checking various rate limits.
// Every check returns utils.ErrRateLimitExceeded once a counter passes its limit.
type RateLimiterService interface {
	CheckLoginRateLimits(ctx context.Context, ip, email string) error
	CheckRegistrationRateLimits(ctx context.Context, ip string) error
	CheckEmailRateLimits(ctx context.Context, ip, emailAddress string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

type rateLimit struct {
	key   string
	limit int
	label string
}

// check increments each counter in order and stops at the first one over
// its limit.
func (s *rateLimiterService) check(ctx context.Context, limits ...rateLimit) error {
	for _, l := range limits {
		allowed, err := s.repo.IncrementAndCheck(ctx, l.key, l.limit, s.cfg.RateLimitWindow)
		if err != nil {
			return err
		}
		if !allowed {
			utils.Logger.Warnf("%s rate limit exceeded (key: %s)", l.label, l.key)
			return utils.ErrRateLimitExceeded
		}
	}
	return nil
}

// CheckLoginRateLimits checks per-IP and per-email limits for login attempts.
func (s *rateLimiterService) CheckLoginRateLimits(ctx context.Context, ip, email string) error {
	return s.check(ctx,
		rateLimit{key: fmt.Sprintf("login:ip:%s", ip), limit: s.cfg.LoginLimitPerIPPerHour, label: "Per-IP login"},
		rateLimit{key: fmt.Sprintf("login:email:%s", email), limit: s.cfg.LoginLimitPerEmailPerHour, label: "Per-email login"},
	)
}

func (s *rateLimiterService) CheckRegistrationRateLimits(ctx context.Context, ip string) error {
	return s.check(ctx,
		rateLimit{key: fmt.Sprintf("register:ip:%s", ip), limit: s.cfg.RegisterLimitPerIPPerHour, label: "Per-IP registration"},
	)
}

// CheckEmailRateLimits checks global, per-IP, and per-email limits for email requests.
func (s *rateLimiterService) CheckEmailRateLimits(ctx context.Context, ip, emailAddress string) error {
	return s.check(ctx,
		rateLimit{key: "email:global", limit: s.cfg.GlobalEmailLimitPerHour, label: "Global email"},
		rateLimit{key: fmt.Sprintf("email:ip:%s", ip), limit: s.cfg.EmailLimitPerIPPerHour, label: "Per-IP email"},
		rateLimit{key: fmt.Sprintf("email:address:%s", emailAddress), limit: s.cfg.EmailLimitPerEmailPerHour, label: "Per-email"},
	)
}
