package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/jackc/pgconn"
)

// ────────────────────────────────────────────────────────────
// Retry policy – one retry on transient network errors (EOF,
// closed‑connection) with a small back‑off.
// ────────────────────────────────────────────────────────────
var cleanupRetryDelay = 3 * time.Second

// TokenCleanupService sweeps expired blacklist entries. It runs hourly, so
// an entry outlives its token by at most one interval.
type TokenCleanupService interface {
	CleanupHourly(ctx context.Context) error
}

type tokenCleanupService struct {
	blacklist TokenBlacklistService
}

func NewTokenCleanupService(blacklist TokenBlacklistService) TokenCleanupService {
	return &tokenCleanupService{blacklist: blacklist}
}

// isTransient reports errors worth one more attempt: EOF, pgconn
// safe‑to‑retry, or the common closed‑connection message.
func isTransient(err error) bool {
	return errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
		strings.Contains(err.Error(), "connection was closed")
}

// runWithRetry executes op(ctx) and, if it returns a transient network
// error, waits a moment then retries **once**.
func runWithRetry(ctx context.Context, job string, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || !isTransient(err) {
		return err
	}

	utils.Logger.WithError(err).Warnf("%s hit transient DB error; retrying once", job)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(cleanupRetryDelay):
	}
	return op(ctx)
}

// CleanupHourly removes blacklist entries whose token has expired.
func (s *tokenCleanupService) CleanupHourly(ctx context.Context) error {
	var removed int64
	err := runWithRetry(ctx, "token blacklist sweep", func(ctx context.Context) error {
		n, err := s.blacklist.SweepExpired(ctx)
		removed = n
		return err
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to sweep expired token_blacklist entries")
		return err
	}

	utils.Logger.WithField("removed", removed).Info("Token blacklist sweep completed successfully.")
	return nil
}
