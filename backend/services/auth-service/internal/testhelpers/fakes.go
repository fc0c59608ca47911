// Package testhelpers holds in-memory stand-ins for the auth-service
// stores, for unit tests that exercise real services.
package testhelpers

import (
	"context"
	"sync"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/models"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/repositories"
)

// MemTokenBlacklistRepository keeps entries in a map. Now drives expiry;
// Err, when set, fails every call.
type MemTokenBlacklistRepository struct {
	mu      sync.Mutex
	entries map[string]models.BlacklistedToken
	Now     func() time.Time
	Err     error
}

var _ repositories.TokenBlacklistRepository = (*MemTokenBlacklistRepository)(nil)

func NewMemTokenBlacklistRepository() *MemTokenBlacklistRepository {
	return &MemTokenBlacklistRepository{
		entries: make(map[string]models.BlacklistedToken),
		Now:     time.Now,
	}
}

func (r *MemTokenBlacklistRepository) BlacklistToken(ctx context.Context, entry *models.BlacklistedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	e := *entry
	if prev, ok := r.entries[e.TokenHash]; ok {
		prev.Reason = e.Reason
		r.entries[e.TokenHash] = prev
		return nil
	}
	e.CreatedAt = r.Now()
	r.entries[e.TokenHash] = e
	return nil
}

func (r *MemTokenBlacklistRepository) IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	e, ok := r.entries[tokenHash]
	return ok && e.IsActive(r.Now()), nil
}

func (r *MemTokenBlacklistRepository) CleanupExpiredBlacklistedTokens(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	now := r.Now()
	var n int64
	for h, e := range r.entries {
		if !e.IsActive(now) {
			delete(r.entries, h)
			n++
		}
	}
	return n, nil
}

// Entry returns the stored row for hash.
func (r *MemTokenBlacklistRepository) Entry(hash string) (models.BlacklistedToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[hash]
	return e, ok
}

func (r *MemTokenBlacklistRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// MemRateLimitRepository counts without windows; Limited forces every
// check to fail.
type MemRateLimitRepository struct {
	mu      sync.Mutex
	counts  map[string]int
	Limited bool
}

var _ repositories.RateLimitRepository = (*MemRateLimitRepository)(nil)

func NewMemRateLimitRepository() *MemRateLimitRepository {
	return &MemRateLimitRepository{counts: make(map[string]int)}
}

func (r *MemRateLimitRepository) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
	return !r.Limited && r.counts[key] <= limit, nil
}

func (r *MemRateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.counts))
	r.counts = make(map[string]int)
	return n, nil
}

// SentEmail is one message captured by FakeEmailSender.
type SentEmail struct {
	To, Subject, PlainText, HTML string
}

// FakeEmailSender records messages instead of sending them.
type FakeEmailSender struct {
	mu   sync.Mutex
	Sent []SentEmail
	Err  error
}

func (f *FakeEmailSender) SendEmail(ctx context.Context, to, subject, plainText, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, SentEmail{To: to, Subject: subject, PlainText: plainText, HTML: html})
	return nil
}

// Last returns the most recent message, or nil.
func (f *FakeEmailSender) Last() *SentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return nil
	}
	m := f.Sent[len(f.Sent)-1]
	return &m
}
