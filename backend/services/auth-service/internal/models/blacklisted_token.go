package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RevocationReason records why a token was blacklisted. Audit only; it
// never changes whether the token is blocked.
type RevocationReason string

const (
	ReasonLogout           RevocationReason = "logout"
	ReasonPasswordReset    RevocationReason = "password_reset"
	ReasonAccountSuspended RevocationReason = "account_suspended"
)

func ParseRevocationReason(s string) (RevocationReason, error) {
	switch r := RevocationReason(s); r {
	case ReasonLogout, ReasonPasswordReset, ReasonAccountSuspended:
		return r, nil
	}
	return "", fmt.Errorf("invalid revocation reason: %q", s)
}

// BlacklistedToken is one revoked token, keyed by the SHA-256 of the raw
// token. It blocks the token while ExpiresAt is in the future and may be
// swept afterwards.
type BlacklistedToken struct {
	TokenHash string           `json:"token_hash"`
	UserID    uuid.UUID        `json:"user_id"`
	ExpiresAt time.Time        `json:"expires_at"` // the token's own exp
	Reason    RevocationReason `json:"reason"`
	CreatedAt time.Time        `json:"created_at"`
}

func (b *BlacklistedToken) IsActive(now time.Time) bool {
	return b.ExpiresAt.After(now)
}
