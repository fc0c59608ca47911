package models

import (
	"time"

	"github.com/google/uuid"
)

type RoleType string

const (
	RoleCustomer RoleType = "customer"
	RoleCleaner  RoleType = "cleaner"
	RoleAdmin    RoleType = "admin"
)

func (r RoleType) Valid() bool {
	switch r {
	case RoleCustomer, RoleCleaner, RoleAdmin:
		return true
	}
	return false
}

// User is the credential record for every CleanMatch account.
type User struct {
	Versioned

	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Handle       *string   `json:"handle,omitempty"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	Role         RoleType  `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        *string   `json:"phone,omitempty"`

	// Cleaner service area.
	Address  *string  `json:"address,omitempty"`
	City     *string  `json:"city,omitempty"`
	State    *string  `json:"state,omitempty"`
	ZipCode  *string  `json:"zip_code,omitempty"`
	Services []string `json:"services,omitempty"`

	IsActive bool `json:"is_active"`

	// Tokens issued before this instant are rejected on every
	// verification path. Nil until the first logout-all, password change
	// or suspension.
	TokenInvalidationDate *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) GetID() string {
	return u.ID.String()
}

// TokensIssuedBeforeAreInvalid reports whether a token issued at iat
// predates the user's invalidation stamp.
func (u *User) TokensIssuedBeforeAreInvalid(iat time.Time) bool {
	return u.TokenInvalidationDate != nil && iat.Before(*u.TokenInvalidationDate)
}
