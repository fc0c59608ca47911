package dtos

import (
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-models"
	"github.com/google/uuid"
)

// ----------------------
// Requests
// ----------------------

// RegisterRequest carries the union of per-role profile fields. Which of
// the optional ones are required depends on Role and is checked by the
// auth service.
type RegisterRequest struct {
	Email     string   `json:"email" validate:"required,email,max=255"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	Role      string   `json:"role" validate:"required,oneof=customer cleaner admin"`
	FirstName string   `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string   `json:"lastName" validate:"required,min=1,max=100"`
	Handle    *string  `json:"handle,omitempty" validate:"omitempty,min=3,max=30,alphanum"`
	Phone     *string  `json:"phone,omitempty" validate:"omitempty,e164"`
	Address   *string  `json:"address,omitempty" validate:"omitempty,max=255"`
	City      *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	State     *string  `json:"state,omitempty" validate:"omitempty,max=50"`
	ZipCode   *string  `json:"zipCode,omitempty" validate:"omitempty,max=20"`
	Services  []string `json:"services,omitempty" validate:"omitempty,dive,required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest is optional on /auth/logout; an empty body only revokes
// the bearer token.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// ----------------------
// Responses
// ----------------------

// User is the public projection of models.User.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Handle    *string   `json:"handle,omitempty"`
	Role      string    `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	State     *string   `json:"state,omitempty"`
	ZipCode   *string   `json:"zipCode,omitempty"`
	Services  []string  `json:"services,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserFromModel(u *models.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Handle:    u.Handle,
		Role:      string(u.Role),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
		City:      u.City,
		State:     u.State,
		ZipCode:   u.ZipCode,
		Services:  u.Services,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse answers register and login.
type AuthResponse struct {
	Success      bool   `json:"success"`
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type MeResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ChangePasswordResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
