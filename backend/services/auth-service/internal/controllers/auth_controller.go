package controllers

import (
	"net/http"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/services"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// -------------------
// Public endpoints
// -------------------

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := c.authService.Register(r.Context(), req, utils.ClientIP(r))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.AuthResponse{
		Success:      true,
		User:         dtos.NewUserFromModel(res.User),
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := c.authService.Login(r.Context(), req.Email, req.Password, utils.ClientIP(r))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.AuthResponse{
		Success:      true,
		User:         dtos.NewUserFromModel(res.User),
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dtos.RefreshTokenRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := c.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.RefreshTokenResponse{
		Success: true,
		Token:   res.AccessToken,
		User:    dtos.NewUserFromModel(res.User),
	})
}

// -------------------
// Bearer-protected endpoints
// -------------------

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req dtos.LogoutRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	// Logout reports success even when revocation could not be stored.
	_ = c.authService.Logout(r.Context(), p.Token, p.UserID, req.RefreshToken)

	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

func (c *AuthController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := c.authService.LogoutAll(r.Context(), p.UserID); err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Logged out from all devices",
	})
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	user, err := c.authService.Me(r.Context(), p.UserID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.MeResponse{
		Success: true,
		User:    dtos.NewUserFromModel(user),
	})
}

func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req dtos.ChangePasswordRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := c.authService.ChangePassword(r.Context(), p.UserID, p.Token, req.CurrentPassword, req.NewPassword)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ChangePasswordResponse{
		Success:      true,
		Message:      "Password changed; other sessions have been signed out",
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}
