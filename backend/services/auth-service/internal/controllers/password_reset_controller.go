package controllers

import (
	"net/http"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/services"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

type PasswordResetController struct {
	resetService services.PasswordResetService
}

func NewPasswordResetController(resetService services.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{resetService: resetService}
}

func (c *PasswordResetController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dtos.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	if err := c.resetService.RequestReset(r.Context(), req.Email, utils.ClientIP(r)); err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "If an account exists for that email, a reset code has been sent",
	})
}

func (c *PasswordResetController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dtos.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	if err := c.resetService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Password has been reset; please log in again",
	})
}
