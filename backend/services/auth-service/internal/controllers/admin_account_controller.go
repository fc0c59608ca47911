package controllers

import (
	"net/http"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/services"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AdminAccountController struct {
	adminService services.AdminAccountService
}

func NewAdminAccountController(adminService services.AdminAccountService) *AdminAccountController {
	return &AdminAccountController{adminService: adminService}
}

func targetUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid user id", nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}

func (c *AdminAccountController) SuspendUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	userID, ok := targetUserID(w, r)
	if !ok {
		return
	}

	var req dtos.SuspendUserRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	user, err := c.adminService.SuspendAccount(r.Context(), admin.UserID, userID, req.Token)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.AccountStatusResponse{
		Success:  true,
		Message:  "Account suspended",
		UserID:   user.ID.String(),
		IsActive: user.IsActive,
	})
}

func (c *AdminAccountController) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	userID, ok := targetUserID(w, r)
	if !ok {
		return
	}

	user, err := c.adminService.ReactivateAccount(r.Context(), admin.UserID, userID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.AccountStatusResponse{
		Success:  true,
		Message:  "Account reactivated",
		UserID:   user.ID.String(),
		IsActive: user.IsActive,
	})
}
