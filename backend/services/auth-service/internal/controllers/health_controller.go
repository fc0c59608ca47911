package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/dtos"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is satisfied by *app.App.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	app Pinger
}

func NewHealthController(app Pinger) *HealthController {
	return &HealthController{
		app: app,
	}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	// Check database (and Redis, when configured) connectivity
	if err := c.app.Ping(ctx); err != nil {
		utils.RespondErrorWithCode(
			w,
			http.StatusServiceUnavailable,
			utils.ErrCodeServiceUnavailable,
			"Backing store unreachable",
			nil,
			err,
		)
		return
	}

	// Everything is OK
	resp := dtos.HealthCheckResponse{
		Status: "OK",
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
