package routes

import (
	"net/http"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/controllers"
	"github.com/cleanmatch/mono-repo/backend/shared/go-middleware"
	"github.com/gorilla/mux"
)

// Controllers groups everything NewRouter mounts.
type Controllers struct {
	Auth          *controllers.AuthController
	PasswordReset *controllers.PasswordResetController
	AdminAccount  *controllers.AdminAccountController
	Health        *controllers.HealthController
}

// NewRouter mounts every endpoint. verifier backs both the bearer and
// the admin middleware.
func NewRouter(c Controllers, verifier middleware.RequestVerifier) *mux.Router {
	router := mux.NewRouter()

	// Health
	router.HandleFunc(Health, c.Health.HealthCheckHandler).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc(AuthRegister, c.Auth.Register).Methods(http.MethodPost)
	router.HandleFunc(AuthLogin, c.Auth.Login).Methods(http.MethodPost)
	router.HandleFunc(AuthRefresh, c.Auth.Refresh).Methods(http.MethodPost)
	router.HandleFunc(AuthForgotPassword, c.PasswordReset.ForgotPassword).Methods(http.MethodPost)
	router.HandleFunc(AuthResetPassword, c.PasswordReset.ResetPassword).Methods(http.MethodPost)

	// Protected endpoints require a valid, unrevoked token
	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(verifier))
	protected.HandleFunc(AuthLogout, c.Auth.Logout).Methods(http.MethodPost)
	protected.HandleFunc(AuthLogoutAll, c.Auth.LogoutAll).Methods(http.MethodPost)
	protected.HandleFunc(AuthMe, c.Auth.Me).Methods(http.MethodGet)
	protected.HandleFunc(AuthChangePassword, c.Auth.ChangePassword).Methods(http.MethodPost)

	// Admin endpoints
	admin := router.NewRoute().Subrouter()
	admin.Use(middleware.AdminAuthMiddleware(verifier))
	admin.HandleFunc(AdminSuspendUser, c.AdminAccount.SuspendUser).Methods(http.MethodPost)
	admin.HandleFunc(AdminReactivateUser, c.AdminAccount.ReactivateUser).Methods(http.MethodPost)

	return router
}
