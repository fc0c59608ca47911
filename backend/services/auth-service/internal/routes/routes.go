package routes

const (
	// Health
	Health = "/health"

	// Auth (base)
	AuthBase           = "/auth"
	AuthRegister       = "/auth/register"
	AuthLogin          = "/auth/login"
	AuthRefresh        = "/auth/refresh"
	AuthForgotPassword = "/auth/forgot-password"
	AuthResetPassword  = "/auth/reset-password"

	// Bearer token required
	AuthLogout         = "/auth/logout"
	AuthLogoutAll      = "/auth/logout-all"
	AuthMe             = "/auth/me"
	AuthChangePassword = "/auth/change-password"

	// Admin only
	AdminBase           = "/admin"
	AdminSuspendUser    = "/admin/users/{id}/suspend"
	AdminReactivateUser = "/admin/users/{id}/reactivate"
)
