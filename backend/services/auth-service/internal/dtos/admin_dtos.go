package dtos

// SuspendUserRequest may name a token the admin already holds for the
// user (e.g. from a support ticket); it is revoked immediately.
type SuspendUserRequest struct {
	Token string `json:"token,omitempty"`
}

type AccountStatusResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	IsActive bool   `json:"isActive"`
}
