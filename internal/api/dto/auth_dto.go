package dto

import "time"

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TerminalTokenRequest asks for a token provisioning one staff terminal.
type TerminalTokenRequest struct {
	RoleAccount string `json:"role_account"`
}
