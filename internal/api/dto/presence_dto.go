package dto

// HeartbeatRequest is emitted periodically by an active staff session. The
// RoleAccount comes from the terminal token, not the body.
type HeartbeatRequest struct {
	Username string `json:"username"`
}
