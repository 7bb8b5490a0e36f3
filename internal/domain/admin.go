package domain

import "time"

// SubjectType differentiates admin vs terminal tokens.
type SubjectType string

const (
	SubjectTypeAdmin    SubjectType = "ADMIN"
	SubjectTypeTerminal SubjectType = "TERMINAL"
)

// Admin models a dashboard administrator account.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
