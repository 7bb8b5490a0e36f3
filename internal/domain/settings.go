package domain

import "time"

// EventSettings is the shared event configuration document. The confirmation
// secret gating lock commits lives here alongside the display fields; it is a
// simple shared value, not a security boundary.
type EventSettings struct {
	Name               string
	Venue              string
	Deadline           *time.Time
	ConfirmationSecret string
	UpdatedAt          time.Time
}
