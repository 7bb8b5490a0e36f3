package events

import (
	"time"

	"github.com/spec-kit/command-center/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLockCommitted     EventType = "lock_committed"
	EventHeartbeatRecorded EventType = "heartbeat_recorded"
)

// Event represents a control-plane event emitted by services.
type Event struct {
	ID          string             `json:"id"`
	Type        EventType          `json:"type"`
	RoleAccount domain.RoleAccount `json:"role_account"`
	Actor       string             `json:"actor"`
	Timestamp   time.Time          `json:"timestamp"`
	Payload     interface{}        `json:"payload"`
}

// LockCommittedPayload describes one committed lock mutation. Unlock is a
// display distinction only: an unlock is a commit with an empty capability set.
type LockCommittedPayload struct {
	Targets       []string            `json:"targets"`
	Capabilities  []domain.Capability `json:"capabilities"`
	Reason        domain.ReasonKind   `json:"reason"`
	DurationLabel string              `json:"duration_label,omitempty"`
	Unlock        bool                `json:"unlock"`
}

// HeartbeatRecordedPayload describes one ingested heartbeat.
type HeartbeatRecordedPayload struct {
	Username   string    `json:"username"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
