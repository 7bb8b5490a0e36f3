package domain

import "time"

// ActionKind labels an activity log entry. The lock control plane writes
// ACCESS_LOCK and ACCESS_UNLOCK; the remaining kinds are produced by the
// surrounding dashboard and appear here because the log is shared.
type ActionKind string

const (
	ActionLogin        ActionKind = "LOGIN"
	ActionTicketCreate ActionKind = "TICKET_CREATE"
	ActionScanEntry    ActionKind = "SCAN_ENTRY"
	ActionConfigChange ActionKind = "CONFIG_CHANGE"
	ActionFactoryReset ActionKind = "FACTORY_RESET"
	ActionAccessLock   ActionKind = "ACCESS_LOCK"
	ActionAccessUnlock ActionKind = "ACCESS_UNLOCK"
)

// AuditEntry is one immutable row of the append-only activity log.
type AuditEntry struct {
	ID        string
	Action    ActionKind
	Username  string
	Details   string
	Timestamp time.Time
}
