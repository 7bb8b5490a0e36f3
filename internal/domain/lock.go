package domain

import "time"

// ReasonKind classifies why a lock was placed.
type ReasonKind string

const (
	ReasonBasic       ReasonKind = "basic"
	ReasonMaintenance ReasonKind = "maintenance"
	ReasonSuspension  ReasonKind = "suspension"
)

// Valid reports whether the reason is a known kind.
func (r ReasonKind) Valid() bool {
	switch r {
	case ReasonBasic, ReasonMaintenance, ReasonSuspension:
		return true
	}
	return false
}

// LockEntry is the persisted lock state for one username. An empty
// LockedCapabilities set means fully unlocked; a mutation always replaces the
// whole set, never merges with a prior one.
type LockEntry struct {
	LockedCapabilities []Capability `json:"locked_capabilities"`
	Reason             ReasonKind   `json:"reason"`
	DurationLabel      string       `json:"duration_label,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Active reports whether the entry restricts anything.
func (e LockEntry) Active() bool {
	return len(e.LockedCapabilities) > 0
}

// LockRecord is the per-RoleAccount mapping of username to lock state. A
// record may not exist before the first mutation for its account; readers must
// treat an absent record, an absent username key, and an empty capability set
// identically.
type LockRecord struct {
	RoleAccount RoleAccount
	Entries     map[string]LockEntry
}

// EmptyLockRecord returns the canonical representation of "no locks" for an
// account whose record does not exist yet.
func EmptyLockRecord(account RoleAccount) LockRecord {
	return LockRecord{RoleAccount: account, Entries: map[string]LockEntry{}}
}

// CapabilitiesFor resolves the locked capability set for a username. A missing
// key reads as the empty set; every reader goes through this accessor so the
// missing-key-vs-empty-set ambiguity is settled in exactly one place.
func (r LockRecord) CapabilitiesFor(username string) []Capability {
	entry, ok := r.Entries[username]
	if !ok {
		return []Capability{}
	}
	return NormalizeCapabilities(entry.LockedCapabilities)
}

// EntryFor returns the stored entry for a username, if any.
func (r LockRecord) EntryFor(username string) (LockEntry, bool) {
	entry, ok := r.Entries[username]
	return entry, ok
}

// HasActiveLock reports whether the username currently has any capability locked.
func (r LockRecord) HasActiveLock(username string) bool {
	return len(r.CapabilitiesFor(username)) > 0
}
