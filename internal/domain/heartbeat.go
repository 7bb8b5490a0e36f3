package domain

import "time"

// DeviceHeartbeat is a liveness signal emitted by an active staff session.
// Multiple terminals may report the same username concurrently; only the
// freshest LastSeenAt per username is meaningful.
type DeviceHeartbeat struct {
	Username   string    `json:"username"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// HeartbeatSnapshot is the full set of heartbeats currently known for one
// RoleAccount. Each feed update replaces the previous snapshot wholesale.
type HeartbeatSnapshot []DeviceHeartbeat

// Latest reduces the snapshot to the freshest LastSeenAt per username.
func (s HeartbeatSnapshot) Latest() map[string]time.Time {
	latest := make(map[string]time.Time, len(s))
	for _, hb := range s {
		if seen, ok := latest[hb.Username]; !ok || hb.LastSeenAt.After(seen) {
			latest[hb.Username] = hb.LastSeenAt
		}
	}
	return latest
}
