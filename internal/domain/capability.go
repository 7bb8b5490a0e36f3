package domain

import "sort"

// Capability is a discrete application feature that can be individually
// locked on a staff username.
type Capability string

const (
	CapabilityIssueTicket    Capability = "issue-ticket"
	CapabilityBrowseBookings Capability = "browse-bookings"
	CapabilityScanEntry      Capability = "scan-entry"
)

// Capabilities lists every lockable feature.
func Capabilities() []Capability {
	return []Capability{CapabilityIssueTicket, CapabilityBrowseBookings, CapabilityScanEntry}
}

// Valid reports whether the capability is a known lockable feature.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityIssueTicket, CapabilityBrowseBookings, CapabilityScanEntry:
		return true
	}
	return false
}

// NormalizeCapabilities deduplicates and sorts a capability list so that two
// logically equal sets compare and serialize identically. An empty or nil
// input yields an empty (never nil) slice, the canonical "fully unlocked" set.
func NormalizeCapabilities(caps []Capability) []Capability {
	seen := make(map[Capability]struct{}, len(caps))
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
