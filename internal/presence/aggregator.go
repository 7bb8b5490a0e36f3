// Package presence derives per-username liveness from device heartbeat
// snapshots. The aggregator is a pure in-memory view: it persists nothing and
// can be recomputed on every feed update or timer tick.
package presence

import (
	"sync"
	"time"

	"github.com/spec-kit/command-center/internal/domain"
)

// Aggregator converts the raw heartbeat snapshot for one RoleAccount into a
// username -> online map. A username is online while its freshest heartbeat is
// younger than the staleness threshold; usernames with no heartbeat at all are
// offline.
type Aggregator struct {
	account   domain.RoleAccount
	threshold time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	latest map[string]time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the wall clock, used by tests to advance time without
// sleeping.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator for one RoleAccount.
func NewAggregator(account domain.RoleAccount, threshold time.Duration, opts ...Option) *Aggregator {
	a := &Aggregator{
		account:   account,
		threshold: threshold,
		now:       time.Now,
		latest:    map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RoleAccount returns the account this aggregator observes.
func (a *Aggregator) RoleAccount() domain.RoleAccount {
	return a.account
}

// Apply replaces the previous heartbeat snapshot wholesale. Devices reporting
// the same username are reduced to the freshest LastSeenAt.
func (a *Aggregator) Apply(snapshot domain.HeartbeatSnapshot) {
	latest := snapshot.Latest()
	a.mu.Lock()
	a.latest = latest
	a.mu.Unlock()
}

// Liveness recomputes the online map against the current clock. Liveness can
// flip to offline purely from time passing, so callers re-invoke this on a
// timer even when no new snapshot arrived.
func (a *Aggregator) Liveness() map[string]bool {
	return a.LivenessAt(a.now())
}

// LivenessAt computes the online map as of the given instant.
func (a *Aggregator) LivenessAt(now time.Time) map[string]bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	online := make(map[string]bool, len(a.latest))
	for username, lastSeen := range a.latest {
		online[username] = now.Sub(lastSeen) < a.threshold
	}
	return online
}

// Online reports liveness for a single username.
func (a *Aggregator) Online(username string) bool {
	a.mu.RLock()
	lastSeen, ok := a.latest[username]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	return a.now().Sub(lastSeen) < a.threshold
}
