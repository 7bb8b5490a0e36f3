// Package feed delivers presence and lock state changes to subscribed views.
// A subscription is an explicit, cancellable handle: switching the observed
// RoleAccount cancels the old handle before attaching a new one, so no stale
// goroutine can write another account's data into the current view.
package feed

import (
	"context"

	"github.com/spec-kit/command-center/internal/domain"
)

// Subscription is a live attachment to one RoleAccount's change stream.
type Subscription interface {
	// Cancel detaches the subscription and closes its snapshot channel.
	// It is safe to call more than once.
	Cancel()
	// Err reports why the snapshot channel closed, nil after a plain Cancel.
	Err() error
}

// PresenceFeed carries device heartbeat snapshots per RoleAccount. Each value
// delivered on the channel replaces the previous snapshot wholesale.
type PresenceFeed interface {
	// Publish records a heartbeat and notifies subscribers of the account.
	Publish(ctx context.Context, account domain.RoleAccount, hb domain.DeviceHeartbeat) error
	// Snapshot returns the current heartbeat set without subscribing.
	Snapshot(ctx context.Context, account domain.RoleAccount) (domain.HeartbeatSnapshot, error)
	// Subscribe delivers the current snapshot immediately, then one snapshot
	// per observed change, until the subscription is cancelled.
	Subscribe(ctx context.Context, account domain.RoleAccount) (<-chan domain.HeartbeatSnapshot, Subscription, error)
}

// LockFeed carries the current LockRecord per RoleAccount. An absent record is
// delivered as the empty record, never as a missing message.
type LockFeed interface {
	// Notify tells subscribers of the account that its record changed.
	Notify(ctx context.Context, account domain.RoleAccount) error
	// Subscribe delivers the current record immediately, then the refreshed
	// record after every notification, until the subscription is cancelled.
	Subscribe(ctx context.Context, account domain.RoleAccount) (<-chan domain.LockRecord, Subscription, error)
}
