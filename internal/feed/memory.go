package feed

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/repository"
)

// MemoryPresenceFeed is an in-process PresenceFeed with the same delivery
// contract as the redis one. The compositional tests drive the view loop
// through it.
type MemoryPresenceFeed struct {
	mu        sync.Mutex
	latest    map[domain.RoleAccount]map[string]time.Time
	listeners map[domain.RoleAccount]map[*memoryListener[domain.HeartbeatSnapshot]]struct{}
}

// NewMemoryPresenceFeed creates an empty feed.
func NewMemoryPresenceFeed() *MemoryPresenceFeed {
	return &MemoryPresenceFeed{
		latest:    map[domain.RoleAccount]map[string]time.Time{},
		listeners: map[domain.RoleAccount]map[*memoryListener[domain.HeartbeatSnapshot]]struct{}{},
	}
}

// Publish records one heartbeat and fans the refreshed snapshot out to the
// account's subscribers.
func (f *MemoryPresenceFeed) Publish(_ context.Context, account domain.RoleAccount, hb domain.DeviceHeartbeat) error {
	seen := hb.LastSeenAt
	if seen.IsZero() {
		seen = time.Now()
	}

	f.mu.Lock()
	byUser, ok := f.latest[account]
	if !ok {
		byUser = map[string]time.Time{}
		f.latest[account] = byUser
	}
	if prev, ok := byUser[hb.Username]; !ok || seen.After(prev) {
		byUser[hb.Username] = seen
	}
	snapshot := snapshotLocked(byUser)
	targets := make([]*memoryListener[domain.HeartbeatSnapshot], 0, len(f.listeners[account]))
	for l := range f.listeners[account] {
		targets = append(targets, l)
	}
	f.mu.Unlock()

	for _, l := range targets {
		l.send(snapshot)
	}
	return nil
}

// Snapshot returns the current heartbeat set for the account.
func (f *MemoryPresenceFeed) Snapshot(_ context.Context, account domain.RoleAccount) (domain.HeartbeatSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return snapshotLocked(f.latest[account]), nil
}

// Subscribe attaches to the account's heartbeat stream.
func (f *MemoryPresenceFeed) Subscribe(ctx context.Context, account domain.RoleAccount) (<-chan domain.HeartbeatSnapshot, Subscription, error) {
	f.mu.Lock()
	initial := snapshotLocked(f.latest[account])
	listener, sub := newMemoryListener[domain.HeartbeatSnapshot](ctx, nil)
	set, ok := f.listeners[account]
	if !ok {
		set = map[*memoryListener[domain.HeartbeatSnapshot]]struct{}{}
		f.listeners[account] = set
	}
	set[listener] = struct{}{}
	f.mu.Unlock()

	listener.detach = func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners[account], listener)
	}

	listener.start(initial)
	return listener.out, sub, nil
}

func snapshotLocked(byUser map[string]time.Time) domain.HeartbeatSnapshot {
	snapshot := make(domain.HeartbeatSnapshot, 0, len(byUser))
	for username, seen := range byUser {
		snapshot = append(snapshot, domain.DeviceHeartbeat{Username: username, LastSeenAt: seen})
	}
	return snapshot
}

// MemoryLockFeed is an in-process LockFeed backed by a RoleLockRepository; a
// notification re-reads the record and fans it out.
type MemoryLockFeed struct {
	locks repository.RoleLockRepository

	mu        sync.Mutex
	listeners map[domain.RoleAccount]map[*memoryListener[domain.LockRecord]]struct{}
}

// NewMemoryLockFeed creates the feed over the given lock store.
func NewMemoryLockFeed(locks repository.RoleLockRepository) *MemoryLockFeed {
	return &MemoryLockFeed{
		locks:     locks,
		listeners: map[domain.RoleAccount]map[*memoryListener[domain.LockRecord]]struct{}{},
	}
}

// Notify re-reads the account's record and fans it out to subscribers.
func (f *MemoryLockFeed) Notify(ctx context.Context, account domain.RoleAccount) error {
	record, err := f.locks.Get(ctx, account)
	if err != nil {
		return err
	}

	f.mu.Lock()
	targets := make([]*memoryListener[domain.LockRecord], 0, len(f.listeners[account]))
	for l := range f.listeners[account] {
		targets = append(targets, l)
	}
	f.mu.Unlock()

	for _, l := range targets {
		l.send(record)
	}
	return nil
}

// Subscribe attaches to the account's lock record stream.
func (f *MemoryLockFeed) Subscribe(ctx context.Context, account domain.RoleAccount) (<-chan domain.LockRecord, Subscription, error) {
	initial, err := f.locks.Get(ctx, account)
	if err != nil {
		return nil, nil, &domain.SubscriptionError{Source: "locks", Err: err}
	}

	f.mu.Lock()
	listener, sub := newMemoryListener[domain.LockRecord](ctx, nil)
	set, ok := f.listeners[account]
	if !ok {
		set = map[*memoryListener[domain.LockRecord]]struct{}{}
		f.listeners[account] = set
	}
	set[listener] = struct{}{}
	f.mu.Unlock()

	listener.detach = func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners[account], listener)
	}

	listener.start(initial)
	return listener.out, sub, nil
}

// memoryListener pumps queued snapshots to a subscriber channel until its
// subscription is cancelled.
type memoryListener[T any] struct {
	ctx    context.Context
	out    chan T
	queue  chan T
	detach func()
	sub    *handle
}

func newMemoryListener[T any](ctx context.Context, detach func()) (*memoryListener[T], *handle) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := newHandle(cancel)
	return &memoryListener[T]{
		ctx:    subCtx,
		out:    make(chan T, 1),
		queue:  make(chan T, 16),
		detach: detach,
		sub:    sub,
	}, sub
}

func (l *memoryListener[T]) start(initial T) {
	go func() {
		defer l.sub.finish()
		defer close(l.out)
		defer func() {
			if l.detach != nil {
				l.detach()
			}
		}()

		if !deliver(l.ctx, l.out, initial) {
			return
		}
		for {
			select {
			case <-l.ctx.Done():
				return
			case value := <-l.queue:
				if !deliver(l.ctx, l.out, value) {
					return
				}
			}
		}
	}()
}

// send queues a snapshot, dropping the oldest pending one when the subscriber
// lags; each delivery is a full snapshot so skipping is safe.
func (l *memoryListener[T]) send(value T) {
	for {
		select {
		case l.queue <- value:
			return
		default:
			select {
			case <-l.queue:
			default:
			}
		}
	}
}
