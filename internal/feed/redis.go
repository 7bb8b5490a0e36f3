package feed

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/repository"
)

const heartbeatTimeLayout = time.RFC3339Nano

func presenceKey(account domain.RoleAccount) string {
	return "presence:" + string(account)
}

func presenceChannel(account domain.RoleAccount) string {
	return "presence:changed:" + string(account)
}

func lockChannel(account domain.RoleAccount) string {
	return "locks:changed:" + string(account)
}

// RedisPresenceFeed stores each RoleAccount's heartbeats in a redis hash
// (username -> last seen) and notifies subscribers over pub/sub. Subscribers
// re-read the whole hash per notification, so every delivery is a full
// snapshot.
type RedisPresenceFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPresenceFeed builds the feed.
func NewRedisPresenceFeed(client *redis.Client, logger *zap.Logger) *RedisPresenceFeed {
	return &RedisPresenceFeed{client: client, logger: logger}
}

// Publish records one heartbeat and notifies subscribers of the account.
func (f *RedisPresenceFeed) Publish(ctx context.Context, account domain.RoleAccount, hb domain.DeviceHeartbeat) error {
	seen := hb.LastSeenAt
	if seen.IsZero() {
		seen = time.Now()
	}
	if err := f.client.HSet(ctx, presenceKey(account), hb.Username, seen.Format(heartbeatTimeLayout)).Err(); err != nil {
		return err
	}
	return f.client.Publish(ctx, presenceChannel(account), hb.Username).Err()
}

// Snapshot reads the current heartbeat set for the account.
func (f *RedisPresenceFeed) Snapshot(ctx context.Context, account domain.RoleAccount) (domain.HeartbeatSnapshot, error) {
	raw, err := f.client.HGetAll(ctx, presenceKey(account)).Result()
	if err != nil {
		return nil, err
	}

	snapshot := make(domain.HeartbeatSnapshot, 0, len(raw))
	for username, stamp := range raw {
		seen, err := time.Parse(heartbeatTimeLayout, stamp)
		if err != nil {
			f.logger.Warn("dropping unparsable heartbeat",
				zap.String("role_account", string(account)),
				zap.String("username", username),
				zap.Error(err))
			continue
		}
		snapshot = append(snapshot, domain.DeviceHeartbeat{Username: username, LastSeenAt: seen})
	}
	return snapshot, nil
}

// Subscribe attaches to the account's heartbeat stream.
func (f *RedisPresenceFeed) Subscribe(ctx context.Context, account domain.RoleAccount) (<-chan domain.HeartbeatSnapshot, Subscription, error) {
	initial, err := f.Snapshot(ctx, account)
	if err != nil {
		return nil, nil, &domain.SubscriptionError{Source: "presence", Err: err}
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pubsub := f.client.Subscribe(subCtx, presenceChannel(account))
	sub := newHandle(cancel)
	out := make(chan domain.HeartbeatSnapshot, 1)

	go func() {
		defer sub.finish()
		defer close(out)
		defer pubsub.Close()

		if !deliver(subCtx, out, initial) {
			return
		}
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-pubsub.Channel():
				if !ok {
					sub.fail(&domain.SubscriptionError{Source: "presence", Err: subCtx.Err()})
					return
				}
				snapshot, err := f.Snapshot(subCtx, account)
				if err != nil {
					sub.fail(&domain.SubscriptionError{Source: "presence", Err: err})
					return
				}
				if !deliver(subCtx, out, snapshot) {
					return
				}
			}
		}
	}()

	return out, sub, nil
}

// RedisLockFeed notifies lock record subscribers over pub/sub and re-reads the
// record from the repository per notification.
type RedisLockFeed struct {
	client *redis.Client
	locks  repository.RoleLockRepository
	logger *zap.Logger
}

// NewRedisLockFeed builds the feed.
func NewRedisLockFeed(client *redis.Client, locks repository.RoleLockRepository, logger *zap.Logger) *RedisLockFeed {
	return &RedisLockFeed{client: client, locks: locks, logger: logger}
}

// Notify signals that the account's lock record changed.
func (f *RedisLockFeed) Notify(ctx context.Context, account domain.RoleAccount) error {
	return f.client.Publish(ctx, lockChannel(account), string(account)).Err()
}

// Subscribe attaches to the account's lock record stream.
func (f *RedisLockFeed) Subscribe(ctx context.Context, account domain.RoleAccount) (<-chan domain.LockRecord, Subscription, error) {
	initial, err := f.locks.Get(ctx, account)
	if err != nil {
		return nil, nil, &domain.SubscriptionError{Source: "locks", Err: err}
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pubsub := f.client.Subscribe(subCtx, lockChannel(account))
	sub := newHandle(cancel)
	out := make(chan domain.LockRecord, 1)

	go func() {
		defer sub.finish()
		defer close(out)
		defer pubsub.Close()

		if !deliver(subCtx, out, initial) {
			return
		}
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-pubsub.Channel():
				if !ok {
					sub.fail(&domain.SubscriptionError{Source: "locks", Err: subCtx.Err()})
					return
				}
				record, err := f.locks.Get(subCtx, account)
				if err != nil {
					sub.fail(&domain.SubscriptionError{Source: "locks", Err: err})
					return
				}
				if !deliver(subCtx, out, record) {
					return
				}
			}
		}
	}()

	return out, sub, nil
}

// deliver sends a snapshot unless the subscription was cancelled first.
func deliver[T any](ctx context.Context, out chan<- T, value T) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- value:
		return true
	}
}
