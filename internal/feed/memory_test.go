package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/repository"
)

func receiveSnapshot(t *testing.T, ch <-chan domain.HeartbeatSnapshot) domain.HeartbeatSnapshot {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		require.True(t, ok, "channel closed before delivery")
		return snapshot
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}

func receiveRecord(t *testing.T, ch <-chan domain.LockRecord) domain.LockRecord {
	t.Helper()
	select {
	case record, ok := <-ch:
		require.True(t, ok, "channel closed before delivery")
		return record
	case <-time.After(time.Second):
		t.Fatal("no record delivered")
		return domain.LockRecord{}
	}
}

func TestMemoryPresenceFeed_DeliversCurrentSnapshotOnSubscribe(t *testing.T) {
	ctx := context.Background()
	f := feed.NewMemoryPresenceFeed()
	seen := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)

	require.NoError(t, f.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "alice", LastSeenAt: seen}))

	ch, sub, err := f.Subscribe(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	defer sub.Cancel()

	snapshot := receiveSnapshot(t, ch)
	latest := snapshot.Latest()
	require.Len(t, latest, 1)
	require.Equal(t, seen, latest["alice"])
}

func TestMemoryPresenceFeed_DeliversUpdatesAndKeepsFreshestPerUsername(t *testing.T) {
	ctx := context.Background()
	f := feed.NewMemoryPresenceFeed()
	base := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)

	ch, sub, err := f.Subscribe(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	defer sub.Cancel()
	require.Empty(t, receiveSnapshot(t, ch))

	require.NoError(t, f.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "alice", LastSeenAt: base}))
	require.Equal(t, base, receiveSnapshot(t, ch).Latest()["alice"])

	// an older heartbeat for the same username never regresses the snapshot
	require.NoError(t, f.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "alice", LastSeenAt: base.Add(-time.Minute)}))
	require.Equal(t, base, receiveSnapshot(t, ch).Latest()["alice"])
}

func TestMemoryPresenceFeed_AccountsAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := feed.NewMemoryPresenceFeed()

	ch, sub, err := f.Subscribe(ctx, domain.RoleAccountTicketDesk)
	require.NoError(t, err)
	defer sub.Cancel()
	require.Empty(t, receiveSnapshot(t, ch))

	require.NoError(t, f.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "alice", LastSeenAt: time.Now()}))

	select {
	case snapshot, ok := <-ch:
		if ok {
			t.Fatalf("unexpected delivery across accounts: %v", snapshot)
		}
		t.Fatal("channel closed unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryPresenceFeed_CancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	f := feed.NewMemoryPresenceFeed()

	ch, sub, err := f.Subscribe(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	receiveSnapshot(t, ch)

	sub.Cancel()
	require.NoError(t, sub.Err())

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryLockFeed_NotifyDeliversTheCurrentRecord(t *testing.T) {
	ctx := context.Background()
	locks := repository.NewMemoryRoleLockRepository()
	f := feed.NewMemoryLockFeed(locks)

	ch, sub, err := f.Subscribe(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	defer sub.Cancel()

	// the initial delivery for an untouched account is the empty record
	initial := receiveRecord(t, ch)
	require.Empty(t, initial.Entries)

	require.NoError(t, locks.UpsertEntries(ctx, domain.RoleAccountEntryGate, map[string]domain.LockEntry{
		"bob": {LockedCapabilities: []domain.Capability{domain.CapabilityScanEntry}, Reason: domain.ReasonSuspension},
	}))
	require.NoError(t, f.Notify(ctx, domain.RoleAccountEntryGate))

	record := receiveRecord(t, ch)
	require.Equal(t, []domain.Capability{domain.CapabilityScanEntry}, record.CapabilitiesFor("bob"))
}
