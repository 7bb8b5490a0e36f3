package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/repository"
	"github.com/spec-kit/command-center/internal/view"
)

func TestStatusBoard_SnapshotComposesPresenceAndLocks(t *testing.T) {
	base := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	ctx := context.Background()

	locks := repository.NewMemoryRoleLockRepository()
	presenceFeed := feed.NewMemoryPresenceFeed()

	require.NoError(t, presenceFeed.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "alice", LastSeenAt: base.Add(-5 * time.Second)}))
	require.NoError(t, presenceFeed.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "bob", LastSeenAt: base.Add(-90 * time.Second)}))
	require.NoError(t, locks.UpsertEntries(ctx, domain.RoleAccountEntryGate, map[string]domain.LockEntry{
		"bob": {
			LockedCapabilities: []domain.Capability{domain.CapabilityScanEntry},
			Reason:             domain.ReasonSuspension,
		},
	}))

	board := view.NewStatusBoard(entryGateDirectory(), presenceFeed, locks,
		staleAfter, view.WithBoardClock(func() time.Time { return base }))

	groups, err := board.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, groups, len(domain.RoleAccounts()))
	require.Equal(t, domain.RoleAccounts(), accountsOf(groups))

	gate := groupFor(t, groups, domain.RoleAccountEntryGate)
	require.Len(t, gate.Entries, 2)

	alice := entryFor(t, gate, "alice")
	require.True(t, alice.Online)
	require.False(t, alice.Locked)
	require.Empty(t, alice.LockReason)

	bob := entryFor(t, gate, "bob")
	require.False(t, bob.Online)
	require.True(t, bob.Locked)
	require.Equal(t, domain.ReasonSuspension, bob.LockReason)
}

func TestStatusBoard_UserWithoutHeartbeatIsOffline(t *testing.T) {
	board := view.NewStatusBoard(entryGateDirectory(), feed.NewMemoryPresenceFeed(),
		repository.NewMemoryRoleLockRepository(), staleAfter)

	groups, err := board.Snapshot(context.Background())
	require.NoError(t, err)

	desk := groupFor(t, groups, domain.RoleAccountTicketDesk)
	carol := entryFor(t, desk, "carol")
	require.False(t, carol.Online)
	require.False(t, carol.Locked)
}

func TestStatusBoard_ExactlyAtThresholdIsOffline(t *testing.T) {
	base := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	ctx := context.Background()

	presenceFeed := feed.NewMemoryPresenceFeed()
	require.NoError(t, presenceFeed.Publish(ctx, domain.RoleAccountEntryGate,
		domain.DeviceHeartbeat{Username: "alice", LastSeenAt: base.Add(-staleAfter)}))

	board := view.NewStatusBoard(entryGateDirectory(), presenceFeed,
		repository.NewMemoryRoleLockRepository(), staleAfter,
		view.WithBoardClock(func() time.Time { return base }))

	groups, err := board.Snapshot(ctx)
	require.NoError(t, err)

	gate := groupFor(t, groups, domain.RoleAccountEntryGate)
	require.False(t, entryFor(t, gate, "alice").Online)
}

func accountsOf(groups []view.RoleAccountStatus) []domain.RoleAccount {
	accounts := make([]domain.RoleAccount, len(groups))
	for i, group := range groups {
		accounts[i] = group.RoleAccount
	}
	return accounts
}

func groupFor(t *testing.T, groups []view.RoleAccountStatus, account domain.RoleAccount) view.RoleAccountStatus {
	t.Helper()
	for _, group := range groups {
		if group.RoleAccount == account {
			return group
		}
	}
	t.Fatalf("no group for account %q", account)
	return view.RoleAccountStatus{}
}

func entryFor(t *testing.T, group view.RoleAccountStatus, username string) view.StatusEntry {
	t.Helper()
	for _, entry := range group.Entries {
		if entry.Username == username {
			return entry
		}
	}
	t.Fatalf("no entry for username %q", username)
	return view.StatusEntry{}
}
