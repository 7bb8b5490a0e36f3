package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/events"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/service"
)

func TestPresenceService_RecordHeartbeatUsesTheServerClock(t *testing.T) {
	directory := &fakeDirectory{members: map[domain.RoleAccount][]domain.StaffUser{
		domain.RoleAccountEntryGate: {{Username: "alice", RoleAccount: domain.RoleAccountEntryGate}},
	}}
	presenceFeed := feed.NewMemoryPresenceFeed()
	svc := service.NewPresenceService(directory, presenceFeed, events.NewInMemoryDispatcher(), zap.NewNop())

	before := time.Now()
	require.NoError(t, svc.RecordHeartbeat(context.Background(), domain.RoleAccountEntryGate, "alice"))
	after := time.Now()

	snapshot, err := presenceFeed.Snapshot(context.Background(), domain.RoleAccountEntryGate)
	require.NoError(t, err)
	latest := snapshot.Latest()
	require.Contains(t, latest, "alice")
	seen := latest["alice"]
	require.False(t, seen.Before(before))
	require.False(t, seen.After(after))
}

func TestPresenceService_RejectsUnknownAccountAndUsername(t *testing.T) {
	directory := &fakeDirectory{members: map[domain.RoleAccount][]domain.StaffUser{
		domain.RoleAccountEntryGate: {{Username: "alice", RoleAccount: domain.RoleAccountEntryGate}},
	}}
	presenceFeed := feed.NewMemoryPresenceFeed()
	svc := service.NewPresenceService(directory, presenceFeed, nil, zap.NewNop())
	ctx := context.Background()

	require.Error(t, svc.RecordHeartbeat(ctx, "mystery-desk", "alice"))
	require.Error(t, svc.RecordHeartbeat(ctx, domain.RoleAccountEntryGate, ""))
	require.Error(t, svc.RecordHeartbeat(ctx, domain.RoleAccountEntryGate, "mallory"))

	snapshot, err := presenceFeed.Snapshot(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.Empty(t, snapshot)
}

func TestPresenceService_PublishesHeartbeatEvent(t *testing.T) {
	directory := &fakeDirectory{members: map[domain.RoleAccount][]domain.StaffUser{
		domain.RoleAccountEntryGate: {{Username: "alice", RoleAccount: domain.RoleAccountEntryGate}},
	}}
	dispatcher := events.NewInMemoryDispatcher()

	var recorded []events.Event
	dispatcher.Subscribe(events.EventHeartbeatRecorded, func(_ context.Context, event events.Event) error {
		recorded = append(recorded, event)
		return nil
	})

	svc := service.NewPresenceService(directory, feed.NewMemoryPresenceFeed(), dispatcher, zap.NewNop())
	require.NoError(t, svc.RecordHeartbeat(context.Background(), domain.RoleAccountEntryGate, "alice"))

	require.Len(t, recorded, 1)
	require.Equal(t, domain.RoleAccountEntryGate, recorded[0].RoleAccount)
	require.Equal(t, "alice", recorded[0].Actor)
}
