package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/events"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/repository"
	"github.com/spec-kit/command-center/internal/service"
)

type fakeDirectory struct {
	members map[domain.RoleAccount][]domain.StaffUser
	calls   int
}

func (d *fakeDirectory) ListByRoleAccount(_ context.Context, account domain.RoleAccount) ([]domain.StaffUser, error) {
	d.calls++
	return d.members[account], nil
}

func (d *fakeDirectory) ListAll(context.Context) ([]domain.StaffUser, error) {
	var all []domain.StaffUser
	for _, users := range d.members {
		all = append(all, users...)
	}
	return all, nil
}

type fakeCredentials struct {
	secret string
	err    error
}

func (c *fakeCredentials) CurrentSecret(context.Context) (string, error) {
	return c.secret, c.err
}

type fakeAudit struct {
	entries []domain.AuditEntry
	failErr error
}

func (a *fakeAudit) Append(_ context.Context, entry *domain.AuditEntry) error {
	if a.failErr != nil {
		return a.failErr
	}
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *fakeAudit) Recent(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit > len(a.entries) {
		limit = len(a.entries)
	}
	return a.entries[len(a.entries)-limit:], nil
}

type fakeLockFeed struct {
	notified []domain.RoleAccount
	failErr  error
}

func (f *fakeLockFeed) Notify(_ context.Context, account domain.RoleAccount) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.notified = append(f.notified, account)
	return nil
}

func (f *fakeLockFeed) Subscribe(context.Context, domain.RoleAccount) (<-chan domain.LockRecord, feed.Subscription, error) {
	return nil, nil, errors.New("not supported")
}

// failingLocks fails a configurable number of writes before delegating.
type failingLocks struct {
	repository.RoleLockRepository
	failures int
	writes   int
}

func (l *failingLocks) UpsertEntries(ctx context.Context, account domain.RoleAccount, entries map[string]domain.LockEntry) error {
	l.writes++
	if l.failures > 0 {
		l.failures--
		return errors.New("connection reset")
	}
	return l.RoleLockRepository.UpsertEntries(ctx, account, entries)
}

type coordinatorFixture struct {
	coordinator *service.AccessControlCoordinator
	locks       *repository.MemoryRoleLockRepository
	audit       *fakeAudit
	lockFeed    *fakeLockFeed
	credentials *fakeCredentials
	dispatcher  events.Dispatcher
}

func newCoordinatorFixture(t *testing.T, opts ...service.CoordinatorOption) *coordinatorFixture {
	t.Helper()

	fx := &coordinatorFixture{
		locks:       repository.NewMemoryRoleLockRepository(),
		audit:       &fakeAudit{},
		lockFeed:    &fakeLockFeed{},
		credentials: &fakeCredentials{secret: "open-the-gates"},
		dispatcher:  events.NewInMemoryDispatcher(),
	}
	directory := &fakeDirectory{members: map[domain.RoleAccount][]domain.StaffUser{
		domain.RoleAccountEntryGate: {
			{Username: "alice", DisplayName: "Alice", RoleAccount: domain.RoleAccountEntryGate},
			{Username: "bob", DisplayName: "Bob", RoleAccount: domain.RoleAccountEntryGate},
		},
	}}
	fx.coordinator = service.NewAccessControlCoordinator(service.CoordinatorDependencies{
		Directory:   directory,
		Locks:       fx.locks,
		Credentials: fx.credentials,
		Audit:       fx.audit,
		LockFeed:    fx.lockFeed,
		Dispatcher:  fx.dispatcher,
	}, zap.NewNop(), opts...)
	return fx
}

func TestCoordinator_ProposeRejectsBeforeAnyStoreCall(t *testing.T) {
	fx := newCoordinatorFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		account domain.RoleAccount
		targets []string
		caps    []domain.Capability
		reason  domain.ReasonKind
	}{
		{"unknown account", "mystery-desk", []string{"alice"}, nil, domain.ReasonBasic},
		{"no targets", domain.RoleAccountEntryGate, nil, nil, domain.ReasonBasic},
		{"unknown reason", domain.RoleAccountEntryGate, []string{"alice"}, nil, "whim"},
		{"unknown capability", domain.RoleAccountEntryGate, []string{"alice"}, []domain.Capability{"teleport"}, domain.ReasonBasic},
		{"target outside account", domain.RoleAccountEntryGate, []string{"mallory"}, nil, domain.ReasonBasic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			change, err := fx.coordinator.ProposeChange(ctx, tc.account, tc.targets, tc.caps, tc.reason, "")
			require.Error(t, err)
			require.Nil(t, change)
		})
	}

	record, err := fx.locks.Get(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.Empty(t, record.Entries)
	require.Empty(t, fx.audit.entries)
}

func TestCoordinator_ProposeNormalizesAndStages(t *testing.T) {
	fx := newCoordinatorFixture(t)

	change, err := fx.coordinator.ProposeChange(context.Background(),
		domain.RoleAccountEntryGate,
		[]string{"bob", "alice", "bob"},
		[]domain.Capability{domain.CapabilityScanEntry, domain.CapabilityIssueTicket, domain.CapabilityScanEntry},
		"", "2 hours")
	require.NoError(t, err)
	require.NotEmpty(t, change.ID)
	require.Equal(t, []string{"bob", "alice"}, change.Targets)
	require.Equal(t, []domain.Capability{domain.CapabilityIssueTicket, domain.CapabilityScanEntry}, change.Capabilities)
	require.Equal(t, domain.ReasonBasic, change.Reason)

	staged, ok := fx.coordinator.StagedByID(change.ID)
	require.True(t, ok)
	require.Equal(t, change, staged)
}

func TestCoordinator_CommitWritesEntriesAuditAndClearsStaged(t *testing.T) {
	committedAt := time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)
	fx := newCoordinatorFixture(t, service.WithCoordinatorClock(func() time.Time { return committedAt }))
	ctx := context.Background()

	var published []events.Event
	fx.dispatcher.Subscribe(events.EventLockCommitted, func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	change, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"bob"}, []domain.Capability{domain.CapabilityScanEntry}, domain.ReasonSuspension, "")
	require.NoError(t, err)

	committed, err := fx.coordinator.ConfirmAndCommit(ctx, change.ID, "open-the-gates", "ops@venue")
	require.NoError(t, err)
	require.Equal(t, change.ID, committed.ID)

	record, err := fx.locks.Get(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.Equal(t, []domain.Capability{domain.CapabilityScanEntry}, record.CapabilitiesFor("bob"))
	require.Empty(t, record.CapabilitiesFor("alice"))

	entry, ok := record.EntryFor("bob")
	require.True(t, ok)
	require.Equal(t, domain.ReasonSuspension, entry.Reason)
	require.Equal(t, committedAt, entry.UpdatedAt)

	require.Len(t, fx.audit.entries, 1)
	require.Equal(t, domain.ActionAccessLock, fx.audit.entries[0].Action)
	require.Equal(t, "ops@venue", fx.audit.entries[0].Username)
	require.True(t, strings.Contains(fx.audit.entries[0].Details, "bob"))

	require.Equal(t, []domain.RoleAccount{domain.RoleAccountEntryGate}, fx.lockFeed.notified)
	require.Len(t, published, 1)

	_, stillStaged := fx.coordinator.StagedByID(change.ID)
	require.False(t, stillStaged)
}

func TestCoordinator_WrongSecretWritesNothingAndKeepsStaged(t *testing.T) {
	fx := newCoordinatorFixture(t)
	ctx := context.Background()

	change, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"bob"}, []domain.Capability{domain.CapabilityScanEntry}, domain.ReasonBasic, "")
	require.NoError(t, err)

	_, err = fx.coordinator.ConfirmAndCommit(ctx, change.ID, "wrong", "ops@venue")
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)

	record, getErr := fx.locks.Get(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, getErr)
	require.Empty(t, record.Entries)
	require.Empty(t, fx.audit.entries)
	require.Empty(t, fx.lockFeed.notified)

	_, stillStaged := fx.coordinator.StagedByID(change.ID)
	require.True(t, stillStaged)
}

func TestCoordinator_StoreFailureKeepsStagedForRetry(t *testing.T) {
	fx := newCoordinatorFixture(t)
	ctx := context.Background()

	flaky := &failingLocks{RoleLockRepository: fx.locks, failures: 1}
	fx.coordinator = service.NewAccessControlCoordinator(service.CoordinatorDependencies{
		Directory: &fakeDirectory{members: map[domain.RoleAccount][]domain.StaffUser{
			domain.RoleAccountEntryGate: {{Username: "bob", RoleAccount: domain.RoleAccountEntryGate}},
		}},
		Locks:       flaky,
		Credentials: fx.credentials,
		Audit:       fx.audit,
		LockFeed:    fx.lockFeed,
		Dispatcher:  fx.dispatcher,
	}, zap.NewNop())

	change, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"bob"}, []domain.Capability{domain.CapabilityScanEntry}, domain.ReasonBasic, "")
	require.NoError(t, err)

	_, err = fx.coordinator.ConfirmAndCommit(ctx, change.ID, "open-the-gates", "ops@venue")
	var commitErr *domain.CommitError
	require.ErrorAs(t, err, &commitErr)
	require.Empty(t, fx.audit.entries)

	// the same staged change can be committed again once the store recovers
	_, err = fx.coordinator.ConfirmAndCommit(ctx, change.ID, "open-the-gates", "ops@venue")
	require.NoError(t, err)
	require.Equal(t, 2, flaky.writes)

	record, err := fx.locks.Get(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.Equal(t, []domain.Capability{domain.CapabilityScanEntry}, record.CapabilitiesFor("bob"))
}

func TestCoordinator_AuditFailureDoesNotRollBackTheLock(t *testing.T) {
	fx := newCoordinatorFixture(t)
	fx.audit.failErr = errors.New("log store down")
	ctx := context.Background()

	change, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"bob"}, []domain.Capability{domain.CapabilityScanEntry}, domain.ReasonBasic, "")
	require.NoError(t, err)

	_, err = fx.coordinator.ConfirmAndCommit(ctx, change.ID, "open-the-gates", "ops@venue")
	require.NoError(t, err)

	record, err := fx.locks.Get(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.True(t, record.HasActiveLock("bob"))

	_, stillStaged := fx.coordinator.StagedByID(change.ID)
	require.False(t, stillStaged)
}

func TestCoordinator_EmptyCapabilitySetCommitsAsUnlock(t *testing.T) {
	fx := newCoordinatorFixture(t)
	ctx := context.Background()

	lock, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"bob"}, []domain.Capability{domain.CapabilityScanEntry}, domain.ReasonSuspension, "")
	require.NoError(t, err)
	_, err = fx.coordinator.ConfirmAndCommit(ctx, lock.ID, "open-the-gates", "ops@venue")
	require.NoError(t, err)

	unlock, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"bob"}, nil, domain.ReasonBasic, "")
	require.NoError(t, err)
	require.True(t, unlock.Unlock())

	_, err = fx.coordinator.ConfirmAndCommit(ctx, unlock.ID, "open-the-gates", "ops@venue")
	require.NoError(t, err)

	record, err := fx.locks.Get(ctx, domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.False(t, record.HasActiveLock("bob"))
	entry, ok := record.EntryFor("bob")
	require.True(t, ok)
	require.Empty(t, entry.LockedCapabilities)

	require.Len(t, fx.audit.entries, 2)
	require.Equal(t, domain.ActionAccessUnlock, fx.audit.entries[1].Action)
}

func TestCoordinator_DiscardDropsStagedChange(t *testing.T) {
	fx := newCoordinatorFixture(t)
	ctx := context.Background()

	change, err := fx.coordinator.ProposeChange(ctx, domain.RoleAccountEntryGate,
		[]string{"alice"}, nil, domain.ReasonBasic, "")
	require.NoError(t, err)

	fx.coordinator.Discard(change.ID)

	_, err = fx.coordinator.ConfirmAndCommit(ctx, change.ID, "open-the-gates", "ops@venue")
	require.Error(t, err)
}
