package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/events"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/repository"
)

// StagedChange is a proposed lock mutation awaiting confirmation. One template
// is shared by every target: same capability set, same reason and duration.
type StagedChange struct {
	ID            string              `json:"id"`
	RoleAccount   domain.RoleAccount  `json:"role_account"`
	Targets       []string            `json:"targets"`
	Capabilities  []domain.Capability `json:"capabilities"`
	Reason        domain.ReasonKind   `json:"reason"`
	DurationLabel string              `json:"duration_label,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Unlock reports whether committing this change restores full access. There
// is no separate unlock path; an unlock is the general case with an empty set.
func (c *StagedChange) Unlock() bool {
	return len(c.Capabilities) == 0
}

// AccessControlCoordinator stages, gates and commits lock changes. The commit
// verifies the confirmation secret once per batch, upserts only the targeted
// username keys, then appends one audit entry; an audit failure never rolls
// back a committed mutation.
type AccessControlCoordinator struct {
	directory   repository.StaffDirectory
	locks       repository.RoleLockRepository
	credentials repository.CredentialStore
	audit       repository.ActivityLogRepository
	lockFeed    feed.LockFeed
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time

	mu     sync.Mutex
	staged map[string]*StagedChange
}

// CoordinatorDependencies bundles the stores the coordinator needs.
type CoordinatorDependencies struct {
	Directory   repository.StaffDirectory
	Locks       repository.RoleLockRepository
	Credentials repository.CredentialStore
	Audit       repository.ActivityLogRepository
	LockFeed    feed.LockFeed
	Dispatcher  events.Dispatcher
}

// CoordinatorOption customizes the coordinator.
type CoordinatorOption func(*AccessControlCoordinator)

// WithCoordinatorClock overrides the wall clock for tests.
func WithCoordinatorClock(now func() time.Time) CoordinatorOption {
	return func(c *AccessControlCoordinator) {
		c.now = now
	}
}

// NewAccessControlCoordinator builds the coordinator.
func NewAccessControlCoordinator(deps CoordinatorDependencies, logger *zap.Logger, opts ...CoordinatorOption) *AccessControlCoordinator {
	c := &AccessControlCoordinator{
		directory:   deps.Directory,
		locks:       deps.Locks,
		credentials: deps.Credentials,
		audit:       deps.Audit,
		lockFeed:    deps.LockFeed,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         time.Now,
		staged:      map[string]*StagedChange{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProposeChange validates and stages a lock change for one or more usernames
// within a single RoleAccount. Validation happens before any remote mutation:
// an empty target set or a target outside the account is rejected here.
func (c *AccessControlCoordinator) ProposeChange(
	ctx context.Context,
	account domain.RoleAccount,
	targets []string,
	capabilities []domain.Capability,
	reason domain.ReasonKind,
	durationLabel string,
) (*StagedChange, error) {
	if !account.Valid() {
		return nil, errors.New("unknown role account")
	}
	if len(targets) == 0 {
		return nil, errors.New("no target usernames selected")
	}
	if reason == "" {
		reason = domain.ReasonBasic
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("unknown reason kind %q", reason)
	}
	for _, capability := range capabilities {
		if !capability.Valid() {
			return nil, fmt.Errorf("unknown capability %q", capability)
		}
	}

	members, err := c.directory.ListByRoleAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(members))
	for _, member := range members {
		known[member.Username] = struct{}{}
	}
	for _, target := range targets {
		if _, ok := known[target]; !ok {
			return nil, fmt.Errorf("username %q does not belong to role account %q", target, account)
		}
	}

	change := &StagedChange{
		ID:            uuid.NewString(),
		RoleAccount:   account,
		Targets:       dedupe(targets),
		Capabilities:  domain.NormalizeCapabilities(capabilities),
		Reason:        reason,
		DurationLabel: durationLabel,
		CreatedAt:     c.now(),
	}

	c.mu.Lock()
	c.staged[change.ID] = change
	c.mu.Unlock()

	return change, nil
}

// StagedByID returns a staged change, if it is still pending.
func (c *AccessControlCoordinator) StagedByID(id string) (*StagedChange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	change, ok := c.staged[id]
	return change, ok
}

// ConfirmAndCommit verifies the supplied confirmation secret and applies the
// staged change to every target username. On a secret mismatch or a store
// failure the staged change is preserved so the operator can retry; it is
// cleared only after a successful commit.
func (c *AccessControlCoordinator) ConfirmAndCommit(ctx context.Context, stagedID, suppliedSecret, actor string) (*StagedChange, error) {
	c.mu.Lock()
	change, ok := c.staged[stagedID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no staged change %q", stagedID)
	}

	secret, err := c.credentials.CurrentSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf("read confirmation secret: %w", err)
	}
	if suppliedSecret != secret {
		c.logger.Warn("lock commit rejected",
			zap.String("role_account", string(change.RoleAccount)),
			zap.String("actor", actor))
		return nil, &domain.AuthenticationError{}
	}

	committedAt := c.now()
	entries := make(map[string]domain.LockEntry, len(change.Targets))
	for _, target := range change.Targets {
		entries[target] = domain.LockEntry{
			LockedCapabilities: append([]domain.Capability{}, change.Capabilities...),
			Reason:             change.Reason,
			DurationLabel:      change.DurationLabel,
			UpdatedAt:          committedAt,
		}
	}

	if err := c.locks.UpsertEntries(ctx, change.RoleAccount, entries); err != nil {
		return nil, &domain.CommitError{Err: err}
	}

	c.appendAudit(ctx, change, actor, committedAt)

	if err := c.lockFeed.Notify(ctx, change.RoleAccount); err != nil {
		c.logger.Warn("lock change notification failed; views converge on next refresh",
			zap.String("role_account", string(change.RoleAccount)),
			zap.Error(err))
	}
	c.publishCommitted(ctx, change, actor, committedAt)

	c.mu.Lock()
	delete(c.staged, stagedID)
	c.mu.Unlock()

	c.logger.Info("lock change committed",
		zap.String("role_account", string(change.RoleAccount)),
		zap.Strings("targets", change.Targets),
		zap.Int("locked_capabilities", len(change.Capabilities)),
		zap.String("actor", actor))
	return change, nil
}

// Discard drops a staged change without committing it.
func (c *AccessControlCoordinator) Discard(stagedID string) {
	c.mu.Lock()
	delete(c.staged, stagedID)
	c.mu.Unlock()
}

func (c *AccessControlCoordinator) appendAudit(ctx context.Context, change *StagedChange, actor string, committedAt time.Time) {
	action := domain.ActionAccessLock
	details := fmt.Sprintf("Restricted %s for %s (%s)",
		joinCapabilities(change.Capabilities),
		strings.Join(change.Targets, ", "),
		change.Reason)
	if change.Unlock() {
		action = domain.ActionAccessUnlock
		details = fmt.Sprintf("Restored full access for %s", strings.Join(change.Targets, ", "))
	}

	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Username:  actor,
		Details:   details,
		Timestamp: committedAt,
	}
	if err := c.audit.Append(ctx, entry); err != nil {
		// The mutation already succeeded; the trail entry is lost, not the lock.
		c.logger.Error("audit append failed",
			zap.String("action", string(action)),
			zap.String("details", details),
			zap.Error(err))
	}
}

func (c *AccessControlCoordinator) publishCommitted(ctx context.Context, change *StagedChange, actor string, committedAt time.Time) {
	if c.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventLockCommitted,
		RoleAccount: change.RoleAccount,
		Actor:       actor,
		Timestamp:   committedAt,
		Payload: events.LockCommittedPayload{
			Targets:       change.Targets,
			Capabilities:  change.Capabilities,
			Reason:        change.Reason,
			DurationLabel: change.DurationLabel,
			Unlock:        change.Unlock(),
		},
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("lock event handlers failed", zap.Error(err))
	}
}

func joinCapabilities(capabilities []domain.Capability) string {
	if len(capabilities) == 0 {
		return "nothing"
	}
	names := make([]string, len(capabilities))
	for i, capability := range capabilities {
		names[i] = string(capability)
	}
	return strings.Join(names, ", ")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
