package view

import (
	"context"
	"time"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/repository"
)

// StatusEntry decorates one staff user with liveness and lock state for the
// at-a-glance monitor. LockReason doubles as the tooltip source and is empty
// when nothing is locked.
type StatusEntry struct {
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	Online      bool              `json:"online"`
	Locked      bool              `json:"locked"`
	LockReason  domain.ReasonKind `json:"lock_reason,omitempty"`
}

// RoleAccountStatus groups the entries of one shared account.
type RoleAccountStatus struct {
	RoleAccount domain.RoleAccount `json:"role_account"`
	Entries     []StatusEntry      `json:"entries"`
}

// StatusBoard is the read-only summary across every RoleAccount at once. It
// has no mutation path and no subscriptions: each Snapshot pulls the current
// heartbeats and lock records and composes them on the spot.
type StatusBoard struct {
	directory    repository.StaffDirectory
	presenceFeed feed.PresenceFeed
	locks        repository.RoleLockRepository
	threshold    time.Duration
	now          func() time.Time
}

// BoardOption customizes a StatusBoard.
type BoardOption func(*StatusBoard)

// WithBoardClock overrides the wall clock for tests.
func WithBoardClock(now func() time.Time) BoardOption {
	return func(b *StatusBoard) {
		b.now = now
	}
}

// NewStatusBoard builds the board.
func NewStatusBoard(
	directory repository.StaffDirectory,
	presenceFeed feed.PresenceFeed,
	locks repository.RoleLockRepository,
	threshold time.Duration,
	opts ...BoardOption,
) *StatusBoard {
	b := &StatusBoard{
		directory:    directory,
		presenceFeed: presenceFeed,
		locks:        locks,
		threshold:    threshold,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot composes the full board, one group per RoleAccount in the fixed
// account order.
func (b *StatusBoard) Snapshot(ctx context.Context) ([]RoleAccountStatus, error) {
	users, err := b.directory.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byAccount := map[domain.RoleAccount][]domain.StaffUser{}
	for _, user := range users {
		byAccount[user.RoleAccount] = append(byAccount[user.RoleAccount], user)
	}

	now := b.now()
	board := make([]RoleAccountStatus, 0, len(domain.RoleAccounts()))
	for _, account := range domain.RoleAccounts() {
		snapshot, err := b.presenceFeed.Snapshot(ctx, account)
		if err != nil {
			return nil, err
		}
		record, err := b.locks.Get(ctx, account)
		if err != nil {
			return nil, err
		}

		latest := snapshot.Latest()
		entries := make([]StatusEntry, 0, len(byAccount[account]))
		for _, user := range byAccount[account] {
			entry := StatusEntry{
				Username:    user.Username,
				DisplayName: user.DisplayName,
				Locked:      record.HasActiveLock(user.Username),
			}
			if seen, ok := latest[user.Username]; ok {
				entry.Online = now.Sub(seen) < b.threshold
			}
			if entry.Locked {
				if lockEntry, ok := record.EntryFor(user.Username); ok {
					entry.LockReason = lockEntry.Reason
				}
			}
			entries = append(entries, entry)
		}
		board = append(board, RoleAccountStatus{RoleAccount: account, Entries: entries})
	}
	return board, nil
}
