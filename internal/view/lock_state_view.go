// Package view composes the staff directory, the presence aggregator and the
// lock store into the models the admin UI renders: the per-RoleAccount editing
// view and the all-accounts status board.
package view

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/presence"
	"github.com/spec-kit/command-center/internal/repository"
)

// Row is one operator-facing line of the lock editing view.
type Row struct {
	Username           string              `json:"username"`
	DisplayName        string              `json:"display_name"`
	Online             bool                `json:"online"`
	LockedCapabilities []domain.Capability `json:"locked_capabilities"`
	Reason             domain.ReasonKind   `json:"reason,omitempty"`
	Selected           bool                `json:"selected"`
}

// Staged is the pre-populated checkbox state for the operator's edit. It is
// filled from the current entry only when exactly one username is selected;
// mixed selections reset to empty rather than showing a merged state.
type Staged struct {
	Capabilities  []domain.Capability `json:"capabilities"`
	Reason        domain.ReasonKind   `json:"reason,omitempty"`
	DurationLabel string              `json:"duration_label,omitempty"`
	Populated     bool                `json:"populated"`
}

// LockStateView maintains the editing model for one RoleAccount at a time.
// Selecting an account subscribes to its presence and lock feeds and cancels
// the previous account's subscriptions first, so a late snapshot from the old
// account can never land in the new view.
type LockStateView struct {
	directory    repository.StaffDirectory
	presenceFeed feed.PresenceFeed
	lockFeed     feed.LockFeed
	threshold    time.Duration
	reevalEvery  time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu       sync.Mutex
	account  domain.RoleAccount
	agg      *presence.Aggregator
	liveness map[string]bool
	record   domain.LockRecord
	users    []domain.StaffUser
	selected map[string]struct{}
	stale    bool

	presSub  feed.Subscription
	lockSub  feed.Subscription
	reeval   *presence.Reevaluator
	loopStop context.CancelFunc
	loopDone chan struct{}

	onChange func()
}

// ViewOption customizes a LockStateView.
type ViewOption func(*LockStateView)

// WithViewClock overrides the wall clock for tests.
func WithViewClock(now func() time.Time) ViewOption {
	return func(v *LockStateView) {
		v.now = now
	}
}

// NewLockStateView builds an unattached view; call SelectRoleAccount to bind
// it to an account.
func NewLockStateView(
	directory repository.StaffDirectory,
	presenceFeed feed.PresenceFeed,
	lockFeed feed.LockFeed,
	threshold, reevalEvery time.Duration,
	logger *zap.Logger,
	opts ...ViewOption,
) *LockStateView {
	v := &LockStateView{
		directory:    directory,
		presenceFeed: presenceFeed,
		lockFeed:     lockFeed,
		threshold:    threshold,
		reevalEvery:  reevalEvery,
		logger:       logger,
		now:          time.Now,
		selected:     map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetOnChange registers a callback invoked after every recompute, letting the
// UI layer re-render reactively. Must be set before SelectRoleAccount.
func (v *LockStateView) SetOnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// SelectRoleAccount attaches the view to an account. Any previous account's
// subscriptions and re-evaluation timer are cancelled before the new ones are
// created.
func (v *LockStateView) SelectRoleAccount(ctx context.Context, account domain.RoleAccount) error {
	if !account.Valid() {
		return errors.New("unknown role account")
	}

	v.Detach()

	users, err := v.directory.ListByRoleAccount(ctx, account)
	if err != nil {
		return err
	}

	presCh, presSub, err := v.presenceFeed.Subscribe(ctx, account)
	if err != nil {
		return err
	}
	lockCh, lockSub, err := v.lockFeed.Subscribe(ctx, account)
	if err != nil {
		presSub.Cancel()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	tick := make(chan struct{}, 1)

	v.mu.Lock()
	v.account = account
	v.agg = presence.NewAggregator(account, v.threshold, presence.WithClock(v.now))
	v.liveness = map[string]bool{}
	v.record = domain.EmptyLockRecord(account)
	v.users = users
	v.selected = map[string]struct{}{}
	v.stale = false
	v.presSub = presSub
	v.lockSub = lockSub
	v.loopStop = cancel
	v.loopDone = done
	v.reeval = presence.NewReevaluator(v.reevalEvery)
	v.mu.Unlock()

	v.reeval.Start(loopCtx, func() {
		select {
		case tick <- struct{}{}:
		default:
		}
	})

	go v.run(loopCtx, account, presCh, lockCh, tick, done)
	return nil
}

// Detach cancels the current account's subscriptions and timer. Safe to call
// when nothing is attached.
func (v *LockStateView) Detach() {
	v.mu.Lock()
	presSub, lockSub := v.presSub, v.lockSub
	reeval := v.reeval
	stop, done := v.loopStop, v.loopDone
	v.presSub, v.lockSub, v.reeval, v.loopStop, v.loopDone = nil, nil, nil, nil, nil
	v.mu.Unlock()

	if stop != nil {
		stop()
	}
	if reeval != nil {
		reeval.Stop()
	}
	if presSub != nil {
		presSub.Cancel()
	}
	if lockSub != nil {
		lockSub.Cancel()
	}
	if done != nil {
		<-done
	}
}

// run is the single reactive loop: it folds feed snapshots and staleness ticks
// into the view state until detached. A closed feed channel marks the view
// stale; each subsequent tick retries the subscription so the view converges
// after transient outages without ever clearing its last-known rows.
func (v *LockStateView) run(
	ctx context.Context,
	account domain.RoleAccount,
	presCh <-chan domain.HeartbeatSnapshot,
	lockCh <-chan domain.LockRecord,
	tick <-chan struct{},
	done chan<- struct{},
) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case snapshot, ok := <-presCh:
			if !ok {
				presCh = nil
				if ctx.Err() == nil {
					v.markStale("presence")
				}
				continue
			}
			v.mu.Lock()
			v.agg.Apply(snapshot)
			v.mu.Unlock()
			v.recompute()

		case record, ok := <-lockCh:
			if !ok {
				lockCh = nil
				if ctx.Err() == nil {
					v.markStale("locks")
				}
				continue
			}
			v.mu.Lock()
			v.record = record
			v.mu.Unlock()
			v.recompute()

		case <-tick:
			if presCh == nil {
				if ch, sub, err := v.presenceFeed.Subscribe(ctx, account); err == nil {
					presCh = ch
					v.replaceSub(&v.presSub, sub)
				}
			}
			if lockCh == nil {
				if ch, sub, err := v.lockFeed.Subscribe(ctx, account); err == nil {
					lockCh = ch
					v.replaceSub(&v.lockSub, sub)
				}
			}
			if presCh != nil && lockCh != nil {
				v.clearStale()
			}
			v.recompute()
		}
	}
}

func (v *LockStateView) replaceSub(slot *feed.Subscription, sub feed.Subscription) {
	v.mu.Lock()
	*slot = sub
	v.mu.Unlock()
}

func (v *LockStateView) markStale(source string) {
	v.mu.Lock()
	already := v.stale
	v.stale = true
	v.mu.Unlock()
	if !already {
		v.logger.Warn("view subscription lost, keeping last-known state",
			zap.String("source", source))
	}
	v.notify()
}

func (v *LockStateView) clearStale() {
	v.mu.Lock()
	v.stale = false
	v.mu.Unlock()
}

func (v *LockStateView) recompute() {
	v.mu.Lock()
	if v.agg != nil {
		v.liveness = v.agg.LivenessAt(v.now())
	}
	v.mu.Unlock()
	v.notify()
}

func (v *LockStateView) notify() {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// RoleAccount returns the currently attached account.
func (v *LockStateView) RoleAccount() domain.RoleAccount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.account
}

// Stale reports whether the view lost a subscription and may lag the store.
func (v *LockStateView) Stale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stale
}

// Rows returns the current editing rows, one per directory user of the
// attached account, sorted by username.
func (v *LockStateView) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := make([]Row, 0, len(v.users))
	for _, user := range v.users {
		caps := v.record.CapabilitiesFor(user.Username)
		row := Row{
			Username:           user.Username,
			DisplayName:        user.DisplayName,
			Online:             v.liveness[user.Username],
			LockedCapabilities: caps,
		}
		if len(caps) > 0 {
			if entry, ok := v.record.EntryFor(user.Username); ok {
				row.Reason = entry.Reason
			}
		}
		_, row.Selected = v.selected[user.Username]
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Username < rows[j].Username })
	return rows
}

// ToggleSelection flips a username in or out of the target set. Usernames not
// in the attached account's directory are ignored.
func (v *LockStateView) ToggleSelection(username string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.knownLocked(username) {
		return
	}
	if _, ok := v.selected[username]; ok {
		delete(v.selected, username)
	} else {
		v.selected[username] = struct{}{}
	}
}

// ClearSelection empties the target set.
func (v *LockStateView) ClearSelection() {
	v.mu.Lock()
	v.selected = map[string]struct{}{}
	v.mu.Unlock()
}

// SelectedUsernames returns the current target set, sorted.
func (v *LockStateView) SelectedUsernames() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	usernames := make([]string, 0, len(v.selected))
	for username := range v.selected {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

// Staged returns the pre-populated edit state for the current selection:
// filled from the existing entry when exactly one username is selected,
// empty otherwise.
func (v *LockStateView) Staged() Staged {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.selected) != 1 {
		return Staged{Capabilities: []domain.Capability{}}
	}

	var username string
	for u := range v.selected {
		username = u
	}
	entry, ok := v.record.EntryFor(username)
	if !ok {
		return Staged{Capabilities: []domain.Capability{}}
	}
	return Staged{
		Capabilities:  domain.NormalizeCapabilities(entry.LockedCapabilities),
		Reason:        entry.Reason,
		DurationLabel: entry.DurationLabel,
		Populated:     true,
	}
}

func (v *LockStateView) knownLocked(username string) bool {
	for _, user := range v.users {
		if user.Username == username {
			return true
		}
	}
	return false
}
