package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/spec-kit/command-center/internal/domain"
)

// MemoryRoleLockRepository is an in-process RoleLockRepository with the same
// partial-update contract as the Postgres one. The compositional tests run the
// full view and commit flow against it.
type MemoryRoleLockRepository struct {
	mu      sync.RWMutex
	records map[domain.RoleAccount]map[string]domain.LockEntry
}

// NewMemoryRoleLockRepository creates an empty store.
func NewMemoryRoleLockRepository() *MemoryRoleLockRepository {
	return &MemoryRoleLockRepository{
		records: map[domain.RoleAccount]map[string]domain.LockEntry{},
	}
}

// Get returns a copy of the account's record, empty when no mutation has
// touched the account yet.
func (r *MemoryRoleLockRepository) Get(_ context.Context, account domain.RoleAccount) (domain.LockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.records[account]
	if !ok {
		return domain.EmptyLockRecord(account), nil
	}
	entries := make(map[string]domain.LockEntry, len(stored))
	for username, entry := range stored {
		entries[username] = entry
	}
	return domain.LockRecord{RoleAccount: account, Entries: entries}, nil
}

// UpsertEntries replaces exactly the submitted username keys, creating the
// record when absent.
func (r *MemoryRoleLockRepository) UpsertEntries(_ context.Context, account domain.RoleAccount, entries map[string]domain.LockEntry) error {
	if len(entries) == 0 {
		return errors.New("no lock entries to upsert")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[account]
	if !ok {
		stored = map[string]domain.LockEntry{}
		r.records[account] = stored
	}
	for username, entry := range entries {
		stored[username] = entry
	}
	return nil
}
