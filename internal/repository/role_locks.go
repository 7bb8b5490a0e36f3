package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/command-center/internal/domain"
)

// RoleLockRepository persists the per-RoleAccount lock record. UpsertEntries
// has field-level semantics: it touches only the submitted username keys,
// creating the record if it does not exist yet and never clobbering entries it
// was not asked to change.
type RoleLockRepository interface {
	Get(ctx context.Context, account domain.RoleAccount) (domain.LockRecord, error)
	UpsertEntries(ctx context.Context, account domain.RoleAccount, entries map[string]domain.LockEntry) error
}

type roleLockRepository struct {
	pool *pgxpool.Pool
}

// NewRoleLockRepository returns a Postgres-backed implementation.
func NewRoleLockRepository(pool *pgxpool.Pool) RoleLockRepository {
	return &roleLockRepository{pool: pool}
}

// Get returns the record for the account. An absent row reads as the empty
// record; callers never see a "missing" state.
func (r *roleLockRepository) Get(ctx context.Context, account domain.RoleAccount) (domain.LockRecord, error) {
	const query = `SELECT entries FROM lock_records WHERE role_account=$1`

	var raw []byte
	if err := r.pool.QueryRow(ctx, query, account).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EmptyLockRecord(account), nil
		}
		return domain.LockRecord{}, err
	}

	entries := map[string]domain.LockEntry{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return domain.LockRecord{}, err
		}
	}
	return domain.LockRecord{RoleAccount: account, Entries: entries}, nil
}

// UpsertEntries merges the submitted entries into the account's record. The
// jsonb || concatenation replaces exactly the submitted keys, so concurrent
// writers targeting disjoint usernames do not conflict; writers targeting the
// same username race last-write-wins at that key.
func (r *roleLockRepository) UpsertEntries(ctx context.Context, account domain.RoleAccount, entries map[string]domain.LockEntry) error {
	if len(entries) == 0 {
		return errors.New("no lock entries to upsert")
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO lock_records (role_account, entries, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (role_account)
        DO UPDATE SET entries = lock_records.entries || EXCLUDED.entries, updated_at = NOW()`

	_, err = r.pool.Exec(ctx, query, account, payload)
	return err
}
