package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/command-center/internal/domain"
)

// EventSettingsRepository reads the shared event configuration document. The
// confirmation secret lives in the same document, which is exactly how the
// dashboard stores it; CurrentSecret is split out so the coordinator depends
// only on the credential read.
type EventSettingsRepository interface {
	Get(ctx context.Context) (domain.EventSettings, error)
	CurrentSecret(ctx context.Context) (string, error)
}

// CredentialStore is the narrow credential view the commit path needs.
type CredentialStore interface {
	CurrentSecret(ctx context.Context) (string, error)
}

type eventSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewEventSettingsRepository returns a Postgres-backed implementation. The
// settings table holds exactly one row.
func NewEventSettingsRepository(pool *pgxpool.Pool) EventSettingsRepository {
	return &eventSettingsRepository{pool: pool}
}

func (r *eventSettingsRepository) Get(ctx context.Context) (domain.EventSettings, error) {
	const query = `
        SELECT name, venue, deadline, confirmation_secret, updated_at
        FROM event_settings LIMIT 1`

	var settings domain.EventSettings
	if err := r.pool.QueryRow(ctx, query).Scan(
		&settings.Name,
		&settings.Venue,
		&settings.Deadline,
		&settings.ConfirmationSecret,
		&settings.UpdatedAt,
	); err != nil {
		return domain.EventSettings{}, err
	}
	return settings, nil
}

func (r *eventSettingsRepository) CurrentSecret(ctx context.Context) (string, error) {
	const query = `SELECT confirmation_secret FROM event_settings LIMIT 1`

	var secret string
	if err := r.pool.QueryRow(ctx, query).Scan(&secret); err != nil {
		return "", err
	}
	return secret, nil
}
