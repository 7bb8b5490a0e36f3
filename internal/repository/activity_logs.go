package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/command-center/internal/domain"
)

// ActivityLogRepository is the append-only activity log shared with the rest
// of the dashboard. The lock control plane only appends to it and reads the
// recent tail for the audit view.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository returns a Postgres-backed implementation.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO activity_logs (id, action, username, details, timestamp)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Action,
		entry.Username,
		entry.Details,
		entry.Timestamp,
	)
	return err
}

func (r *activityLogRepository) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, action, username, details, timestamp
        FROM activity_logs ORDER BY timestamp DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.Username,
			&entry.Details,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
