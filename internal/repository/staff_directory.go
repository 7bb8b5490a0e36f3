package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/command-center/internal/domain"
)

// StaffDirectory reads the username -> role-account mapping. Staff users are
// maintained by the console subsystem; this service never mutates them.
type StaffDirectory interface {
	ListByRoleAccount(ctx context.Context, account domain.RoleAccount) ([]domain.StaffUser, error)
	ListAll(ctx context.Context) ([]domain.StaffUser, error)
}

type staffDirectory struct {
	pool *pgxpool.Pool
}

// NewStaffDirectory returns a Postgres-backed implementation.
func NewStaffDirectory(pool *pgxpool.Pool) StaffDirectory {
	return &staffDirectory{pool: pool}
}

func (r *staffDirectory) ListByRoleAccount(ctx context.Context, account domain.RoleAccount) ([]domain.StaffUser, error) {
	const query = `
        SELECT username, display_name, role_account
        FROM staff_users WHERE role_account=$1 ORDER BY username`
	rows, err := r.pool.Query(ctx, query, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffUser
	for rows.Next() {
		var user domain.StaffUser
		if err := rows.Scan(&user.Username, &user.DisplayName, &user.RoleAccount); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *staffDirectory) ListAll(ctx context.Context) ([]domain.StaffUser, error) {
	const query = `
        SELECT username, display_name, role_account
        FROM staff_users ORDER BY role_account, username`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffUser
	for rows.Next() {
		var user domain.StaffUser
		if err := rows.Scan(&user.Username, &user.DisplayName, &user.RoleAccount); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
