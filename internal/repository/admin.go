package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository handles the admin allow-list. Handles are stored
// already normalized (no leading "@").
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository instance.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// Grant adds a handle to the allow-list. Granting an existing admin
// again is a no-op.
func (r *AdminRepository) Grant(ctx context.Context, handle string) error {
	const query = `
		INSERT INTO admins (handle, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (handle) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, handle); err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	return nil
}

// Exists reports whether a handle is on the allow-list. The match is
// exact-string.
func (r *AdminRepository) Exists(ctx context.Context, handle string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM admins WHERE handle = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, handle).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return exists, nil
}
