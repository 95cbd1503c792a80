// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ctf-flag-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrChallengeNotFound = errors.New("challenge not found")
)

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "telegram_id, handle, points, last_solve, created_at, updated_at"

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.TelegramID,
		&user.Handle,
		&user.Points,
		&user.LastSolve,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates a user with zero points on first sight, or refreshes
// the stored handle on later interactions. An empty handle never
// overwrites a known one.
func (r *UserRepository) Upsert(ctx context.Context, telegramID int64, handle string) (*model.User, error) {
	const query = `
		INSERT INTO users (telegram_id, handle, points, created_at, updated_at)
		VALUES ($1, $2, 0, NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE
		SET handle = CASE WHEN EXCLUDED.handle <> '' THEN EXCLUDED.handle ELSE users.handle END,
		    updated_at = NOW()
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID, handle))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, telegramID int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// AddPoints adds delta to a user's point total. When solvedAt is
// non-nil the last-solve timestamp is stamped as well.
func (r *UserRepository) AddPoints(ctx context.Context, telegramID int64, delta int64, solvedAt *time.Time) (*model.User, error) {
	const query = `
		UPDATE users
		SET points = points + $2,
		    last_solve = COALESCE($3, last_solve),
		    updated_at = NOW()
		WHERE telegram_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID, delta, solvedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	return user, nil
}

// Leaderboard returns every user ranked by points descending; on a
// point tie the earlier solver ranks first and users who never solved
// anything sort last.
func (r *UserRepository) Leaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT telegram_id, handle, points, last_solve
		FROM users
		ORDER BY points DESC, last_solve ASC NULLS LAST, telegram_id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.TelegramID, &e.Handle, &e.Points, &e.LastSolve); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}

// List returns all registered users ordered by Telegram ID.
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY telegram_id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.TelegramID,
			&user.Handle,
			&user.Points,
			&user.LastSolve,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
