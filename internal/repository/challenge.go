package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ctf-flag-bot/internal/model"
)

// ChallengeRepository handles challenge data persistence. Challenges
// are keyed by their case-sensitive name.
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewChallengeRepository creates a new ChallengeRepository instance.
func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

const challengeColumns = "name, flag, points, link, created_at, updated_at"

func scanChallenge(row pgx.Row) (*model.Challenge, error) {
	var ch model.Challenge
	err := row.Scan(&ch.Name, &ch.Flag, &ch.Points, &ch.Link, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Upsert creates a challenge or fully replaces the flag, points and
// link of an existing one with the same name.
func (r *ChallengeRepository) Upsert(ctx context.Context, name, flag string, points int64, link string) (*model.Challenge, error) {
	const query = `
		INSERT INTO challenges (name, flag, points, link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET flag = EXCLUDED.flag,
		    points = EXCLUDED.points,
		    link = EXCLUDED.link,
		    updated_at = NOW()
		RETURNING ` + challengeColumns

	ch, err := scanChallenge(r.pool.QueryRow(ctx, query, name, flag, points, link))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert challenge: %w", err)
	}
	return ch, nil
}

// GetByName retrieves a challenge by name.
// Returns ErrChallengeNotFound if it does not exist.
func (r *ChallengeRepository) GetByName(ctx context.Context, name string) (*model.Challenge, error) {
	const query = `SELECT ` + challengeColumns + ` FROM challenges WHERE name = $1`

	ch, err := scanChallenge(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

// ListNames returns all challenge names in lexicographic order.
func (r *ChallengeRepository) ListNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM challenges ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan challenge name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}
	return names, nil
}

// DeleteCascade removes a challenge together with its submission rows
// and retracts the challenge's points from every user who had solved
// it. The whole cascade runs in one transaction so a crash can never
// leave a partially decremented state behind.
// Returns the challenge's point value and the number of solvers whose
// totals were reduced.
func (r *ChallengeRepository) DeleteCascade(ctx context.Context, name string) (int64, int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var points int64
	err = tx.QueryRow(ctx, `SELECT points FROM challenges WHERE name = $1`, name).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrChallengeNotFound
		}
		return 0, 0, fmt.Errorf("failed to load challenge for delete: %w", err)
	}

	res, err := tx.Exec(ctx, `
		UPDATE users
		SET points = points - $2, updated_at = NOW()
		WHERE telegram_id IN (
			SELECT DISTINCT user_id FROM submissions
			WHERE challenge = $1 AND correct
		)
	`, name, points)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to retract points: %w", err)
	}
	solvers := res.RowsAffected()

	if _, err := tx.Exec(ctx, `DELETE FROM submissions WHERE challenge = $1`, name); err != nil {
		return 0, 0, fmt.Errorf("failed to delete submissions: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM challenges WHERE name = $1`, name); err != nil {
		return 0, 0, fmt.Errorf("failed to delete challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	return points, solvers, nil
}
