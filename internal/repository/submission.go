package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ctf-flag-bot/internal/model"
)

// SubmissionRepository handles the append-only submission log.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository instance.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create appends one submission row, correct or not.
func (r *SubmissionRepository) Create(ctx context.Context, userID int64, challenge, flag string, correct bool) (*model.Submission, error) {
	const query = `
		INSERT INTO submissions (user_id, challenge, submitted_flag, correct, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, user_id, challenge, submitted_flag, correct, created_at
	`

	var sub model.Submission
	err := r.pool.QueryRow(ctx, query, userID, challenge, flag, correct).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Challenge,
		&sub.Flag,
		&sub.Correct,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return &sub, nil
}

// SolvedNames returns the distinct challenge names the user has at
// least one correct submission for, in lexicographic order.
func (r *SubmissionRepository) SolvedNames(ctx context.Context, userID int64) ([]string, error) {
	const query = `
		SELECT DISTINCT challenge
		FROM submissions
		WHERE user_id = $1 AND correct
		ORDER BY challenge ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query solved challenges: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan solved challenge: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solved challenges: %w", err)
	}
	return names, nil
}

// Log returns the full submission log joined with submitter handles,
// newest first.
func (r *SubmissionRepository) Log(ctx context.Context) ([]*model.SubmissionEntry, error) {
	const query = `
		SELECT u.handle, s.challenge, s.submitted_flag, s.correct, s.created_at
		FROM submissions s
		JOIN users u ON s.user_id = u.telegram_id
		ORDER BY s.created_at DESC, s.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission log: %w", err)
	}
	defer rows.Close()

	var entries []*model.SubmissionEntry
	for rows.Next() {
		var e model.SubmissionEntry
		if err := rows.Scan(&e.Handle, &e.Challenge, &e.Flag, &e.Correct, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission log: %w", err)
	}
	return entries, nil
}

// BloodCounts returns, per challenge, the count of distinct users with
// at least one correct submission. Challenges are ordered by name.
func (r *SubmissionRepository) BloodCounts(ctx context.Context) ([]*model.BloodCount, error) {
	const query = `
		SELECT challenge, COUNT(DISTINCT user_id) AS solvers
		FROM submissions
		WHERE correct
		GROUP BY challenge
		ORDER BY challenge ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query blood counts: %w", err)
	}
	defer rows.Close()

	var counts []*model.BloodCount
	for rows.Next() {
		var c model.BloodCount
		if err := rows.Scan(&c.Challenge, &c.Solvers); err != nil {
			return nil, fmt.Errorf("failed to scan blood count: %w", err)
		}
		counts = append(counts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blood counts: %w", err)
	}
	return counts, nil
}

// Solvers returns the distinct solvers of one challenge ordered by
// their earliest correct submission; the first row is the first blood.
func (r *SubmissionRepository) Solvers(ctx context.Context, challenge string) ([]*model.Solver, error) {
	const query = `
		SELECT s.user_id, u.handle, MIN(s.created_at) AS solved_at
		FROM submissions s
		JOIN users u ON s.user_id = u.telegram_id
		WHERE s.challenge = $1 AND s.correct
		GROUP BY s.user_id, u.handle
		ORDER BY solved_at ASC, s.user_id ASC
	`

	rows, err := r.pool.Query(ctx, query, challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to query solvers: %w", err)
	}
	defer rows.Close()

	var solvers []*model.Solver
	for rows.Next() {
		var s model.Solver
		if err := rows.Scan(&s.TelegramID, &s.Handle, &s.SolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solver: %w", err)
		}
		solvers = append(solvers, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solvers: %w", err)
	}
	return solvers, nil
}
