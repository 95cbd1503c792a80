// Package model defines the data models for the CTF flag bot.
package model

import "time"

// User represents a Telegram user participating in the CTF.
// Users are created lazily on first interaction with zero points.
type User struct {
	TelegramID int64      `db:"telegram_id"`
	Handle     string     `db:"handle"` // display handle, empty when Telegram has none
	Points     int64      `db:"points"`
	LastSolve  *time.Time `db:"last_solve"` // nil until the first correct submission
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// Challenge represents a named puzzle with a secret flag and a point
// reward. The name is the primary key; re-authoring the same name
// replaces the flag, points and link.
type Challenge struct {
	Name      string    `db:"name"`
	Flag      string    `db:"flag"`
	Points    int64     `db:"points"`
	Link      string    `db:"link"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Submission is one append-only log entry for a flag attempt, recorded
// regardless of correctness. Rows are immutable except for the mass
// delete that accompanies challenge deletion.
type Submission struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Challenge string    `db:"challenge"`
	Flag      string    `db:"submitted_flag"`
	Correct   bool      `db:"correct"`
	CreatedAt time.Time `db:"created_at"`
}

// Admin is an allow-list entry. Existence of a row grants admin
// rights; the configured super-admin handle grants them without a row.
type Admin struct {
	Handle    string    `db:"handle"`
	CreatedAt time.Time `db:"created_at"`
}

// LeaderboardEntry is one ranked leaderboard row: points descending,
// then earliest last solve first, never-solvers last on a tie.
type LeaderboardEntry struct {
	TelegramID int64
	Handle     string
	Points     int64
	LastSolve  *time.Time
}

// SubmissionEntry is a submission-log row joined with the submitter's
// current handle for display.
type SubmissionEntry struct {
	Handle    string
	Challenge string
	Flag      string
	Correct   bool
	CreatedAt time.Time
}

// BloodCount is the number of distinct solvers of one challenge.
type BloodCount struct {
	Challenge string
	Solvers   int64
}

// Solver is one distinct correct submitter of a challenge, ordered by
// the time of their earliest correct submission. The first entry is
// the challenge's first blood.
type Solver struct {
	TelegramID int64
	Handle     string
	SolvedAt   time.Time
}
