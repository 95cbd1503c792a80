// Package main is the entry point for the CTF flag bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ctf-flag-bot/internal/bot"
	"ctf-flag-bot/internal/config"
	"ctf-flag-bot/internal/pkg/db"
	"ctf-flag-bot/internal/pkg/lock"
	"ctf-flag-bot/internal/pkg/pager"
	"ctf-flag-bot/internal/repository"
	"ctf-flag-bot/internal/service"
	"ctf-flag-bot/internal/session"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	challengeRepo := repository.NewChallengeRepository(dbPool.Pool)
	submissionRepo := repository.NewSubmissionRepository(dbPool.Pool)
	adminRepo := repository.NewAdminRepository(dbPool.Pool)

	// Services
	authService := service.NewAuthService(adminRepo, cfg.Admin.Handle)
	accountService := service.NewAccountService(userRepo)
	challengeService := service.NewChallengeService(challengeRepo)
	submissionService := service.NewSubmissionService(challengeRepo, submissionRepo, userRepo)
	reportService := service.NewReportService(userRepo, submissionRepo)

	deps := &bot.Dependencies{
		Config:     cfg,
		Auth:       authService,
		Account:    accountService,
		Challenge:  challengeService,
		Submission: submissionService,
		Report:     reportService,
		Sessions:   session.NewStore(),
		Snapshots:  pager.NewStore(),
		UserLock:   lock.NewUserLock(),
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			handle VARCHAR(255) NOT NULL DEFAULT '',
			points BIGINT NOT NULL DEFAULT 0,
			last_solve TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create challenges table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS challenges (
			name VARCHAR(255) PRIMARY KEY,
			flag TEXT NOT NULL,
			points BIGINT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: challenges table created")

	// Migration 3: Create submissions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS submissions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id),
			challenge VARCHAR(255) NOT NULL,
			submitted_flag TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id, challenge);
		CREATE INDEX IF NOT EXISTS idx_submissions_challenge ON submissions(challenge) WHERE correct;
		CREATE INDEX IF NOT EXISTS idx_submissions_time ON submissions(created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: submissions table created")

	// Migration 4: Create admins table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admins (
			handle VARCHAR(255) PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: admins table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
