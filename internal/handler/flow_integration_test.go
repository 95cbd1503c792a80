// Integration tests driving the conversation flows end to end against
// a real PostgreSQL container.
package handler

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ctf-flag-bot/internal/config"
	"ctf-flag-bot/internal/pkg/lock"
	"ctf-flag-bot/internal/repository"
	"ctf-flag-bot/internal/service"
	"ctf-flag-bot/internal/session"
)

// flowEnv is the full stack under test, wired the way main.go does it.
type flowEnv struct {
	pool       *pgxpool.Pool
	sessions   *session.Store
	auth       *service.AuthService
	submission *service.SubmissionService
	challenges *service.ChallengeService
	submit     *SubmitHandler
	authoring  *AuthoringHandler

	userRepo       *repository.UserRepository
	challengeRepo  *repository.ChallengeRepository
	submissionRepo *repository.SubmissionRepository
}

func setupFlowEnv(t *testing.T) (*flowEnv, func()) {
	if err := exec.Command("docker", "info").Run(); err != nil {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		CREATE TABLE users (
			telegram_id BIGINT PRIMARY KEY,
			handle VARCHAR(255) NOT NULL DEFAULT '',
			points BIGINT NOT NULL DEFAULT 0,
			last_solve TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE challenges (
			name VARCHAR(255) PRIMARY KEY,
			flag TEXT NOT NULL,
			points BIGINT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE submissions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id),
			challenge VARCHAR(255) NOT NULL,
			submitted_flag TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE admins (
			handle VARCHAR(255) PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(pool)
	challengeRepo := repository.NewChallengeRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	account := service.NewAccountService(userRepo)
	challenges := service.NewChallengeService(challengeRepo)
	submission := service.NewSubmissionService(challengeRepo, submissionRepo, userRepo)
	sessions := session.NewStore()
	media := NewMedia(&config.MediaConfig{})

	env := &flowEnv{
		pool:           pool,
		sessions:       sessions,
		auth:           service.NewAuthService(adminRepo, "root"),
		submission:     submission,
		challenges:     challenges,
		submit:         NewSubmitHandler(account, submission, sessions, media, lock.NewUserLock()),
		authoring:      NewAuthoringHandler(challenges, sessions),
		userRepo:       userRepo,
		challengeRepo:  challengeRepo,
		submissionRepo: submissionRepo,
	}

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return env, cleanup
}

func TestSubmitFlow_WrongGuessTerminatesFlow(t *testing.T) {
	env, cleanup := setupFlowEnv(t)
	defer cleanup()
	ctx := context.Background()

	_, err := env.userRepo.Upsert(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = env.challengeRepo.Upsert(ctx, "web-01", "flag{right}", 100, "")
	require.NoError(t, err)

	key := session.Key{UserID: 1, ChatID: 10}
	env.sessions.Set(key, session.State{Stage: session.StageAwaitFlag, Challenge: "web-01"})

	c := newFlowContext(1, 10, "flag{wrong}")
	require.NoError(t, env.submit.HandleFlagText(c))
	assert.Contains(t, c.lastReply(t), "Incorrect")

	// One guess per invocation: the flow instance is gone, points are
	// untouched, and the wrong attempt is on the log.
	assert.Equal(t, session.StageIdle, env.sessions.Stage(key))

	user, err := env.userRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Points)

	log, err := env.submissionRepo.Log(ctx)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.False(t, log[0].Correct)

	// Retrying means re-entering the flow; the correct guess then
	// awards the points and terminates again.
	env.sessions.Set(key, session.State{Stage: session.StageAwaitFlag, Challenge: "web-01"})
	c = newFlowContext(1, 10, " flag{right} ")
	require.NoError(t, env.submit.HandleFlagText(c))
	assert.Contains(t, c.lastReply(t), "100 points")
	assert.Equal(t, session.StageIdle, env.sessions.Stage(key))

	user, err = env.userRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.Points)
	require.NotNil(t, user.LastSolve)
}

func TestSubmitFlow_ChallengeDeletedMidFlow(t *testing.T) {
	env, cleanup := setupFlowEnv(t)
	defer cleanup()
	ctx := context.Background()

	_, err := env.userRepo.Upsert(ctx, 1, "alice")
	require.NoError(t, err)

	key := session.Key{UserID: 1, ChatID: 10}
	env.sessions.Set(key, session.State{Stage: session.StageAwaitFlag, Challenge: "vanished"})

	c := newFlowContext(1, 10, "flag{anything}")
	require.NoError(t, env.submit.HandleFlagText(c))
	assert.Contains(t, c.lastReply(t), "not found")
	assert.Equal(t, session.StageIdle, env.sessions.Stage(key))

	// Nothing was logged for the missing challenge.
	log, err := env.submissionRepo.Log(ctx)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestAuthoringFlow_CommitPersistsChallenge(t *testing.T) {
	env, cleanup := setupFlowEnv(t)
	defer cleanup()
	ctx := context.Background()

	key := session.Key{UserID: 7, ChatID: 10}

	c := newFlowContext(7, 10, "/addflag")
	require.NoError(t, env.authoring.HandleAddFlag(c))

	for _, answer := range []string{"pwn-01", "300", "https://ctf.example/pwn-01"} {
		c = newFlowContext(7, 10, answer)
		require.NoError(t, env.authoring.HandleStep(c, env.sessions.Get(key)))
	}

	c = newFlowContext(7, 10, "flag{stack}")
	require.NoError(t, env.authoring.HandleStep(c, env.sessions.Get(key)))
	assert.Contains(t, c.lastReply(t), "pwn-01")
	assert.Contains(t, c.lastReply(t), "300")
	assert.Equal(t, session.StageIdle, env.sessions.Stage(key))

	ch, err := env.challengeRepo.GetByName(ctx, "pwn-01")
	require.NoError(t, err)
	assert.Equal(t, "flag{stack}", ch.Flag)
	assert.Equal(t, int64(300), ch.Points)
	assert.Equal(t, "https://ctf.example/pwn-01", ch.Link)
}

func TestAuthService_AllowList(t *testing.T) {
	env, cleanup := setupFlowEnv(t)
	defer cleanup()
	ctx := context.Background()

	ok, err := env.auth.IsAdmin(ctx, "eve")
	require.NoError(t, err)
	assert.False(t, ok)

	granted, err := env.auth.GrantAdmin(ctx, "@eve")
	require.NoError(t, err)
	assert.Equal(t, "eve", granted)

	// Both spellings resolve to the same allow-list entry.
	for _, handle := range []string{"eve", "@eve"} {
		ok, err := env.auth.IsAdmin(ctx, handle)
		require.NoError(t, err)
		assert.True(t, ok, handle)
	}

	ok, err = env.auth.IsAdmin(ctx, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)
}
