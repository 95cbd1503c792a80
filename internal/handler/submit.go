package handler

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/intent"
	"ctf-flag-bot/internal/pkg/lock"
	"ctf-flag-bot/internal/repository"
	"ctf-flag-bot/internal/service"
	"ctf-flag-bot/internal/session"
)

// SubmitHandler drives the flag submission flow:
// Idle → SelectChallenge → AwaitFlag → Idle.
// One guess per invocation; retrying means re-running /submit.
type SubmitHandler struct {
	account    *service.AccountService
	submission *service.SubmissionService
	sessions   *session.Store
	media      *Media
	userLock   *lock.UserLock
}

// NewSubmitHandler creates a new SubmitHandler.
func NewSubmitHandler(
	account *service.AccountService,
	submission *service.SubmissionService,
	sessions *session.Store,
	media *Media,
	userLock *lock.UserLock,
) *SubmitHandler {
	return &SubmitHandler{
		account:    account,
		submission: submission,
		sessions:   sessions,
		media:      media,
		userLock:   userLock,
	}
}

// HandleSubmit handles /submit: ensures the user exists, presents the
// unsolved challenges and moves the flow to SelectChallenge.
func (h *SubmitHandler) HandleSubmit(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	key, ok := sessionKey(c)
	if sender == nil || !ok {
		return nil
	}

	if _, err := h.account.EnsureUser(ctx, sender.ID, sender.Username); err != nil {
		return err
	}

	unsolved, err := h.submission.Unsolved(ctx, sender.ID)
	if err != nil {
		return err
	}
	if len(unsolved) == 0 {
		h.sessions.Clear(key)
		return c.Reply("🎉 All challenges solved!")
	}

	h.sessions.Set(key, session.State{Stage: session.StageSelectChallenge})
	return c.Reply(
		"📋 Select a challenge to submit:",
		challengeKeyboard(intent.DomainPick, unsolved),
	)
}

// HandlePick consumes a challenge-selection button press. The picked
// name becomes the flow's working context; a second pick before the
// flag arrives simply overwrites it (last write wins).
func (h *SubmitHandler) HandlePick(c tele.Context, name string) error {
	key, ok := sessionKey(c)
	if !ok {
		return nil
	}

	st := h.sessions.Get(key)
	if st.Stage != session.StageSelectChallenge && st.Stage != session.StageAwaitFlag {
		return c.Respond(&tele.CallbackResponse{Text: "Start with /submit"})
	}

	h.sessions.Set(key, session.State{Stage: session.StageAwaitFlag, Challenge: name})

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	return c.Edit(
		fmt.Sprintf("🚩 Submit flag for *%s*:\n_Please send only the flag._", name),
		tele.ModeMarkdown,
	)
}

// HandleFlagText consumes the flag text while the flow waits in
// AwaitFlag. The flow terminates whatever the verdict is.
func (h *SubmitHandler) HandleFlagText(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	key, ok := sessionKey(c)
	if sender == nil || !ok {
		return nil
	}

	st := h.sessions.Get(key)
	h.sessions.Clear(key)

	var verdict *service.Verdict
	err := h.userLock.WithLock(sender.ID, func() error {
		var err error
		verdict, err = h.submission.Submit(ctx, sender.ID, st.Challenge, c.Text())
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return c.Reply("❗ Challenge not found.")
		}
		return err
	}

	if verdict.Correct {
		if err := c.Reply(fmt.Sprintf("✅ Correct! You earned %d points for %s!", verdict.Points, st.Challenge)); err != nil {
			return err
		}
	} else {
		if err := c.Reply(fmt.Sprintf("❌ Incorrect for %s. Try again! /submit", st.Challenge)); err != nil {
			return err
		}
	}
	h.media.SendVerdict(c, verdict.Correct)
	return nil
}
