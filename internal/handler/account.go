package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/pkg/pager"
	"ctf-flag-bot/internal/service"
	"ctf-flag-bot/internal/session"
)

// sessionKey derives the (user, chat) conversation key of an update.
func sessionKey(c tele.Context) (session.Key, bool) {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return session.Key{}, false
	}
	return session.Key{UserID: sender.ID, ChatID: chat.ID}, true
}

// pagerKey mirrors sessionKey for the snapshot store.
func pagerKey(c tele.Context) (pager.Key, bool) {
	k, ok := sessionKey(c)
	return pager.Key{UserID: k.UserID, ChatID: k.ChatID}, ok
}

// AccountHandler handles the account-level commands: start, help,
// own-points check and flow cancellation.
type AccountHandler struct {
	account  *service.AccountService
	sessions *session.Store
	snaps    *pager.Store
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(account *service.AccountService, sessions *session.Store, snaps *pager.Store) *AccountHandler {
	return &AccountHandler{account: account, sessions: sessions, snaps: snaps}
}

// HandleStart handles /start: welcome text plus a lazy user upsert so
// the sender appears on the leaderboard from their first contact.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, err := h.account.EnsureUser(context.Background(), sender.ID, sender.Username); err != nil {
		return err
	}

	return c.Reply(
		"👋 Welcome to the CTF flag bot 👾\n" +
			"Submit flags for CTF challenges, earn points and climb the leaderboard.\n\n" +
			"🎗 Flag submission\n" +
			"🎗 View challenges\n" +
			"🎗 Earn points\n" +
			"🎗 Leaderboard\n\n" +
			"Type / to see all commands, or:\n" +
			"/help – View all the commands\n" +
			"/submit – Start flag submission\n" +
			"/myviewpoints – View your points\n" +
			"/viewchallenges – List all challenges\n" +
			"/leaderboard – View top users\n" +
			"/cancel – Cancel current operation",
	)
}

// HandleHelp handles /help.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	return c.Reply(
		"/submit – Start flag submission\n" +
			"/myviewpoints – View your points\n" +
			"/viewchallenges – List all challenges\n" +
			"/leaderboard – View top users\n" +
			"/bloods – Solver counts per challenge\n" +
			"/addflag – (Admin) Add/update a challenge\n" +
			"/addnewadmins <username> – (Admin) Grant admin rights\n" +
			"/delete <challenge> – (Admin) Delete a challenge\n" +
			"/viewpoints – (Admin) View all users' points\n" +
			"/viewusers – (Admin) View registered users\n" +
			"/viewsubmissions – (Admin) View submissions log\n" +
			"/cancel – Cancel current operation",
	)
}

// HandleMyPoints handles /myviewpoints.
func (h *AccountHandler) HandleMyPoints(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	points, err := h.account.GetPoints(context.Background(), sender.ID)
	if err != nil {
		return err
	}

	name := sender.Username
	if name == "" {
		name = sender.FirstName
	}
	return c.Reply(fmt.Sprintf("👤 @%s, you have %d points.", name, points))
}

// HandleCancel handles /cancel: clears any in-progress flow for this
// (user, chat) pair along with its frozen report snapshots, returning
// the conversation to idle.
func (h *AccountHandler) HandleCancel(c tele.Context) error {
	if key, ok := sessionKey(c); ok {
		h.sessions.Clear(key)
	}
	if key, ok := pagerKey(c); ok {
		h.snaps.Drop(key)
	}
	return c.Reply("❎ Operation cancelled.")
}
