package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/repository"
	"ctf-flag-bot/internal/service"
)

// AdminHandler handles the argument-taking admin commands: granting
// admin rights and deleting challenges. Both are behind the admin
// middleware.
type AdminHandler struct {
	auth       *service.AuthService
	challenges *service.ChallengeService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(auth *service.AuthService, challenges *service.ChallengeService) *AdminHandler {
	return &AdminHandler{auth: auth, challenges: challenges}
}

// HandleAddAdmin handles /addnewadmins <username>.
func (h *AdminHandler) HandleAddAdmin(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("❗ Usage: /addnewadmins <username>")
	}

	handle, err := h.auth.GrantAdmin(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, service.ErrEmptyHandle) {
			return c.Reply("❗ Usage: /addnewadmins <username>")
		}
		return err
	}

	log.Info().
		Str("granted_by", c.Sender().Username).
		Str("new_admin", handle).
		Msg("Admin granted")
	return c.Reply(fmt.Sprintf("✅ @%s is now an admin.", handle))
}

// HandleDelete handles /delete <challenge>: the transactional cascade
// that removes the challenge, its submissions and the points it had
// awarded.
func (h *AdminHandler) HandleDelete(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /delete <challenge>")
	}
	name := args[0]

	_, _, err := h.challenges.Delete(context.Background(), name)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return c.Reply(fmt.Sprintf("❗ Challenge '%s' does not exist.", name))
		}
		return err
	}
	return c.Reply(fmt.Sprintf("✅ Challenge '%s' and all related data deleted.", name))
}
