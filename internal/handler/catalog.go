package handler

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/intent"
	"ctf-flag-bot/internal/repository"
	"ctf-flag-bot/internal/service"
)

// CatalogHandler serves the read-only challenge catalog: the listing
// keyboard and the per-challenge detail card.
type CatalogHandler struct {
	challenges *service.ChallengeService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(challenges *service.ChallengeService) *CatalogHandler {
	return &CatalogHandler{challenges: challenges}
}

// HandleViewChallenges handles /viewchallenges.
func (h *CatalogHandler) HandleViewChallenges(c tele.Context) error {
	names, err := h.challenges.ListNames(context.Background())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return c.Reply("No challenges available.")
	}
	return c.Reply("📋 Select a challenge:", challengeKeyboard(intent.DomainChal, names))
}

// HandleDetail consumes a challenge button press and renders the
// detail card. A challenge deleted between listing and selection gets
// an explicit not-found reply rather than a zero-value card.
func (h *CatalogHandler) HandleDetail(c tele.Context, name string) error {
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}

	ch, err := h.challenges.Detail(context.Background(), name)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return c.Edit(fmt.Sprintf("❗ Challenge '%s' not found.", name))
		}
		return err
	}

	return c.Edit(
		fmt.Sprintf("*%s*\nPoints: %d\n[Challenge Link](%s)", ch.Name, ch.Points, ch.Link),
		tele.ModeMarkdown,
	)
}
