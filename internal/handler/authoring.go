package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/service"
	"ctf-flag-bot/internal/session"
)

// AuthoringHandler drives the admin challenge-authoring flow:
// Idle → Name → Points → Link → Flag → Idle.
// Entry is admin-gated by middleware; an invalid points value keeps
// the flow in the Points step for retry instead of aborting.
type AuthoringHandler struct {
	challenges *service.ChallengeService
	sessions   *session.Store
}

// NewAuthoringHandler creates a new AuthoringHandler.
func NewAuthoringHandler(challenges *service.ChallengeService, sessions *session.Store) *AuthoringHandler {
	return &AuthoringHandler{challenges: challenges, sessions: sessions}
}

// HandleAddFlag handles /addflag and opens the flow.
func (h *AuthoringHandler) HandleAddFlag(c tele.Context) error {
	key, ok := sessionKey(c)
	if !ok {
		return nil
	}

	h.sessions.Set(key, session.State{Stage: session.StageAuthorName})
	return c.Reply("📝 Enter challenge name:")
}

// HandleStep consumes one text answer of the authoring flow and
// advances (or, for a malformed points value, holds) the state.
func (h *AuthoringHandler) HandleStep(c tele.Context, st session.State) error {
	key, ok := sessionKey(c)
	if !ok {
		return nil
	}
	text := strings.TrimSpace(c.Text())

	switch st.Stage {
	case session.StageAuthorName:
		st.Draft.Name = text
		st.Stage = session.StageAuthorPoints
		h.sessions.Set(key, st)
		return c.Reply("🎯 Enter points value:")

	case session.StageAuthorPoints:
		points, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			// Retry in place, the flow does not advance or abort.
			h.sessions.Set(key, st)
			return c.Reply("⚠️ Please enter a valid integer for points.")
		}
		st.Draft.Points = points
		st.Stage = session.StageAuthorLink
		h.sessions.Set(key, st)
		return c.Reply("🔗 Enter the challenge link:")

	case session.StageAuthorLink:
		st.Draft.Link = text
		st.Stage = session.StageAuthorFlag
		h.sessions.Set(key, st)
		return c.Reply("🚩 Enter the correct flag string:")

	case session.StageAuthorFlag:
		h.sessions.Clear(key)
		ch, err := h.challenges.Commit(context.Background(), st.Draft.Name, text, st.Draft.Points, st.Draft.Link)
		if err != nil {
			return err
		}
		return c.Reply(fmt.Sprintf("✅ Challenge '%s' added/updated with %d points.", ch.Name, ch.Points))
	}
	return nil
}
