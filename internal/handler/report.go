package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/config"
	"ctf-flag-bot/internal/intent"
	"ctf-flag-bot/internal/pkg/pager"
	"ctf-flag-bot/internal/pkg/retry"
	"ctf-flag-bot/internal/service"
)

const timeLayout = "2006-01-02 15:04"

// ReportHandler serves the aggregate views. Each command captures its
// result once into a snapshot; the prev/next buttons re-slice that
// frozen snapshot until the command is issued again.
type ReportHandler struct {
	reports    *service.ReportService
	snaps      *pager.Store
	lbSize     int
	reportSize int
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *service.ReportService, snaps *pager.Store, cfg *config.PagingConfig) *ReportHandler {
	return &ReportHandler{
		reports:    reports,
		snaps:      snaps,
		lbSize:     cfg.LeaderboardPageSize,
		reportSize: cfg.ReportPageSize,
	}
}

// displayHandle falls back to the numeric ID for users whose Telegram
// account carries no username.
func displayHandle(handle string, id int64) string {
	if handle == "" {
		return fmt.Sprintf("<%d>", id)
	}
	return "@" + handle
}

// replySnapshot stores the snapshot and sends its first page.
func (h *ReportHandler) replySnapshot(c tele.Context, domain string, snap *pager.Snapshot) error {
	key, ok := pagerKey(c)
	if !ok {
		return nil
	}
	h.snaps.Put(key, domain, snap)

	markup := navKeyboard(domain, 0, snap.HasPrev(0), snap.HasNext(0))
	if markup == nil {
		return c.Reply(snap.Render(0))
	}
	return c.Reply(snap.Render(0), markup)
}

// HandleLeaderboard handles /leaderboard.
func (h *ReportHandler) HandleLeaderboard(c tele.Context) error {
	entries, err := h.reports.Leaderboard(context.Background())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return c.Reply("No users on the leaderboard yet.")
	}

	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s — %d pts", i+1, displayHandle(e.Handle, e.TelegramID), e.Points))
	}
	return h.replySnapshot(c, intent.DomainLeaderboard, &pager.Snapshot{
		Title:    "🏅 Leaderboard 🏅",
		Lines:    lines,
		PageSize: h.lbSize,
	})
}

// HandleViewUsers handles /viewusers (admin).
func (h *ReportHandler) HandleViewUsers(c tele.Context) error {
	users, err := h.reports.Users(context.Background())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return c.Reply("No registered users yet.")
	}

	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("%d: %s", u.TelegramID, displayHandle(u.Handle, u.TelegramID)))
	}
	return h.replySnapshot(c, intent.DomainUsers, &pager.Snapshot{
		Title:    "👥 Registered Users:",
		Lines:    lines,
		PageSize: h.reportSize,
	})
}

// HandleViewSubmissions handles /viewsubmissions (admin).
func (h *ReportHandler) HandleViewSubmissions(c tele.Context) error {
	entries, err := h.reports.SubmissionLog(context.Background())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return c.Reply("No submissions yet.")
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		status := "Wrong"
		if e.Correct {
			status = "Correct"
		}
		lines = append(lines, fmt.Sprintf(
			"%s - @%s - %s - %s - %s",
			e.CreatedAt.UTC().Format(timeLayout), e.Handle, e.Challenge, e.Flag, status,
		))
	}
	return h.replySnapshot(c, intent.DomainSubmissions, &pager.Snapshot{
		Title:    "📝 Submissions:",
		Lines:    lines,
		PageSize: h.reportSize,
	})
}

// HandleViewPoints handles /viewpoints (admin): every user's points in
// rank order, as one message.
func (h *ReportHandler) HandleViewPoints(c tele.Context) error {
	entries, err := h.reports.Leaderboard(context.Background())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return c.Reply("No users yet.")
	}

	msg := "🏆 Users Points:\n"
	for _, e := range entries {
		msg += fmt.Sprintf("%s: %d\n", displayHandle(e.Handle, e.TelegramID), e.Points)
	}
	return c.Reply(msg)
}

// HandleBloods handles /bloods: per-challenge distinct solver counts,
// alphabetically, each selectable for the solver list.
func (h *ReportHandler) HandleBloods(c tele.Context) error {
	counts, err := h.reports.Bloods(context.Background())
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return c.Reply("No correct submissions yet.")
	}

	labels := make([]string, 0, len(counts))
	values := make([]string, 0, len(counts))
	for _, bc := range counts {
		noun := "solvers"
		if bc.Solvers == 1 {
			noun = "solver"
		}
		labels = append(labels, fmt.Sprintf("%s — %d %s", bc.Challenge, bc.Solvers, noun))
		values = append(values, bc.Challenge)
	}
	return c.Reply(
		"🩸 Bloods — pick a challenge:",
		labelledKeyboard(intent.DomainBlood, labels, values),
	)
}

// HandleBloodDetail consumes a bloods button press and renders the
// ordered solver list with the first blood labelled.
func (h *ReportHandler) HandleBloodDetail(c tele.Context, name string) error {
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}

	solvers, err := h.reports.Solvers(context.Background(), name)
	if err != nil {
		return err
	}
	if len(solvers) == 0 {
		return c.Edit(fmt.Sprintf("No solvers yet for '%s'.", name))
	}

	msg := fmt.Sprintf("🩸 Solvers of %s:\n", name)
	for i, s := range solvers {
		who := displayHandle(s.Handle, s.TelegramID)
		when := s.SolvedAt.UTC().Format(timeLayout)
		if i == 0 {
			msg += fmt.Sprintf("🥇 1. %s — first to solve (%s)\n", who, when)
		} else {
			msg += fmt.Sprintf("%d. %s (%s)\n", i+1, who, when)
		}
	}
	return c.Edit(msg)
}

// HandlePage consumes a prev/next button press: re-slices the stored
// snapshot and edits the message in place. Edits are idempotent, so
// transient delivery failures get a bounded retry.
func (h *ReportHandler) HandlePage(c tele.Context, domain string, page int) error {
	key, ok := pagerKey(c)
	if !ok {
		return nil
	}

	snap, found := h.snaps.Get(key, domain)
	if !found {
		return c.Respond(&tele.CallbackResponse{Text: "This view expired, run the command again."})
	}
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}

	page = snap.Clamp(page)
	markup := navKeyboard(domain, page, snap.HasPrev(page), snap.HasNext(page))

	return retry.Do(retry.DefaultAttempts, retry.DefaultDelay, func() error {
		if markup == nil {
			return c.Edit(snap.Render(page))
		}
		return c.Edit(snap.Render(page), markup)
	})
}
