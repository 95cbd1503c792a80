package handler

import (
	"math/rand"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/config"
)

// Media holds the animation pools sent with submission verdicts, one
// pool per outcome.
type Media struct {
	correct []string
	wrong   []string
}

// NewMedia creates a Media from configuration.
func NewMedia(cfg *config.MediaConfig) *Media {
	return &Media{
		correct: cfg.CorrectGIFs,
		wrong:   cfg.WrongGIFs,
	}
}

// pick selects a uniform-random URL from the pool, or "" when the
// pool is empty.
func pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.Intn(len(pool))]
}

// SendVerdict sends the verdict animation. Delivery failures degrade
// gracefully: the textual verdict was already sent, the GIF is only
// garnish.
func (m *Media) SendVerdict(c tele.Context, correct bool) {
	pool := m.wrong
	if correct {
		pool = m.correct
	}

	url := pick(pool)
	if url == "" {
		return
	}
	if err := c.Send(&tele.Animation{File: tele.FromURL(url)}); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to send verdict animation")
	}
}
