package bot

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/service"
)

// LoggingMiddleware logs every incoming update with its sender and
// chat context.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.Int64("chat_id", chat.ID)
			}
			logEvent.Str("text", c.Text()).Msg("Received update")

			return next(c)
		}
	}
}

// RecoveryMiddleware recovers from panics in handlers so one failing
// interaction cannot take down the dispatcher or other users' flows.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("text", c.Text()).
						Msg("Recovered from panic in handler")
				}
			}()
			return next(c)
		}
	}
}

// AdminMiddleware rejects admin-gated commands from handles that are
// neither the super-admin nor on the allow-list. Rejection produces a
// user-visible message and no state change.
func AdminMiddleware(auth *service.AuthService) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			ok, err := auth.IsAdmin(context.Background(), sender.Username)
			if err != nil {
				log.Error().Err(err).
					Int64("user_id", sender.ID).
					Msg("Admin check failed")
				return c.Reply("❌ Something went wrong, please try again later.")
			}
			if !ok {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("username", sender.Username).
					Str("command", c.Text()).
					Msg("Unauthorized admin command")
				return c.Reply("❗ You are not authorized to do that.")
			}

			return next(c)
		}
	}
}
