// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	tele "gopkg.in/telebot.v3"

	"ctf-flag-bot/internal/intent"
)

// challengeKeyboard builds a one-button-per-row keyboard of challenge
// names, each carrying a "<domain>:<name>" payload.
func challengeKeyboard(domain string, names []string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([][]tele.InlineButton, 0, len(names))
	for _, name := range names {
		rows = append(rows, []tele.InlineButton{{
			Text: name,
			Data: intent.EncodeValue(domain, name),
		}})
	}
	markup.InlineKeyboard = rows
	return markup
}

// labelledKeyboard is challengeKeyboard with per-button display texts
// that differ from the payload value (used by the bloods report).
func labelledKeyboard(domain string, labels, values []string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([][]tele.InlineButton, 0, len(values))
	for i, value := range values {
		rows = append(rows, []tele.InlineButton{{
			Text: labels[i],
			Data: intent.EncodeValue(domain, value),
		}})
	}
	markup.InlineKeyboard = rows
	return markup
}

// navKeyboard builds the prev/next row for a snapshot page. Returns
// nil when there is nothing to navigate to.
func navKeyboard(domain string, page int, hasPrev, hasNext bool) *tele.ReplyMarkup {
	var row []tele.InlineButton
	if hasPrev {
		row = append(row, tele.InlineButton{
			Text: "⬅️ Prev",
			Data: intent.EncodePage(domain, page-1),
		})
	}
	if hasNext {
		row = append(row, tele.InlineButton{
			Text: "Next ➡️",
			Data: intent.EncodePage(domain, page+1),
		})
	}
	if len(row) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{row}}
}
