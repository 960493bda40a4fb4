package handlers

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "meatbot/core/telegram/helpers"
	"meatbot/core/telegram/ui"
)

var _ ui.FallbackProvider = (*Handlers)(nil)

// UnknownText answers free text sent outside the form conversation.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Чтобы оставить заявку, отправьте /start")
	}
}

// UnknownDocument answers files the bot never asks for.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Файлы мне не нужны. Чтобы оставить заявку, отправьте /start")
	}
}

// UnknownCallback answers buttons from outdated messages.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Эта кнопка уже неактуальна. Отправьте /start")
	}
}
