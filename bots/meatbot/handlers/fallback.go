package handlers

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "meatbot/core/telegram/helpers"
	"meatbot/core/telegram/ui"
)

var _ ui.FallbackProvider = (*Handlers)(nil)

// UnknownText answers free text sent outside any conversation.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Не понял вас. Откройте меню: /start")
	}
}

// UnknownDocument answers files sent outside the checkout flow.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Сейчас я не жду файлов. Откройте меню: /start")
	}
}

// UnknownCallback answers buttons from outdated messages.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Эта кнопка уже неактуальна. Откройте меню: /start")
	}
}
