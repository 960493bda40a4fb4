package handlers

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "meatbot/core/telegram"
)

func TestMustCallbackPanicsOnDuplicateKey(t *testing.T) {
	reg := tg.NewRegistry()
	noop := func(tele.Context) error { return nil }

	mustCallback(reg, "cart", noop)

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate callback key did not panic")
		}
	}()
	mustCallback(reg, "cart", noop)
}
