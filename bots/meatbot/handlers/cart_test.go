package handlers

import (
	"strings"
	"testing"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
)

func TestShowCartEscapesProductNames(t *testing.T) {
	e := newBotEnv()
	user := e.addUser(100)
	line := ribeyeLine(1, 500)
	line.ProductName = "Фарш *особый* [акция]"
	e.cart.lines[user.ID] = []models.CartLine{line}

	c := e.callbackMsg(100, keyboards.CbCart, "")
	if err := e.h.ShowCart(c); err != nil {
		t.Fatalf("ShowCart: %v", err)
	}
	got := lastSent(t, c)
	if !strings.Contains(got, `\*особый\*`) || !strings.Contains(got, `\[акция]`) {
		t.Errorf("cart render = %q, want markdown in product name escaped", got)
	}
}
