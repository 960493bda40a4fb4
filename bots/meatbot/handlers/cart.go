package handlers

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/telegram/callbacks"
	"meatbot/core/telegram/format"
	tghelpers "meatbot/core/telegram/helpers"
)

// ShowCart renders the cart with per-position controls.
func (h *Handlers) ShowCart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "cart")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	lines, err := h.deps.Cart.Lines(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return tghelpers.EditOrSendMD(c, "Корзина пуста. Загляните в каталог! 🥩")
	}

	var b strings.Builder
	b.WriteString("*Ваша корзина*\n\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "%s — %d × %s = %s\n",
			format.EscapeMD(line.ProductName), line.Quantity,
			h.deps.Prices.Format(line.PriceAtAdd),
			h.deps.Prices.Format(line.LineTotal()))
		if !line.IsAvailable {
			b.WriteString("  ⚠️ товара нет в наличии\n")
		}
	}
	fmt.Fprintf(&b, "\nИтого: *%s*", h.deps.Prices.Format(h.deps.Cart.Subtotal(lines)))

	return tghelpers.EditOrSendMD(c, b.String(), keyboards.Cart(lines))
}

// CartInc bumps a position quantity by one.
func (h *Handlers) CartInc(c tele.Context) error {
	return h.cartAdjust(c, +1)
}

// CartDec lowers a position quantity by one; zero removes it.
func (h *Handlers) CartDec(c tele.Context) error {
	return h.cartAdjust(c, -1)
}

func (h *Handlers) cartAdjust(c tele.Context, delta int) error {
	productID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("cart payload: %w", err)
	}
	ctx := tghelpers.WithHandler(c, "cart.adjust")

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	lines, err := h.deps.Cart.Lines(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	for _, line := range lines {
		if line.ProductID != productID {
			continue
		}
		if err := h.deps.Cart.SetQuantity(ctx, user.ID, productID, line.Quantity+delta); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				break
			}
			return fmt.Errorf("adjust cart: %w", err)
		}
		break
	}
	return h.ShowCart(c)
}

// CartRemove deletes one position.
func (h *Handlers) CartRemove(c tele.Context) error {
	productID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("cart payload: %w", err)
	}
	ctx := tghelpers.WithHandler(c, "cart.remove")

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if err := h.deps.Cart.Remove(ctx, user.ID, productID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return h.ShowCart(c)
}

// CartRefresh re-snapshots every position to the current product price.
func (h *Handlers) CartRefresh(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "cart.refresh")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if err := h.deps.Cart.RefreshPrices(ctx, user.ID); err != nil {
		return fmt.Errorf("refresh cart prices: %w", err)
	}
	return h.ShowCart(c)
}

// CartClear empties the whole cart.
func (h *Handlers) CartClear(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "cart.clear")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if err := h.deps.Cart.Clear(ctx, user.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return tghelpers.EditOrSendMD(c, "Корзина очищена.")
}
