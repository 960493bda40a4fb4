package handlers

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/services"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/telegram/callbacks"
	"meatbot/core/telegram/format"
	tghelpers "meatbot/core/telegram/helpers"
)

// ShowOrders opens the active orders list from the /orders command or menu.
func (h *Handlers) ShowOrders(c tele.Context) error {
	return h.sendOrderList(c, false)
}

// OrderList switches between active orders and full history.
func (h *Handlers) OrderList(c tele.Context) error {
	history := false
	if cb := c.Callback(); cb != nil && cb.Data == "history" {
		history = true
	}
	return h.sendOrderList(c, history)
}

func (h *Handlers) sendOrderList(c tele.Context, history bool) error {
	ctx := tghelpers.WithHandler(c, "orders.list")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if history {
		orders, err = h.deps.Orders.History(ctx, user.ID, 20, 0)
	} else {
		orders, err = h.deps.Orders.Active(ctx, user.ID, 20, 0)
	}
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	title := "🚚 *Текущие заказы*"
	empty := "У вас нет активных заказов. Загляните в каталог! 🥩"
	if history {
		title = "📜 *История заказов*"
		empty = "Вы ещё ничего не заказывали."
	}
	if len(orders) == 0 {
		return tghelpers.EditOrSendMD(c, title+"\n\n"+empty, keyboards.Orders(orders, history))
	}
	return tghelpers.EditOrSendMD(c, title, keyboards.Orders(orders, history))
}

// OrderView shows one order with its positions and available actions.
func (h *Handlers) OrderView(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "orders.view")
	orderID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return err
	}
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	// Staff with order permissions see any order; customers only their own.
	isAdmin := h.deps.Admins.Can(ctx, user.TelegramID, models.PermManageOrders)
	var order *models.Order
	if isAdmin {
		order, err = h.deps.Orders.Get(ctx, orderID)
	} else {
		order, err = h.deps.Orders.ForUser(ctx, orderID, user.ID)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tghelpers.SendText(c, "Заказ не найден")
		}
		return fmt.Errorf("get order: %w", err)
	}
	items, err := h.deps.Orders.Items(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order items: %w", err)
	}

	markup := keyboards.OrderView(order)
	if isAdmin {
		markup = keyboards.AdminOrderActions(order)
	}
	return tghelpers.EditOrSendMD(c, h.renderOrder(order, items), markup)
}

func (h *Handlers) renderOrder(order *models.Order, items []models.OrderItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Заказ %s*\n", order.OrderNumber)
	fmt.Fprintf(&b, "Статус: %s\n", order.Status.Label())
	method := models.PaymentMethod(order.PaymentMethod.String)
	fmt.Fprintf(&b, "Оплата: %s (%s)\n\n", method.Label(), order.PaymentStatus.Label())
	for _, it := range items {
		fmt.Fprintf(&b, "• %s — %d × %s\n", format.EscapeMD(it.ProductName), it.Quantity, h.deps.Prices.Format(it.Price))
	}
	fmt.Fprintf(&b, "\nИтого: *%s*\n", h.deps.Prices.Format(order.Total))
	fmt.Fprintf(&b, "Адрес: %s\n", format.EscapeMD(order.Address))
	if order.DeliveryNotes.Valid && order.DeliveryNotes.String != "" {
		fmt.Fprintf(&b, "Комментарий: %s\n", format.EscapeMD(order.DeliveryNotes.String))
	}
	fmt.Fprintf(&b, "Оформлен: %s", tghelpers.FormatDate(order.CreatedAt))
	return b.String()
}

// OrderCancel cancels a pending order on the customer's request.
func (h *Handlers) OrderCancel(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "orders.cancel")
	orderID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return err
	}
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	if err := h.deps.Orders.Cancel(ctx, orderID, user.ID); err != nil {
		switch {
		case errors.Is(err, services.ErrOrderFinished):
			return tghelpers.SendText(c, "Заказ уже завершён, отменить нельзя")
		case errors.Is(err, storage.ErrNotFound):
			return tghelpers.SendText(c, "Заказ не найден")
		}
		return fmt.Errorf("cancel order: %w", err)
	}
	if err := tghelpers.SendText(c, "Заказ отменён."); err != nil {
		return err
	}
	return h.sendOrderList(c, false)
}
