package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/telegram/callbacks"
	tghelpers "meatbot/core/telegram/helpers"
)

// AdminMenu opens the staff menu for /admin. The command router already
// filters non-admins; the role decides which sections show up.
func (h *Handlers) AdminMenu(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.menu")
	admin, err := h.deps.Admins.Lookup(ctx, c.Sender().ID)
	if err != nil {
		return fmt.Errorf("admin lookup: %w", err)
	}
	if admin == nil {
		return tghelpers.SendText(c, "Этот раздел доступен только сотрудникам.")
	}
	return tghelpers.SendMD(c, "🛠 *Панель управления*", keyboards.AdminMenu(admin.Role))
}

// AdminSection routes the top-level admin menu buttons.
func (h *Handlers) AdminSection(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.section")
	// Navigating the menu aborts any edit in progress.
	h.deps.FSM.Clear(c.Sender().ID)
	section := ""
	if cb := c.Callback(); cb != nil {
		section = cb.Data
	}

	switch section {
	case keyboards.AdmStats:
		if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermViewStats) {
			return h.adminDenied(c)
		}
		return h.adminStats(c)
	case keyboards.AdmOrders:
		if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageOrders) {
			return h.adminDenied(c)
		}
		return tghelpers.EditOrSendMD(c, "📦 *Очереди заказов*\n\nВыберите статус:", keyboards.AdminOrderFilters())
	case keyboards.AdmCategories:
		if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageCatalog) {
			return h.adminDenied(c)
		}
		return h.adminCategories(c)
	case keyboards.AdmProducts:
		if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageCatalog) {
			return h.adminDenied(c)
		}
		return h.adminProductCategories(c)
	case keyboards.AdmPayments:
		if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManagePayments) {
			return h.adminDenied(c)
		}
		return h.adminPaymentsView(c)
	}
	return tghelpers.SendText(c, "Неизвестный раздел")
}

func (h *Handlers) adminDenied(c tele.Context) error {
	return tghelpers.SendText(c, "Недостаточно прав")
}

func (h *Handlers) adminStats(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.stats")
	stats, err := h.deps.Orders.Stats(ctx)
	if err != nil {
		return fmt.Errorf("order stats: %w", err)
	}

	var b strings.Builder
	b.WriteString("📊 *Статистика заказов*\n\n")
	order := []models.OrderStatus{
		models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled,
	}
	for _, st := range order {
		if n := stats.ByStatus[st]; n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", st.Label(), n)
		}
	}
	fmt.Fprintf(&b, "\nВсего заказов: %d\n", stats.TotalOrders)
	fmt.Fprintf(&b, "Выручка: %s\n", h.deps.Prices.Format(stats.Revenue))
	fmt.Fprintf(&b, "Средний чек: %s", h.deps.Prices.Format(stats.AverageTotal))
	return tghelpers.EditOrSendMD(c, b.String())
}

// AdminOrderQueue shows one status queue, paged. Payload: "status|page".
func (h *Handlers) AdminOrderQueue(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.orders")
	if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageOrders) {
		return h.adminDenied(c)
	}
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Некорректный запрос")
	}
	status := models.OrderStatus(parts[0])
	if !status.Valid() {
		return tghelpers.SendText(c, "Неизвестный статус")
	}
	page, _ := strconv.Atoi(parts[1])
	if page < 0 {
		page = 0
	}

	// Fetch one extra row to know whether a next page exists.
	per := h.deps.OrdersPerPage
	orders, err := h.deps.Orders.ByStatus(ctx, status, per+1, page*per)
	if err != nil {
		return fmt.Errorf("orders by status: %w", err)
	}
	hasMore := len(orders) > per
	if hasMore {
		orders = orders[:per]
	}

	text := fmt.Sprintf("📦 *%s* — %d на странице", status.Label(), len(orders))
	if len(orders) == 0 {
		text = fmt.Sprintf("📦 *%s*\n\nОчередь пуста.", status.Label())
	}
	return tghelpers.EditOrSendMD(c, text, keyboards.AdminOrderQueue(orders, status, page, hasMore))
}

// AdminOrderStatus applies a status transition. Payload: "orderID|status".
func (h *Handlers) AdminOrderStatus(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.order_status")
	if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageOrders) {
		return h.adminDenied(c)
	}
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Некорректный запрос")
	}
	orderID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "Некорректный запрос")
	}
	status := models.OrderStatus(parts[1])

	if err := h.deps.Orders.SetStatus(ctx, orderID, status); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return tghelpers.SendText(c, "Заказ не найден")
		}
		return fmt.Errorf("set status: %w", err)
	}
	order, err := h.deps.Orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	items, err := h.deps.Orders.Items(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order items: %w", err)
	}
	return tghelpers.EditOrSendMD(c, h.renderOrder(order, items), keyboards.AdminOrderActions(order))
}

func (h *Handlers) adminCategories(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.categories")
	categories, err := h.deps.Catalog.Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	return tghelpers.EditOrSendMD(c,
		"🗂 *Категории*\n\nНажмите на категорию для редактирования, ♻️ — включить или выключить.",
		keyboards.AdminCategories(categories))
}

// adminProductCategories asks which category's products to manage.
func (h *Handlers) adminProductCategories(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.products")
	categories, err := h.deps.Catalog.Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return tghelpers.EditOrSendMD(c, "Сначала создайте категорию.")
	}
	return tghelpers.EditOrSendMD(c, "🥩 *Товары*\n\nВыберите категорию:", keyboards.AdminProductCategories(categories))
}

func (h *Handlers) adminPaymentsView(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.payments")
	settings, err := h.deps.Payments.Settings(ctx)
	if err != nil {
		return fmt.Errorf("payment settings: %w", err)
	}

	var b strings.Builder
	b.WriteString("💳 *Реквизиты для переводов*\n\n")
	if settings == nil {
		b.WriteString("Не настроены: клиенты видят просьбу связаться с менеджером.")
	} else {
		fmt.Fprintf(&b, "Банк: %s\n", settings.BankName)
		fmt.Fprintf(&b, "Карта: %s\n", settings.MaskedCard())
		fmt.Fprintf(&b, "Получатель: %s\n", settings.RecipientName)
		if settings.AdditionalInfo.Valid && settings.AdditionalInfo.String != "" {
			fmt.Fprintf(&b, "Примечание: %s\n", settings.AdditionalInfo.String)
		}
	}
	return tghelpers.EditOrSendMD(c, b.String(), keyboards.AdminPayments(settings != nil))
}

// AdminPayments handles the requisites actions. Payload: edit or toggle.
func (h *Handlers) AdminPayments(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.payments")
	if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManagePayments) {
		return h.adminDenied(c)
	}
	action := ""
	if cb := c.Callback(); cb != nil {
		action = cb.Data
	}

	switch action {
	case keyboards.ActEdit:
		return h.startPaymentEdit(c)
	case keyboards.ActToggle:
		if err := h.deps.Payments.Disable(ctx); err != nil {
			return fmt.Errorf("disable payments: %w", err)
		}
		if err := tghelpers.SendText(c, "Оплата переводом отключена."); err != nil {
			return err
		}
		return h.adminPaymentsView(c)
	}
	return tghelpers.SendText(c, "Неизвестное действие")
}
