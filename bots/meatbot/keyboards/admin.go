package keyboards

import (
	"fmt"

	"github.com/samber/lo"
	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/models"
	"meatbot/core/telegram/keyboard"
)

// Admin menu sections passed as CbAdminMenu payloads.
const (
	AdmStats      = "stats"
	AdmOrders     = "orders"
	AdmCategories = "categories"
	AdmProducts   = "products"
	AdmPayments   = "payments"
)

// Admin action payload prefixes.
const (
	ActAdd    = "add"
	ActEdit   = "edit"
	ActToggle = "toggle"
	ActList   = "list"
)

// AdminMenu is the top-level staff menu; sections are filtered by role.
func AdminMenu(role models.AdminRole) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if role.Can(models.PermViewStats) {
		rows = append(rows, []keyboard.InlineBtn{{Text: "📊 Статистика", Unique: CbAdminMenu, Data: AdmStats}})
	}
	if role.Can(models.PermManageOrders) {
		rows = append(rows, []keyboard.InlineBtn{{Text: "📦 Заказы", Unique: CbAdminMenu, Data: AdmOrders}})
	}
	if role.Can(models.PermManageCatalog) {
		rows = append(rows,
			[]keyboard.InlineBtn{{Text: "🗂 Категории", Unique: CbAdminMenu, Data: AdmCategories}},
			[]keyboard.InlineBtn{{Text: "🥩 Товары", Unique: CbAdminMenu, Data: AdmProducts}},
		)
	}
	if role.Can(models.PermManagePayments) {
		rows = append(rows, []keyboard.InlineBtn{{Text: "💳 Реквизиты", Unique: CbAdminMenu, Data: AdmPayments}})
	}
	return keyboard.InlineButtonsRows(rows...)
}

// AdminOrderFilters lets staff pick a status queue.
func AdminOrderFilters() *tele.ReplyMarkup {
	statuses := []models.OrderStatus{
		models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled,
	}
	buttons := lo.Map(statuses, func(s models.OrderStatus, _ int) keyboard.InlineBtn {
		return keyboard.InlineBtn{
			Text:   s.Label(),
			Unique: CbAdminOrders,
			Data:   string(s) + "|0",
		}
	})
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

// AdminOrderQueue pages one status queue and opens individual orders.
func AdminOrderQueue(orders []models.Order, status models.OrderStatus, page int, hasMore bool) *tele.ReplyMarkup {
	rows := lo.Map(orders, func(o models.Order, _ int) []keyboard.InlineBtn {
		return []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("%s · %s", o.OrderNumber, o.CreatedAt.Format("02.01 15:04")),
			Unique: CbOrderView,
			Data:   fmt.Sprintf("%d", o.ID),
		}}
	})
	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.InlineBtn{Text: "◀️", Unique: CbAdminOrders, Data: fmt.Sprintf("%s|%d", status, page-1)})
	}
	if hasMore {
		nav = append(nav, keyboard.InlineBtn{Text: "▶️", Unique: CbAdminOrders, Data: fmt.Sprintf("%s|%d", status, page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ Фильтры", Unique: CbAdminMenu, Data: AdmOrders}})
	return keyboard.InlineButtonsRows(rows...)
}

// AdminOrderActions offers the status transitions valid from the current one.
func AdminOrderActions(o *models.Order) *tele.ReplyMarkup {
	next := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
		models.OrderConfirmed:  {models.OrderProcessing, models.OrderCancelled},
		models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
		models.OrderShipped:    {models.OrderDelivered, models.OrderCancelled},
	}
	rows := lo.Map(next[o.Status], func(s models.OrderStatus, _ int) []keyboard.InlineBtn {
		return []keyboard.InlineBtn{{
			Text:   "➡️ " + s.Label(),
			Unique: CbAdminOrderStatus,
			Data:   fmt.Sprintf("%d|%s", o.ID, s),
		}}
	})
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ Очередь", Unique: CbAdminOrders, Data: string(o.Status) + "|0"}})
	return keyboard.InlineButtonsRows(rows...)
}

// AdminCategories lists every category with edit and toggle shortcuts.
func AdminCategories(categories []models.Category) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	for _, c := range categories {
		mark := "🟢"
		if !c.IsActive {
			mark = "🔴"
		}
		id := fmt.Sprintf("%d", c.ID)
		rows = append(rows, []keyboard.InlineBtn{
			{Text: mark + " " + c.Name, Unique: CbAdminCategory, Data: ActEdit + "|" + id},
			{Text: "♻️", Unique: CbAdminCategory, Data: ActToggle + "|" + id},
		})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "➕ Добавить категорию", Unique: CbAdminCategory, Data: ActAdd + "|0"}})
	return keyboard.InlineButtonsRows(rows...)
}

// AdminProductCategories picks which category's products to manage.
func AdminProductCategories(categories []models.Category) *tele.ReplyMarkup {
	buttons := lo.Map(categories, func(c models.Category, _ int) keyboard.InlineBtn {
		return keyboard.InlineBtn{
			Text:   c.Name,
			Unique: CbAdminProduct,
			Data:   fmt.Sprintf("%s|%d", ActList, c.ID),
		}
	})
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

// AdminProducts lists a category's products with edit and toggle shortcuts.
func AdminProducts(products []models.Product, categoryID int64) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	for _, p := range products {
		mark := "🟢"
		if !p.IsAvailable {
			mark = "🔴"
		}
		id := fmt.Sprintf("%d", p.ID)
		rows = append(rows, []keyboard.InlineBtn{
			{Text: mark + " " + p.Name, Unique: CbAdminProduct, Data: ActEdit + "|" + id},
			{Text: "♻️", Unique: CbAdminProduct, Data: ActToggle + "|" + id},
		})
	}
	rows = append(rows, []keyboard.InlineBtn{{
		Text:   "➕ Добавить товар",
		Unique: CbAdminProduct,
		Data:   fmt.Sprintf("%s|%d", ActAdd, categoryID),
	}})
	return keyboard.InlineButtonsRows(rows...)
}

// AdminPayments offers requisites management actions.
func AdminPayments(configured bool) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{
		{{Text: "✏️ Изменить реквизиты", Unique: CbAdminPayments, Data: ActEdit}},
	}
	if configured {
		rows = append(rows, []keyboard.InlineBtn{{Text: "🚫 Отключить оплату переводом", Unique: CbAdminPayments, Data: ActToggle}})
	}
	return keyboard.InlineButtonsRows(rows...)
}
