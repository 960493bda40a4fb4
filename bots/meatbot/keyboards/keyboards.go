// Package keyboards builds the storefront's reply and inline keyboards.
// Callback uniques defined here are the contract between keyboards and
// handler registration.
package keyboards

import (
	"fmt"

	"github.com/samber/lo"
	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/models"
	"meatbot/core/telegram/keyboard"
)

// Callback uniques used across the storefront.
const (
	CbCategory    = "cat"
	CbCart        = "cart_open"
	CbProduct     = "prod"
	CbProductPage = "prod_page"
	CbAddToCart   = "cart_add"
	CbCartInc     = "cart_inc"
	CbCartDec     = "cart_dec"
	CbCartRemove  = "cart_rm"
	CbCartClear   = "cart_clear"
	CbCartRefresh = "cart_refresh"
	CbCheckout    = "checkout"
	CbCheckoutOpt = "co_opt"
	CbPayMethod   = "pay_method"
	CbOrderView   = "order_view"
	CbOrderCancel = "order_cancel"
	CbOrderList   = "order_list"

	CbAdminMenu        = "adm"
	CbAdminOrders      = "adm_orders"
	CbAdminOrderStatus = "adm_order_st"
	CbAdminCategory    = "adm_cat"
	CbAdminProduct     = "adm_prod"
	CbAdminPayments    = "adm_pay"
)

// Checkout option payloads for CbCheckoutOpt.
const (
	OptUseSaved = "use_saved"
	OptSkip     = "skip"
	OptCancel   = "cancel"
)

// Main menu labels; the reply keyboard doubles as command shortcuts.
const (
	BtnCatalog = "🥩 Каталог"
	BtnCart    = "🧺 Корзина"
	BtnOrders  = "📦 Мои заказы"
	BtnAbout   = "ℹ️ О магазине"
)

// MainMenu is the persistent reply keyboard for customers.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{BtnCatalog, BtnCart},
		[]string{BtnOrders, BtnAbout},
	)
}

// Categories lists active categories two per row.
func Categories(categories []models.Category) *tele.ReplyMarkup {
	buttons := lo.Map(categories, func(c models.Category, _ int) keyboard.InlineBtn {
		return keyboard.InlineBtn{
			Text:   c.Name,
			Unique: CbCategory,
			Data:   fmt.Sprintf("%d", c.ID),
		}
	})
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

// Products lists a page of products one per row with paging controls.
func Products(products []models.Product, categoryID int64, page, pages int) *tele.ReplyMarkup {
	rows := lo.Map(products, func(p models.Product, _ int) []keyboard.InlineBtn {
		return []keyboard.InlineBtn{{
			Text:   p.Name,
			Unique: CbProduct,
			Data:   fmt.Sprintf("%d", p.ID),
		}}
	})
	if pages > 1 {
		var nav []keyboard.InlineBtn
		if page > 0 {
			nav = append(nav, keyboard.InlineBtn{
				Text:   "◀️",
				Unique: CbProductPage,
				Data:   fmt.Sprintf("%d|%d", categoryID, page-1),
			})
		}
		nav = append(nav, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%d/%d", page+1, pages),
			Unique: CbProductPage,
			Data:   fmt.Sprintf("%d|%d", categoryID, page),
		})
		if page < pages-1 {
			nav = append(nav, keyboard.InlineBtn{
				Text:   "▶️",
				Unique: CbProductPage,
				Data:   fmt.Sprintf("%d|%d", categoryID, page+1),
			})
		}
		rows = append(rows, nav)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// ProductCard offers quantity choices for adding a product to the cart.
func ProductCard(productID int64, unit string) *tele.ReplyMarkup {
	qty := func(n int) keyboard.InlineBtn {
		return keyboard.InlineBtn{
			Text:   fmt.Sprintf("+%d %s", n, unit),
			Unique: CbAddToCart,
			Data:   fmt.Sprintf("%d|%d", productID, n),
		}
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{qty(1), qty(2), qty(3)},
		[]keyboard.InlineBtn{{Text: "🧺 В корзину", Unique: CbCart, Data: ""}},
	)
}

// Cart renders per-position quantity controls plus checkout actions.
func Cart(lines []models.CartLine) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	for _, line := range lines {
		id := fmt.Sprintf("%d", line.ProductID)
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "➖", Unique: CbCartDec, Data: id},
			{Text: fmt.Sprintf("%d", line.Quantity), Unique: CbProduct, Data: id},
			{Text: "➕", Unique: CbCartInc, Data: id},
			{Text: "🗑", Unique: CbCartRemove, Data: id},
		})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{{Text: "✅ Оформить заказ", Unique: CbCheckout, Data: ""}},
		[]keyboard.InlineBtn{
			{Text: "🔄 Обновить цены", Unique: CbCartRefresh, Data: ""},
			{Text: "🧹 Очистить", Unique: CbCartClear, Data: ""},
		},
	)
	return keyboard.InlineButtonsRows(rows...)
}

// PhoneStep offers the saved phone and always allows cancelling.
func PhoneStep(savedPhone string) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if savedPhone != "" {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "📱 " + savedPhone,
			Unique: CbCheckoutOpt,
			Data:   OptUseSaved,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{
		Text:   "❌ Отменить",
		Unique: CbCheckoutOpt,
		Data:   OptCancel,
	}})
	return keyboard.InlineButtonsRows(rows...)
}

// SharePhone is the reply keyboard requesting the Telegram contact.
func SharePhone() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Contact("📲 Поделиться номером")))
	return markup
}

// AddressStep offers the saved address and cancelling.
func AddressStep(savedAddress string) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if savedAddress != "" {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "🏠 Использовать сохранённый",
			Unique: CbCheckoutOpt,
			Data:   OptUseSaved,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{
		Text:   "❌ Отменить",
		Unique: CbCheckoutOpt,
		Data:   OptCancel,
	}})
	return keyboard.InlineButtonsRows(rows...)
}

// NotesStep offers saved notes, skipping, and cancelling.
func NotesStep(savedNotes string) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if savedNotes != "" {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "📝 Использовать сохранённые",
			Unique: CbCheckoutOpt,
			Data:   OptUseSaved,
		}})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{{Text: "⏭ Пропустить", Unique: CbCheckoutOpt, Data: OptSkip}},
		[]keyboard.InlineBtn{{Text: "❌ Отменить", Unique: CbCheckoutOpt, Data: OptCancel}},
	)
	return keyboard.InlineButtonsRows(rows...)
}

// PaymentMethods offers cash and transfer.
func PaymentMethods() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "💵 Наличными при получении", Unique: CbPayMethod, Data: string(models.PayCash)}},
		[]keyboard.InlineBtn{{Text: "💳 Переводом", Unique: CbPayMethod, Data: string(models.PayTransfer)}},
		[]keyboard.InlineBtn{{Text: "❌ Отменить", Unique: CbCheckoutOpt, Data: OptCancel}},
	)
}

// Orders lists a user's orders with a history/active switch.
func Orders(orders []models.Order, history bool) *tele.ReplyMarkup {
	rows := lo.Map(orders, func(o models.Order, _ int) []keyboard.InlineBtn {
		return []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("%s · %s", o.OrderNumber, o.Status.Label()),
			Unique: CbOrderView,
			Data:   fmt.Sprintf("%d", o.ID),
		}}
	})
	switchText := "📜 История заказов"
	switchData := "history"
	if history {
		switchText = "🚚 Текущие заказы"
		switchData = "active"
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: switchText, Unique: CbOrderList, Data: switchData}})
	return keyboard.InlineButtonsRows(rows...)
}

// OrderView shows actions for one order.
func OrderView(o *models.Order) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if !o.Status.Terminal() {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "❌ Отменить заказ",
			Unique: CbOrderCancel,
			Data:   fmt.Sprintf("%d", o.ID),
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ К заказам", Unique: CbOrderList, Data: "active"}})
	return keyboard.InlineButtonsRows(rows...)
}
