// Package handlers wires storefront commands, callbacks, and conversation
// states into the bot registry.
package handlers

import (
	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/services"
	tg "meatbot/core/telegram"
	"meatbot/core/telegram/commands"
	"meatbot/core/telegram/state"
)

// Deps carries everything the handlers need.
type Deps struct {
	Users    *services.UserService
	Catalog  *services.CatalogService
	Cart     *services.CartService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Admins   *services.AdminService
	Prices   *services.PriceFormatter
	FSM      state.Manager

	PageSize      int
	OrdersPerPage int
}

// Handlers binds the service layer to Telegram endpoints.
type Handlers struct {
	deps Deps
}

// mustCallback wires a callback key, panicking on a duplicate. Registration
// happens once at startup, so a collision is a programming error.
func mustCallback(reg *tg.Registry, key string, handler tele.HandlerFunc) {
	if err := reg.RegisterCallback(key, handler); err != nil {
		panic(err)
	}
}

// New constructs the handler set.
func New(deps Deps) *Handlers {
	if deps.PageSize <= 0 {
		deps.PageSize = 6
	}
	if deps.OrdersPerPage <= 0 {
		deps.OrdersPerPage = 5
	}
	return &Handlers{deps: deps}
}

// Register wires commands, callbacks, and FSM states into the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Главное меню",
	})
	reg.RegisterCommand("/catalog", commands.Command{
		Handler:     h.ShowCatalog,
		Description: "Каталог товаров",
	})
	reg.RegisterCommand("/cart", commands.Command{
		Handler:     h.ShowCart,
		Description: "Корзина",
	})
	reg.RegisterCommand("/orders", commands.Command{
		Handler:     h.ShowOrders,
		Description: "Мои заказы",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.Help,
		Description: "Помощь",
	})
	reg.RegisterCommand("/about", commands.Command{
		Handler:     h.About,
		Description: "О магазине",
		Hidden:      true,
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.AdminMenu,
		Description: "Админ-панель",
		AdminOnly:   true,
		Hidden:      true,
	})

	// Catalog browsing.
	mustCallback(reg, keyboards.CbCategory, h.OpenCategory)
	mustCallback(reg, keyboards.CbProduct, h.OpenProduct)
	mustCallback(reg, keyboards.CbProductPage, h.ProductPage)
	mustCallback(reg, keyboards.CbAddToCart, h.AddToCart)

	// Cart management.
	mustCallback(reg, keyboards.CbCart, h.ShowCart)
	mustCallback(reg, keyboards.CbCartInc, h.CartInc)
	mustCallback(reg, keyboards.CbCartDec, h.CartDec)
	mustCallback(reg, keyboards.CbCartRemove, h.CartRemove)
	mustCallback(reg, keyboards.CbCartClear, h.CartClear)
	mustCallback(reg, keyboards.CbCartRefresh, h.CartRefresh)

	// Checkout conversation.
	mustCallback(reg, keyboards.CbCheckout, h.StartCheckout)
	mustCallback(reg, keyboards.CbCheckoutOpt, h.CheckoutOption)
	mustCallback(reg, keyboards.CbPayMethod, h.SelectPaymentMethod)

	// Orders.
	mustCallback(reg, keyboards.CbOrderList, h.OrderList)
	mustCallback(reg, keyboards.CbOrderView, h.OrderView)
	mustCallback(reg, keyboards.CbOrderCancel, h.OrderCancel)

	// Admin.
	mustCallback(reg, keyboards.CbAdminMenu, h.AdminSection)
	mustCallback(reg, keyboards.CbAdminOrders, h.AdminOrderQueue)
	mustCallback(reg, keyboards.CbAdminOrderStatus, h.AdminOrderStatus)
	mustCallback(reg, keyboards.CbAdminCategory, h.AdminCategory)
	mustCallback(reg, keyboards.CbAdminProduct, h.AdminProduct)
	mustCallback(reg, keyboards.CbAdminPayments, h.AdminPayments)

	// Main menu reply buttons act as command aliases.
	reg.SetTextFallback(h.MenuText)

	h.registerCheckoutStates()
	h.registerAdminStates()
}

// MenuText maps main menu reply buttons onto their commands.
func (h *Handlers) MenuText(c tele.Context) error {
	switch c.Text() {
	case keyboards.BtnCatalog:
		return h.ShowCatalog(c)
	case keyboards.BtnCart:
		return h.ShowCart(c)
	case keyboards.BtnOrders:
		return h.ShowOrders(c)
	case keyboards.BtnAbout:
		return h.About(c)
	}
	return h.Help(c)
}
