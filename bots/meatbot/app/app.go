// Package app assembles the storefront bot: configuration, infrastructure,
// services, and Telegram wiring.
package app

import (
	"context"
	"fmt"

	"meatbot/bots/meatbot/handlers"
	"meatbot/bots/meatbot/services"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/bootstrap"
	tg "meatbot/core/telegram"
	"meatbot/core/telegram/router"
	"meatbot/core/telegram/state"
	"meatbot/core/telegram/ui"
)

// App holds the assembled bot ready to run.
type App struct {
	cfg   *Config
	infra *bootstrap.Result

	admins   *services.AdminService
	fsm      state.Manager
	reg      *tg.Registry
	fallback ui.FallbackProvider
}

// Bootstrap connects infrastructure and wires the service and handler layers.
func Bootstrap(cfg *Config) (*App, error) {
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: &cfg.Database,
		Redis:    &cfg.Redis,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(infra.DB)

	var cache services.Cache
	if infra.Cache != nil {
		cache = infra.Cache
	}
	catalog := services.NewCatalogService(store.Catalog, cache)
	cart := services.NewCartService(store.Cart, catalog)
	orders := services.NewOrderService(store.Orders, cart)
	users := services.NewUserService(store.Users)
	payments := services.NewPaymentService(store.Payments)
	admins := services.NewAdminService(store.Admins)
	prices := services.NewPriceFormatter(cfg.Shop.Currency)

	fsm := state.NewMemoryManager()
	reg := tg.NewRegistry()
	h := handlers.New(handlers.Deps{
		Users:         users,
		Catalog:       catalog,
		Cart:          cart,
		Orders:        orders,
		Payments:      payments,
		Admins:        admins,
		Prices:        prices,
		FSM:           fsm,
		PageSize:      cfg.Shop.PageSize,
		OrdersPerPage: cfg.Shop.OrdersPerPage,
	})
	h.Register(reg)
	reg.SetCallbackNotFound(h.UnknownCallback())

	return &App{
		cfg:      cfg,
		infra:    infra,
		admins:   admins,
		fsm:      fsm,
		reg:      reg,
		fallback: h,
	}, nil
}

// TelegramRunOptions builds the runtime wiring for the bot loop.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	coreCfg := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminID:    coreCfg.Telegram.AdminID,
		AdminCheck: a.admins.IsAdmin,
	})
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.fsm, a.reg, router.TextOptions{
		UnknownText:     a.fallback.UnknownText(),
		UnknownDocument: a.fallback.UnknownDocument(),
	})...)

	opts := tg.RunOptions{
		Config:      coreCfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(coreCfg, nil),
		Routes:      routes,
	}
	opts.OnStop = func(_ context.Context, _ tg.Runtime) error {
		return a.Close()
	}
	return opts, nil
}

// Close releases database and cache connections.
func (a *App) Close() error {
	var firstErr error
	if a.infra.Cache != nil {
		if err := a.infra.Cache.Close(); err != nil {
			firstErr = err
		}
	}
	if a.infra.DB != nil {
		if err := a.infra.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("app close: %w", firstErr)
	}
	return nil
}
