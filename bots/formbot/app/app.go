// Package app assembles the lead collection bot.
package app

import (
	"time"

	"meatbot/bots/formbot/handlers"
	"meatbot/bots/formbot/leads"
	"meatbot/core/bootstrap"
	tg "meatbot/core/telegram"
	"meatbot/core/telegram/router"
	"meatbot/core/telegram/state"
	"meatbot/core/telegram/ui"
)

// App holds the assembled bot ready to run.
type App struct {
	cfg      *Config
	fsm      state.Manager
	reg      *tg.Registry
	fallback ui.FallbackProvider
}

// Bootstrap initializes the logger, opens the lead store, and wires the
// handlers. No database or cache is involved.
func Bootstrap(cfg *Config) (*App, error) {
	if _, err := bootstrap.Run(bootstrap.Options{Config: cfg.CoreConfig()}); err != nil {
		return nil, err
	}

	store, err := leads.Open(cfg.Form.CSVPath)
	if err != nil {
		return nil, err
	}

	fsm := state.NewMemoryManager()
	reg := tg.NewRegistry()
	h := handlers.New(handlers.Deps{
		Store:        store,
		FSM:          fsm,
		AdminID:      cfg.Telegram.AdminID,
		Cooldown:     time.Duration(cfg.Form.CooldownSeconds) * time.Second,
		LeadsPerPage: cfg.Form.LeadsPerPage,
	})
	h.Register(reg)
	reg.SetCallbackNotFound(h.UnknownCallback())

	return &App{cfg: cfg, fsm: fsm, reg: reg, fallback: h}, nil
}

// TelegramRunOptions builds the runtime wiring for the bot loop.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	coreCfg := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminID: coreCfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.fsm, a.reg, router.TextOptions{
		UnknownText:     a.fallback.UnknownText(),
		UnknownDocument: a.fallback.UnknownDocument(),
	})...)

	return tg.RunOptions{
		Config:      coreCfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(coreCfg, nil),
		Routes:      routes,
	}, nil
}
