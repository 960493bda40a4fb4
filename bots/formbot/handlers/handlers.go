// Package handlers implements the lead collection form and the admin lead
// management commands.
package handlers

import (
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/formbot/leads"
	tg "meatbot/core/telegram"
	"meatbot/core/telegram/commands"
	"meatbot/core/telegram/state"
)

// Callback uniques.
const (
	cbLeadList   = "lead_list"
	cbLeadView   = "lead_view"
	cbLeadStatus = "lead_status"
	cbLeadDelete = "lead_del"
	cbLeadExport = "lead_export"
	cbLeadStats  = "lead_stats"
	cbFormAction = "form_act"
)

// Form action payloads for cbFormAction.
const (
	actConfirm = "confirm"
	actRestart = "restart"
	actSkip    = "skip"
	actCancel  = "cancel"
)

// Deps carries what the handlers need.
type Deps struct {
	Store    *leads.Store
	FSM      state.Manager
	AdminID  int64
	Cooldown time.Duration

	LeadsPerPage int
}

// Handlers binds the lead store to Telegram endpoints.
type Handlers struct {
	deps Deps

	mu       sync.Mutex
	lastSeen map[int64]time.Time
	now      func() time.Time
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
	if deps.LeadsPerPage <= 0 {
		deps.LeadsPerPage = 8
	}
	return &Handlers{
		deps:     deps,
		lastSeen: make(map[int64]time.Time),
		now:      time.Now,
	}
}

// Register wires commands, callbacks, and FSM states into the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Оставить заявку",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.Cancel,
		Description: "Отменить заполнение",
	})
	reg.RegisterCommand("/leads", commands.Command{
		Handler:     h.AdminLeads,
		Description: "Заявки",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.AdminStats,
		Description: "Статистика заявок",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/export", commands.Command{
		Handler:     h.AdminExport,
		Description: "Выгрузка CSV",
		AdminOnly:   true,
		Hidden:      true,
	})

	mustCallback(reg, cbLeadList, h.LeadList)
	mustCallback(reg, cbLeadView, h.LeadView)
	mustCallback(reg, cbLeadStatus, h.LeadStatus)
	mustCallback(reg, cbLeadDelete, h.LeadDelete)
	mustCallback(reg, cbLeadExport, h.AdminExport)
	mustCallback(reg, cbLeadStats, h.AdminStats)
	mustCallback(reg, cbFormAction, h.FormAction)

	h.registerFormStates()
}

func (h *Handlers) isAdmin(c tele.Context) bool {
	sender := c.Sender()
	return sender != nil && sender.ID == h.deps.AdminID
}

// onCooldown reports whether the user submitted a lead too recently, and
// records the submission time when allowed.
func (h *Handlers) markSubmission(userID int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if last, ok := h.lastSeen[userID]; ok {
		if wait := h.deps.Cooldown - h.now().Sub(last); wait > 0 {
			return wait, false
		}
	}
	h.lastSeen[userID] = h.now()
	return 0, true
}
