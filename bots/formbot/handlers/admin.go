package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/formbot/leads"
	"meatbot/core/logger"
	"meatbot/core/telegram/callbacks"
	"meatbot/core/telegram/format"
	tghelpers "meatbot/core/telegram/helpers"
	"meatbot/core/telegram/keyboard"

	"log/slog"
)

func leadListMarkup(items []leads.Lead, page int, hasMore bool) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	for _, l := range items {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("%s #%d %s · %s", l.Status.Emoji(), l.ID, l.Name, l.Phone),
			Unique: cbLeadView,
			Data:   strconv.Itoa(l.ID),
		}})
	}
	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.InlineBtn{Text: "◀️", Unique: cbLeadList, Data: strconv.Itoa(page - 1)})
	}
	if hasMore {
		nav = append(nav, keyboard.InlineBtn{Text: "▶️", Unique: cbLeadList, Data: strconv.Itoa(page + 1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "📊 Статистика", Unique: cbLeadStats, Data: ""},
		{Text: "📥 Выгрузка", Unique: cbLeadExport, Data: ""},
	})
	return keyboard.InlineButtonsRows(rows...)
}

func leadViewMarkup(l *leads.Lead) *tele.ReplyMarkup {
	statuses := []leads.Status{leads.StatusNew, leads.StatusInProgress, leads.StatusDone}
	var rows [][]keyboard.InlineBtn
	for _, st := range statuses {
		if st == l.Status {
			continue
		}
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   st.Emoji() + " " + string(st),
			Unique: cbLeadStatus,
			Data:   fmt.Sprintf("%d|%s", l.ID, st),
		}})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{{Text: "🗑 Удалить", Unique: cbLeadDelete, Data: strconv.Itoa(l.ID)}},
		[]keyboard.InlineBtn{{Text: "⬅️ К списку", Unique: cbLeadList, Data: "0"}},
	)
	return keyboard.InlineButtonsRows(rows...)
}

// AdminLeads opens the paginated lead list for /leads.
func (h *Handlers) AdminLeads(c tele.Context) error {
	return h.sendLeadPage(c, 0)
}

// LeadList pages through the lead list. Payload: page number.
func (h *Handlers) LeadList(c tele.Context) error {
	page := 0
	if cb := c.Callback(); cb != nil {
		page, _ = strconv.Atoi(cb.Data)
	}
	if page < 0 {
		page = 0
	}
	return h.sendLeadPage(c, page)
}

func (h *Handlers) sendLeadPage(c tele.Context, page int) error {
	if !h.isAdmin(c) {
		return tghelpers.SendText(c, "Этот раздел доступен только администратору.")
	}

	all, err := h.deps.Store.All()
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}
	if len(all) == 0 {
		return tghelpers.SendMD(c, "📋 *Заявки*\n\nПока нет ни одной заявки.")
	}

	per := h.deps.LeadsPerPage
	start := page * per
	if start >= len(all) {
		start = 0
		page = 0
	}
	end := start + per
	if end > len(all) {
		end = len(all)
	}
	items := all[start:end]
	hasMore := end < len(all)

	text := fmt.Sprintf("📋 *Заявки* — всего %d, страница %d", len(all), page+1)
	return tghelpers.EditOrSendMD(c, text, leadListMarkup(items, page, hasMore))
}

// LeadView shows one lead in full. Payload: lead id.
func (h *Handlers) LeadView(c tele.Context) error {
	if !h.isAdmin(c) {
		return tghelpers.SendText(c, "Этот раздел доступен только администратору.")
	}
	id, err := callbacks.PayloadInt(c)
	if err != nil {
		return err
	}

	lead, err := h.deps.Store.ByID(id)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			return tghelpers.SendText(c, "Заявка не найдена: возможно, её уже удалили.")
		}
		return fmt.Errorf("get lead: %w", err)
	}
	return tghelpers.EditOrSendMD(c, renderLead(lead), leadViewMarkup(lead))
}

func renderLead(l *leads.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Заявка #%d* — %s\n\n", l.Status.Emoji(), l.ID, l.Status)
	fmt.Fprintf(&b, "👤 %s\n", format.EscapeMD(l.Name))
	fmt.Fprintf(&b, "📱 %s\n", l.Phone)
	fmt.Fprintf(&b, "📧 %s\n", format.EscapeMD(l.Email))
	if l.Message != "" {
		fmt.Fprintf(&b, "💬 %s\n", format.EscapeMD(l.Message))
	}
	fmt.Fprintf(&b, "\n🆔 user_id: %d\n", l.UserID)
	fmt.Fprintf(&b, "Создана: %s\n", leadDate(l.Timestamp))
	if l.UpdatedAt != l.Timestamp {
		fmt.Fprintf(&b, "Обновлена: %s\n", leadDate(l.UpdatedAt))
	}
	return b.String()
}

// leadDate reformats a stored timestamp for display, falling back to the
// raw value when a hand-edited file holds something unparseable.
func leadDate(raw string) string {
	if t, ok := tghelpers.ParseFlexibleDate(raw); ok {
		return tghelpers.FormatDate(t)
	}
	return raw
}

// LeadStatus applies a workflow transition. Payload: "id|status".
func (h *Handlers) LeadStatus(c tele.Context) error {
	if !h.isAdmin(c) {
		return tghelpers.SendText(c, "Этот раздел доступен только администратору.")
	}
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Некорректный запрос.")
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return tghelpers.SendText(c, "Некорректный запрос.")
	}

	if err := h.deps.Store.UpdateStatus(id, leads.Status(parts[1])); err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			return tghelpers.SendText(c, "Заявка не найдена: возможно, её уже удалили.")
		}
		return fmt.Errorf("update lead status: %w", err)
	}

	lead, err := h.deps.Store.ByID(id)
	if err != nil {
		return fmt.Errorf("get lead: %w", err)
	}
	return tghelpers.EditOrSendMD(c, renderLead(lead), leadViewMarkup(lead))
}

// LeadDelete removes a lead. Payload: lead id.
func (h *Handlers) LeadDelete(c tele.Context) error {
	if !h.isAdmin(c) {
		return tghelpers.SendText(c, "Этот раздел доступен только администратору.")
	}
	id, err := callbacks.PayloadInt(c)
	if err != nil {
		return err
	}

	if err := h.deps.Store.Delete(id); err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			return tghelpers.SendText(c, "Заявка не найдена: возможно, её уже удалили.")
		}
		return fmt.Errorf("delete lead: %w", err)
	}
	if err := tghelpers.SendText(c, fmt.Sprintf("Заявка #%d удалена.", id)); err != nil {
		return err
	}
	return h.sendLeadPage(c, 0)
}

// AdminStats prints lead counts per status.
func (h *Handlers) AdminStats(c tele.Context) error {
	if !h.isAdmin(c) {
		return tghelpers.SendText(c, "Этот раздел доступен только администратору.")
	}
	stats, err := h.deps.Store.Stats()
	if err != nil {
		return fmt.Errorf("lead stats: %w", err)
	}

	var b strings.Builder
	b.WriteString("📊 *Статистика заявок*\n\n")
	fmt.Fprintf(&b, "Всего: %d\n", stats.Total)
	fmt.Fprintf(&b, "🆕 Новые: %d\n", stats.New)
	fmt.Fprintf(&b, "⏳ В работе: %d\n", stats.InProgress)
	fmt.Fprintf(&b, "✅ Завершённые: %d", stats.Done)
	return tghelpers.SendMD(c, b.String())
}

// AdminExport sends the CSV file as a document, with a BOM for Excel.
func (h *Handlers) AdminExport(c tele.Context) error {
	if !h.isAdmin(c) {
		return tghelpers.SendText(c, "Этот раздел доступен только администратору.")
	}
	data, err := h.deps.Store.ExportBOM()
	if err != nil {
		return fmt.Errorf("export leads: %w", err)
	}

	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: "leads.csv",
		MIME:     "text/csv",
	}
	return c.Send(doc)
}

// notifyAdmin forwards a fresh lead to the administrator.
func (h *Handlers) notifyAdmin(c tele.Context, lead *leads.Lead) error {
	if h.deps.AdminID == 0 {
		return nil
	}
	text := "📨 Новая заявка!\n\n" +
		fmt.Sprintf("👤 %s\n📱 %s\n📧 %s\n", lead.Name, lead.Phone, lead.Email)
	if lead.Message != "" {
		text += "💬 " + lead.Message + "\n"
	}
	text += fmt.Sprintf("\n🆔 user_id: %d", lead.UserID)

	if _, err := c.Bot().Send(&tele.User{ID: h.deps.AdminID}, text); err != nil {
		logger.Leads.Warn("admin notify failed",
			slog.Int("lead_id", lead.ID),
			slog.String("err", err.Error()),
		)
	}
	return nil
}
