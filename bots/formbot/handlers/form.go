package handlers

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	tele "gopkg.in/telebot.v4"

	"meatbot/core/telegram/format"
	tghelpers "meatbot/core/telegram/helpers"
	"meatbot/core/telegram/keyboard"
	"meatbot/core/telegram/state"
)

// Form conversation states.
const (
	stFormName    state.State = "form_name"
	stFormPhone   state.State = "form_phone"
	stFormEmail   state.State = "form_email"
	stFormMessage state.State = "form_message"
	stFormConfirm state.State = "form_confirm"
)

// Temp data keys for collected form fields.
const (
	tmpName    = "form_name"
	tmpPhone   = "form_phone"
	tmpEmail   = "form_email"
	tmpMessage = "form_message"
)

func (h *Handlers) registerFormStates() {
	state.RegisterHandler(stFormName, h.formName)
	state.RegisterHandler(stFormPhone, h.formPhone)
	state.RegisterHandler(stFormEmail, h.formEmail)
	state.RegisterHandler(stFormMessage, h.formMessage)
	state.RegisterHandler(stFormConfirm, h.formConfirmReminder)
}

func sharePhoneMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(markup.Row(markup.Contact("📱 Поделиться номером")))
	return markup
}

func skipMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(cbFormAction, actSkip, "⏭ Пропустить")
}

func confirmMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Отправить", Unique: cbFormAction, Data: actConfirm}},
		[]keyboard.InlineBtn{{Text: "🔄 Заполнить заново", Unique: cbFormAction, Data: actRestart}},
		[]keyboard.InlineBtn{{Text: "❌ Отменить", Unique: cbFormAction, Data: actCancel}},
	)
}

// Start begins the form, or tells the user to wait out the cooldown.
func (h *Handlers) Start(c tele.Context) error {
	userID := c.Sender().ID
	h.mu.Lock()
	last, seen := h.lastSeen[userID]
	wait := h.deps.Cooldown - h.now().Sub(last)
	h.mu.Unlock()
	if seen && wait > 0 {
		return tghelpers.SendText(c,
			fmt.Sprintf("Вы недавно оставляли заявку. Следующую можно отправить через %d мин.",
				int(wait.Minutes())+1))
	}

	h.deps.FSM.Clear(userID)
	h.deps.FSM.SetState(userID, stFormName)
	return tghelpers.SendMD(c,
		"📝 *Шаг 1 из 4: Ваше имя*\n\nКак к вам обращаться? От 2 до 50 символов.")
}

// Cancel aborts the form at any step.
func (h *Handlers) Cancel(c tele.Context) error {
	userID := c.Sender().ID
	if !h.deps.FSM.InProgress(userID) {
		return tghelpers.SendText(c, "Сейчас нечего отменять. Отправьте /start, чтобы оставить заявку.")
	}
	h.deps.FSM.Clear(userID)
	return tghelpers.SendText(c, "Заполнение отменено. Возвращайтесь!",
		&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

func (h *Handlers) formName(c tele.Context) error {
	name := strings.TrimSpace(c.Text())
	if err := validName(name); err != nil {
		return tghelpers.SendText(c, "Имя должно быть от 2 до 50 символов. Попробуйте ещё раз.")
	}
	userID := c.Sender().ID
	h.deps.FSM.SetTemp(userID, tmpName, name)
	h.deps.FSM.SetState(userID, stFormPhone)
	return tghelpers.SendMD(c,
		"📱 *Шаг 2 из 4: Телефон*\n\nВведите номер или поделитесь контактом.\nФормат: +79991234567 или 89991234567.",
		sharePhoneMarkup())
}

func (h *Handlers) formPhone(c tele.Context) error {
	raw := c.Text()
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		raw = msg.Contact.PhoneNumber
	}
	phone, err := normalizePhone(raw)
	if err != nil {
		return tghelpers.SendText(c, "Не похоже на номер телефона. Пример: +79991234567.")
	}
	userID := c.Sender().ID
	h.deps.FSM.SetTemp(userID, tmpPhone, phone)
	h.deps.FSM.SetState(userID, stFormEmail)
	return tghelpers.SendText(c,
		"📧 Шаг 3 из 4: Email\n\nВведите адрес электронной почты.",
		&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

func (h *Handlers) formEmail(c tele.Context) error {
	email := strings.TrimSpace(c.Text())
	if err := validEmail(email); err != nil {
		return tghelpers.SendText(c, "Не похоже на email. Пример: example@mail.com.")
	}
	userID := c.Sender().ID
	h.deps.FSM.SetTemp(userID, tmpEmail, email)
	h.deps.FSM.SetState(userID, stFormMessage)
	return tghelpers.SendMD(c,
		fmt.Sprintf("💬 *Шаг 4 из 4: Сообщение*\n\nНапишите сообщение или комментарий, до %d символов. Этот шаг можно пропустить.", MaxMessageLen),
		skipMarkup())
}

func (h *Handlers) formMessage(c tele.Context) error {
	message := strings.TrimSpace(c.Text())
	if err := validMessage(message); err != nil {
		return tghelpers.SendText(c,
			fmt.Sprintf("Сообщение слишком длинное — максимум %d символов.", MaxMessageLen))
	}
	return h.acceptMessage(c, message)
}

func (h *Handlers) acceptMessage(c tele.Context, message string) error {
	userID := c.Sender().ID
	h.deps.FSM.SetTemp(userID, tmpMessage, message)
	h.deps.FSM.SetState(userID, stFormConfirm)

	name, _ := h.deps.FSM.GetTemp(userID, tmpName)
	phone, _ := h.deps.FSM.GetTemp(userID, tmpPhone)
	email, _ := h.deps.FSM.GetTemp(userID, tmpEmail)
	shown := message
	if shown == "" {
		shown = "—"
	}

	var b strings.Builder
	b.WriteString("✅ *Проверьте данные:*\n\n")
	fmt.Fprintf(&b, "👤 Имя: %s\n", format.EscapeMD(cast.ToString(name)))
	fmt.Fprintf(&b, "📱 Телефон: %s\n", cast.ToString(phone))
	fmt.Fprintf(&b, "📧 Email: %s\n", format.EscapeMD(cast.ToString(email)))
	fmt.Fprintf(&b, "💬 Сообщение: %s\n\nВсё верно?", format.EscapeMD(shown))
	return tghelpers.SendMD(c, b.String(), confirmMarkup())
}

// formConfirmReminder nudges users who type instead of pressing a button.
func (h *Handlers) formConfirmReminder(c tele.Context) error {
	return tghelpers.SendText(c, "Используйте кнопки ниже, чтобы отправить или отменить заявку 👇",
		&tele.SendOptions{ReplyMarkup: confirmMarkup()})
}

// FormAction handles the skip/confirm/restart/cancel inline buttons.
func (h *Handlers) FormAction(c tele.Context) error {
	userID := c.Sender().ID
	action := ""
	if cb := c.Callback(); cb != nil {
		action = cb.Data
	}

	switch action {
	case actCancel:
		h.deps.FSM.Clear(userID)
		return tghelpers.SendText(c, "Заполнение отменено. Возвращайтесь!")
	case actRestart:
		h.deps.FSM.Clear(userID)
		h.deps.FSM.SetState(userID, stFormName)
		return tghelpers.SendMD(c, "📝 *Шаг 1 из 4: Ваше имя*\n\nКак к вам обращаться?")
	case actSkip:
		if h.deps.FSM.GetState(userID) != stFormMessage {
			return tghelpers.SendText(c, "Эта кнопка уже неактуальна.")
		}
		return h.acceptMessage(c, "")
	case actConfirm:
		if h.deps.FSM.GetState(userID) != stFormConfirm {
			return tghelpers.SendText(c, "Эта кнопка уже неактуальна.")
		}
		return h.submit(c)
	}
	return tghelpers.SendText(c, "Неизвестное действие.")
}

func (h *Handlers) submit(c tele.Context) error {
	userID := c.Sender().ID

	if wait, ok := h.markSubmission(userID); !ok {
		h.deps.FSM.Clear(userID)
		return tghelpers.SendText(c,
			fmt.Sprintf("Вы недавно оставляли заявку. Следующую можно отправить через %d мин.",
				int(wait.Minutes())+1))
	}

	name, _ := h.deps.FSM.GetTemp(userID, tmpName)
	phone, _ := h.deps.FSM.GetTemp(userID, tmpPhone)
	email, _ := h.deps.FSM.GetTemp(userID, tmpEmail)
	message, _ := h.deps.FSM.GetTemp(userID, tmpMessage)
	h.deps.FSM.Clear(userID)

	lead, err := h.deps.Store.Append(userID,
		cast.ToString(name), cast.ToString(phone), cast.ToString(email), cast.ToString(message))
	if err != nil {
		return tghelpers.SendText(c,
			"Не получилось сохранить заявку. Попробуйте позже, пожалуйста.")
	}

	if err := tghelpers.SendMD(c,
		"🎉 *Заявка отправлена!*\n\nСпасибо за обращение, мы свяжемся с вами в ближайшее время."); err != nil {
		return err
	}
	return h.notifyAdmin(c, lead)
}
