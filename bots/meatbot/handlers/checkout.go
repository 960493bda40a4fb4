package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/services"
	tghelpers "meatbot/core/telegram/helpers"
	"meatbot/core/telegram/keyboard"
	"meatbot/core/telegram/state"
)

// Checkout conversation states.
const (
	stCheckoutPhone      state.State = "checkout_phone"
	stCheckoutAddress    state.State = "checkout_address"
	stCheckoutNotes      state.State = "checkout_notes"
	stCheckoutPayment    state.State = "checkout_payment"
	stCheckoutPaymentDoc state.State = "checkout_payment_doc"
)

// Temp data keys for the collected checkout fields.
const (
	tmpPhone   = "co_phone"
	tmpAddress = "co_address"
	tmpNotes   = "co_notes"
)

func (h *Handlers) registerCheckoutStates() {
	state.RegisterHandler(stCheckoutPhone, h.checkoutPhone)
	state.RegisterHandler(stCheckoutAddress, h.checkoutAddress)
	state.RegisterHandler(stCheckoutNotes, h.checkoutNotes)
	state.RegisterHandler(stCheckoutPayment, h.checkoutPaymentReminder)
	state.RegisterHandler(stCheckoutPaymentDoc, h.checkoutPaymentDoc)
}

// StartCheckout begins the conversation from the cart view.
func (h *Handlers) StartCheckout(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "checkout.start")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	lines, err := h.deps.Cart.Lines(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return tghelpers.SendText(c, "Корзина пуста — оформлять нечего.")
	}

	h.deps.FSM.Clear(user.TelegramID)
	h.deps.FSM.SetState(user.TelegramID, stCheckoutPhone)

	if err := tghelpers.SendText(c,
		"📞 Укажите телефон для связи: введите номер или поделитесь контактом.",
		&tele.SendOptions{ReplyMarkup: keyboards.SharePhone()}); err != nil {
		return err
	}
	saved := ""
	if user.HasSavedContact() {
		saved = user.Phone.String
	}
	return tghelpers.SendText(c, "Или выберите вариант:", &tele.SendOptions{
		ReplyMarkup: keyboards.PhoneStep(saved),
	})
}

// checkoutPhone accepts a typed number or a shared contact.
func (h *Handlers) checkoutPhone(c tele.Context) error {
	raw := c.Text()
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		raw = msg.Contact.PhoneNumber
	}

	phone, err := services.NormalizePhone(raw)
	if err != nil {
		return tghelpers.SendText(c,
			"Не похоже на номер телефона. Пример: +79161234567. Попробуйте ещё раз.")
	}
	return h.acceptPhone(c, phone)
}

func (h *Handlers) acceptPhone(c tele.Context, phone string) error {
	ctx := tghelpers.WithHandler(c, "checkout.phone")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	h.deps.FSM.SetTemp(user.TelegramID, tmpPhone, phone)
	if err := h.deps.Users.SavePhone(ctx, user.ID, phone); err != nil {
		return fmt.Errorf("save phone: %w", err)
	}
	h.deps.FSM.SetState(user.TelegramID, stCheckoutAddress)

	if err := tghelpers.SendText(c, "Телефон сохранён: "+phone,
		&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()}); err != nil {
		return err
	}
	saved := ""
	if user.HasSavedAddress() {
		saved = user.Address.String
	}
	prompt := "🏠 Укажите адрес доставки: улица, дом, квартира."
	if saved != "" {
		prompt += "\n\nСохранённый адрес: " + saved
	}
	return tghelpers.SendText(c, prompt, &tele.SendOptions{
		ReplyMarkup: keyboards.AddressStep(saved),
	})
}

// checkoutAddress accepts the typed delivery address.
func (h *Handlers) checkoutAddress(c tele.Context) error {
	address := strings.TrimSpace(c.Text())
	if err := services.ValidateAddress(address); err != nil {
		return tghelpers.SendText(c,
			fmt.Sprintf("Слишком короткий адрес — нужно хотя бы %d символов. Укажите улицу, дом и квартиру.",
				services.MinAddressLen))
	}
	return h.acceptAddress(c, address)
}

func (h *Handlers) acceptAddress(c tele.Context, address string) error {
	ctx := tghelpers.WithHandler(c, "checkout.address")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	h.deps.FSM.SetTemp(user.TelegramID, tmpAddress, address)
	if err := h.deps.Users.SaveAddress(ctx, user.ID, address); err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	h.deps.FSM.SetState(user.TelegramID, stCheckoutNotes)

	saved := ""
	if user.HasSavedNotes() {
		saved = user.DeliveryNotes.String
	}
	prompt := "📝 Комментарий для курьера? Код домофона, этаж, удобное время."
	if saved != "" {
		prompt += "\n\nСохранённый комментарий: " + saved
	}
	return tghelpers.SendText(c, prompt, &tele.SendOptions{
		ReplyMarkup: keyboards.NotesStep(saved),
	})
}

// checkoutNotes accepts typed courier notes.
func (h *Handlers) checkoutNotes(c tele.Context) error {
	notes := strings.TrimSpace(c.Text())
	if err := services.ValidateNotes(notes); err != nil {
		return tghelpers.SendText(c,
			fmt.Sprintf("Комментарий слишком длинный — максимум %d символов.", services.MaxNotesLen))
	}
	return h.acceptNotes(c, notes)
}

func (h *Handlers) acceptNotes(c tele.Context, notes string) error {
	ctx := tghelpers.WithHandler(c, "checkout.notes")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	h.deps.FSM.SetTemp(user.TelegramID, tmpNotes, notes)
	if notes != "" {
		if err := h.deps.Users.SaveNotes(ctx, user.ID, notes); err != nil {
			return fmt.Errorf("save notes: %w", err)
		}
	}
	h.deps.FSM.SetState(user.TelegramID, stCheckoutPayment)

	return tghelpers.SendText(c, "💰 Как будете оплачивать?", &tele.SendOptions{
		ReplyMarkup: keyboards.PaymentMethods(),
	})
}

// checkoutPaymentReminder nudges users who type instead of pressing a button.
func (h *Handlers) checkoutPaymentReminder(c tele.Context) error {
	return tghelpers.SendText(c, "Выберите способ оплаты кнопкой ниже 👇", &tele.SendOptions{
		ReplyMarkup: keyboards.PaymentMethods(),
	})
}

// CheckoutOption handles the use-saved / skip / cancel inline buttons; which
// field they apply to depends on the current conversation state.
func (h *Handlers) CheckoutOption(c tele.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	option := ""
	if cb := c.Callback(); cb != nil {
		option = cb.Data
	}

	if option == keyboards.OptCancel {
		h.deps.FSM.Clear(user.TelegramID)
		return tghelpers.SendText(c, "Оформление отменено. Корзина сохранена.",
			&tele.SendOptions{ReplyMarkup: keyboards.MainMenu()})
	}

	switch h.deps.FSM.GetState(user.TelegramID) {
	case stCheckoutPhone:
		if option == keyboards.OptUseSaved && user.HasSavedContact() {
			return h.acceptPhone(c, user.Phone.String)
		}
	case stCheckoutAddress:
		if option == keyboards.OptUseSaved && user.HasSavedAddress() {
			return h.acceptAddress(c, user.Address.String)
		}
	case stCheckoutNotes:
		if option == keyboards.OptSkip {
			return h.acceptNotes(c, "")
		}
		if option == keyboards.OptUseSaved && user.HasSavedNotes() {
			return h.acceptNotes(c, user.DeliveryNotes.String)
		}
	}
	return tghelpers.SendText(c, "Эта кнопка уже неактуальна")
}

// SelectPaymentMethod finishes checkout for cash or switches to the
// payment confirmation step for transfers.
func (h *Handlers) SelectPaymentMethod(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "checkout.payment")
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if h.deps.FSM.GetState(user.TelegramID) != stCheckoutPayment {
		return tghelpers.SendText(c, "Эта кнопка уже неактуальна")
	}

	method := models.PaymentMethod("")
	if cb := c.Callback(); cb != nil {
		method = models.PaymentMethod(cb.Data)
	}

	switch method {
	case models.PayCash:
		return h.placeOrder(c, user, models.PayCash, models.PaymentPending)
	case models.PayTransfer:
		h.deps.FSM.SetState(user.TelegramID, stCheckoutPaymentDoc)
		msg, err := h.deps.Payments.Message(ctx, "")
		if err != nil {
			return fmt.Errorf("payment message: %w", err)
		}
		return tghelpers.SendText(c, msg)
	}
	return tghelpers.SendText(c, "Неизвестный способ оплаты")
}

// checkoutPaymentDoc waits for a photo or document confirming the transfer.
func (h *Handlers) checkoutPaymentDoc(c tele.Context) error {
	msg := c.Message()
	if msg == nil || (msg.Photo == nil && msg.Document == nil) {
		return tghelpers.SendText(c,
			"Отправьте фото или файл с подтверждением перевода, либо отмените оформление.",
			&tele.SendOptions{ReplyMarkup: keyboard.SingleCancelMarkup(keyboards.CbCheckoutOpt, keyboards.OptCancel, "❌ Отменить")})
	}
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return h.placeOrder(c, user, models.PayTransfer, models.PaymentPaid)
}

func (h *Handlers) placeOrder(c tele.Context, user *models.User, method models.PaymentMethod, payStatus models.PaymentStatus) error {
	ctx := tghelpers.WithHandler(c, "checkout.place")
	tgID := user.TelegramID

	phone, _ := h.deps.FSM.GetTemp(tgID, tmpPhone)
	address, _ := h.deps.FSM.GetTemp(tgID, tmpAddress)
	notes, _ := h.deps.FSM.GetTemp(tgID, tmpNotes)

	order, err := h.deps.Orders.Create(ctx, user.ID, services.Checkout{
		Phone:         cast.ToString(phone),
		Address:       cast.ToString(address),
		DeliveryNotes: cast.ToString(notes),
		PaymentMethod: method,
		PaymentStatus: payStatus,
	})
	if err != nil {
		h.deps.FSM.Clear(tgID)
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return tghelpers.SendText(c, "Корзина пуста — заказ не создан.")
		case errors.Is(err, services.ErrProductUnavailable):
			return tghelpers.SendText(c,
				"Часть товаров закончилась, пока вы оформляли заказ. Проверьте корзину.")
		}
		return fmt.Errorf("create order: %w", err)
	}

	h.deps.FSM.Clear(tgID)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Заказ *%s* принят!\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "Сумма: %s\n", h.deps.Prices.Format(order.Total))
	fmt.Fprintf(&b, "Оплата: %s\n", method.Label())
	if payStatus == models.PaymentPaid {
		b.WriteString("Платёж получен, спасибо!\n")
	}
	b.WriteString("\nМенеджер свяжется с вами для подтверждения.")
	return tghelpers.SendMD(c, b.String(), keyboards.MainMenu())
}
