package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	tghelpers "meatbot/core/telegram/helpers"
)

const aboutText = `🥩 *Мясная лавка*

Свежее мясо с доставкой. Выбирайте в каталоге, оформляйте заказ в пару касаний.

Приём заказов: ежедневно 9:00–21:00
Доставка: в день заказа при оформлении до 18:00`

const helpText = `Команды:
/catalog — каталог товаров
/cart — корзина
/orders — ваши заказы
/help — эта справка

Добавьте товары в корзину и нажмите «Оформить заказ». Бот спросит телефон, адрес и способ оплаты.`

// Start greets the customer, registers the profile, and shows the main menu.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	sender := c.Sender()

	user, err := h.deps.Users.Register(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	h.deps.FSM.Clear(sender.ID)

	greeting := fmt.Sprintf("Здравствуйте, %s! 👋\nВыбирайте мясо в каталоге — привезём свежим.", user.DisplayName())
	return tghelpers.SendText(c, greeting, &tele.SendOptions{ReplyMarkup: keyboards.MainMenu()})
}

// Help prints the command summary.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendText(c, helpText)
}

// About prints the shop card.
func (h *Handlers) About(c tele.Context) error {
	return tghelpers.SendMD(c, aboutText)
}
