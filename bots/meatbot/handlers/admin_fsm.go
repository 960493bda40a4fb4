package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/telegram/callbacks"
	tghelpers "meatbot/core/telegram/helpers"
	"meatbot/core/telegram/state"
)

// Admin edit conversation states.
const (
	stAdmCatName      state.State = "adm_cat_name"
	stAdmCatDesc      state.State = "adm_cat_desc"
	stAdmProdName     state.State = "adm_prod_name"
	stAdmProdDesc     state.State = "adm_prod_desc"
	stAdmProdPrice    state.State = "adm_prod_price"
	stAdmProdUnit     state.State = "adm_prod_unit"
	stAdmPayBank      state.State = "adm_pay_bank"
	stAdmPayCard      state.State = "adm_pay_card"
	stAdmPayRecipient state.State = "adm_pay_recipient"
	stAdmPayInfo      state.State = "adm_pay_info"
)

// Temp data keys for admin edit flows.
const (
	tmpCatID        = "adm_cat_id"
	tmpCatName      = "adm_cat_name"
	tmpProdID       = "adm_prod_id"
	tmpProdCatID    = "adm_prod_cat_id"
	tmpProdName     = "adm_prod_name"
	tmpProdDesc     = "adm_prod_desc"
	tmpProdPrice    = "adm_prod_price"
	tmpPayBank      = "adm_pay_bank"
	tmpPayCard      = "adm_pay_card"
	tmpPayRecipient = "adm_pay_recipient"
)

// skipToken lets admins leave an optional field empty.
const skipToken = "-"

func (h *Handlers) registerAdminStates() {
	state.RegisterHandler(stAdmCatName, h.admCatName)
	state.RegisterHandler(stAdmCatDesc, h.admCatDesc)
	state.RegisterHandler(stAdmProdName, h.admProdName)
	state.RegisterHandler(stAdmProdDesc, h.admProdDesc)
	state.RegisterHandler(stAdmProdPrice, h.admProdPrice)
	state.RegisterHandler(stAdmProdUnit, h.admProdUnit)
	state.RegisterHandler(stAdmPayBank, h.admPayBank)
	state.RegisterHandler(stAdmPayCard, h.admPayCard)
	state.RegisterHandler(stAdmPayRecipient, h.admPayRecipient)
	state.RegisterHandler(stAdmPayInfo, h.admPayInfo)
}

// AdminCategory handles category actions. Payload: "action|categoryID".
func (h *Handlers) AdminCategory(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.category")
	if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageCatalog) {
		return h.adminDenied(c)
	}
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Некорректный запрос")
	}
	action := parts[0]
	id, _ := strconv.ParseInt(parts[1], 10, 64)
	tgID := c.Sender().ID

	switch action {
	case keyboards.ActAdd:
		h.deps.FSM.Clear(tgID)
		h.deps.FSM.SetTemp(tgID, tmpCatID, int64(0))
		h.deps.FSM.SetState(tgID, stAdmCatName)
		return tghelpers.SendText(c, "Название новой категории:")
	case keyboards.ActEdit:
		category, err := h.deps.Catalog.Category(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return tghelpers.SendText(c, "Категория не найдена")
			}
			return fmt.Errorf("get category: %w", err)
		}
		h.deps.FSM.Clear(tgID)
		h.deps.FSM.SetTemp(tgID, tmpCatID, id)
		h.deps.FSM.SetState(tgID, stAdmCatName)
		return tghelpers.SendText(c,
			fmt.Sprintf("Новое название категории (сейчас: %s):", category.Name))
	case keyboards.ActToggle:
		category, err := h.deps.Catalog.Category(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return tghelpers.SendText(c, "Категория не найдена")
			}
			return fmt.Errorf("get category: %w", err)
		}
		if err := h.deps.Catalog.SetCategoryActive(ctx, id, !category.IsActive); err != nil {
			return fmt.Errorf("toggle category: %w", err)
		}
		return h.adminCategories(c)
	}
	return tghelpers.SendText(c, "Неизвестное действие")
}

func (h *Handlers) admCatName(c tele.Context) error {
	name := strings.TrimSpace(c.Text())
	if name == "" {
		return tghelpers.SendText(c, "Название не может быть пустым. Попробуйте ещё раз.")
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpCatName, name)
	h.deps.FSM.SetState(tgID, stAdmCatDesc)
	return tghelpers.SendText(c, "Описание категории (или «-», чтобы оставить пустым):")
}

func (h *Handlers) admCatDesc(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.category")
	tgID := c.Sender().ID

	desc := strings.TrimSpace(c.Text())
	if desc == skipToken {
		desc = ""
	}
	idVal, _ := h.deps.FSM.GetTemp(tgID, tmpCatID)
	nameVal, _ := h.deps.FSM.GetTemp(tgID, tmpCatName)
	id := cast.ToInt64(idVal)
	name := cast.ToString(nameVal)
	h.deps.FSM.Clear(tgID)

	if id == 0 {
		if _, err := h.deps.Catalog.CreateCategory(ctx, name, desc, 0); err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		if err := tghelpers.SendText(c, "Категория «"+name+"» создана."); err != nil {
			return err
		}
	} else {
		if err := h.deps.Catalog.UpdateCategory(ctx, id, name, desc); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		if err := tghelpers.SendText(c, "Категория обновлена."); err != nil {
			return err
		}
	}
	return h.adminCategories(c)
}

// AdminProduct handles product actions. Payload: "action|id" where id is a
// category for list/add and a product for edit/toggle.
func (h *Handlers) AdminProduct(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.product")
	if !h.deps.Admins.Can(ctx, c.Sender().ID, models.PermManageCatalog) {
		return h.adminDenied(c)
	}
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Некорректный запрос")
	}
	action := parts[0]
	id, _ := strconv.ParseInt(parts[1], 10, 64)
	tgID := c.Sender().ID

	switch action {
	case keyboards.ActList:
		products, err := h.deps.Catalog.CategoryProducts(ctx, id)
		if err != nil {
			return fmt.Errorf("category products: %w", err)
		}
		return tghelpers.EditOrSendMD(c,
			"🥩 *Товары категории*\n\nНажмите на товар для редактирования, ♻️ — наличие.",
			keyboards.AdminProducts(products, id))
	case keyboards.ActAdd:
		h.deps.FSM.Clear(tgID)
		h.deps.FSM.SetTemp(tgID, tmpProdID, int64(0))
		h.deps.FSM.SetTemp(tgID, tmpProdCatID, id)
		h.deps.FSM.SetState(tgID, stAdmProdName)
		return tghelpers.SendText(c, "Название нового товара:")
	case keyboards.ActEdit:
		product, err := h.deps.Catalog.Product(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return tghelpers.SendText(c, "Товар не найден")
			}
			return fmt.Errorf("get product: %w", err)
		}
		h.deps.FSM.Clear(tgID)
		h.deps.FSM.SetTemp(tgID, tmpProdID, id)
		h.deps.FSM.SetTemp(tgID, tmpProdCatID, product.CategoryID)
		h.deps.FSM.SetState(tgID, stAdmProdName)
		return tghelpers.SendText(c,
			fmt.Sprintf("Новое название товара (сейчас: %s):", product.Name))
	case keyboards.ActToggle:
		product, err := h.deps.Catalog.Product(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return tghelpers.SendText(c, "Товар не найден")
			}
			return fmt.Errorf("get product: %w", err)
		}
		if err := h.deps.Catalog.SetProductAvailable(ctx, id, !product.IsAvailable); err != nil {
			return fmt.Errorf("toggle product: %w", err)
		}
		products, err := h.deps.Catalog.CategoryProducts(ctx, product.CategoryID)
		if err != nil {
			return fmt.Errorf("category products: %w", err)
		}
		return tghelpers.EditOrSendMD(c,
			"🥩 *Товары категории*\n\nНажмите на товар для редактирования, ♻️ — наличие.",
			keyboards.AdminProducts(products, product.CategoryID))
	}
	return tghelpers.SendText(c, "Неизвестное действие")
}

func (h *Handlers) admProdName(c tele.Context) error {
	name := strings.TrimSpace(c.Text())
	if name == "" {
		return tghelpers.SendText(c, "Название не может быть пустым. Попробуйте ещё раз.")
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpProdName, name)
	h.deps.FSM.SetState(tgID, stAdmProdDesc)
	return tghelpers.SendText(c, "Описание товара (или «-», чтобы оставить пустым):")
}

func (h *Handlers) admProdDesc(c tele.Context) error {
	desc := strings.TrimSpace(c.Text())
	if desc == skipToken {
		desc = ""
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpProdDesc, desc)
	h.deps.FSM.SetState(tgID, stAdmProdPrice)
	return tghelpers.SendText(c, "Цена, руб. Например: 1250 или 799.90")
}

func (h *Handlers) admProdPrice(c tele.Context) error {
	raw := strings.ReplaceAll(strings.TrimSpace(c.Text()), ",", ".")
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() || price.IsZero() {
		return tghelpers.SendText(c, "Нужно положительное число. Например: 1250 или 799.90")
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpProdPrice, price.String())
	h.deps.FSM.SetState(tgID, stAdmProdUnit)
	return tghelpers.SendText(c, "Единица измерения: кг, шт, упаковка (или «-» для «кг»):")
}

func (h *Handlers) admProdUnit(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.product")
	tgID := c.Sender().ID

	unit := strings.TrimSpace(c.Text())
	if unit == skipToken || unit == "" {
		unit = "кг"
	}
	id, _ := h.deps.FSM.GetTempInt64(tgID, tmpProdID)
	categoryID, _ := h.deps.FSM.GetTempInt64(tgID, tmpProdCatID)
	nameVal, _ := h.deps.FSM.GetTemp(tgID, tmpProdName)
	descVal, _ := h.deps.FSM.GetTemp(tgID, tmpProdDesc)
	priceVal, _ := h.deps.FSM.GetTemp(tgID, tmpProdPrice)
	h.deps.FSM.Clear(tgID)

	name := cast.ToString(nameVal)
	desc := cast.ToString(descVal)
	price, err := decimal.NewFromString(cast.ToString(priceVal))
	if err != nil {
		return fmt.Errorf("stored price: %w", err)
	}

	if id == 0 {
		if _, err := h.deps.Catalog.CreateProduct(ctx, categoryID, name, desc, unit, price); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if err := tghelpers.SendText(c, "Товар «"+name+"» добавлен."); err != nil {
			return err
		}
	} else {
		if err := h.deps.Catalog.UpdateProduct(ctx, id, name, desc, unit, price); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := tghelpers.SendText(c, "Товар обновлён."); err != nil {
			return err
		}
	}

	products, err := h.deps.Catalog.CategoryProducts(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("category products: %w", err)
	}
	return tghelpers.SendMD(c, "🥩 *Товары категории*", keyboards.AdminProducts(products, categoryID))
}

func (h *Handlers) startPaymentEdit(c tele.Context) error {
	tgID := c.Sender().ID
	h.deps.FSM.Clear(tgID)
	h.deps.FSM.SetState(tgID, stAdmPayBank)
	return tghelpers.SendText(c, "Название банка:")
}

func (h *Handlers) admPayBank(c tele.Context) error {
	bank := strings.TrimSpace(c.Text())
	if bank == "" {
		return tghelpers.SendText(c, "Укажите название банка.")
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpPayBank, bank)
	h.deps.FSM.SetState(tgID, stAdmPayCard)
	return tghelpers.SendText(c, "Номер карты:")
}

func (h *Handlers) admPayCard(c tele.Context) error {
	card := strings.TrimSpace(c.Text())
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, card)
	if len(digits) < 13 || len(digits) > 19 {
		return tghelpers.SendText(c, "Не похоже на номер карты. Введите 16 цифр.")
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpPayCard, card)
	h.deps.FSM.SetState(tgID, stAdmPayRecipient)
	return tghelpers.SendText(c, "Имя получателя:")
}

func (h *Handlers) admPayRecipient(c tele.Context) error {
	recipient := strings.TrimSpace(c.Text())
	if recipient == "" {
		return tghelpers.SendText(c, "Укажите имя получателя.")
	}
	tgID := c.Sender().ID
	h.deps.FSM.SetTemp(tgID, tmpPayRecipient, recipient)
	h.deps.FSM.SetState(tgID, stAdmPayInfo)
	return tghelpers.SendText(c, "Дополнительная информация для клиентов (или «-»):")
}

func (h *Handlers) admPayInfo(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin.payments")
	tgID := c.Sender().ID

	info := strings.TrimSpace(c.Text())
	if info == skipToken {
		info = ""
	}
	bankVal, _ := h.deps.FSM.GetTemp(tgID, tmpPayBank)
	cardVal, _ := h.deps.FSM.GetTemp(tgID, tmpPayCard)
	recipientVal, _ := h.deps.FSM.GetTemp(tgID, tmpPayRecipient)
	h.deps.FSM.Clear(tgID)

	settings, err := h.deps.Payments.Update(ctx,
		cast.ToString(bankVal), cast.ToString(cardVal), cast.ToString(recipientVal), info)
	if err != nil {
		return fmt.Errorf("update payments: %w", err)
	}
	if err := tghelpers.SendText(c, "Реквизиты сохранены. Карта: "+settings.MaskedCard()); err != nil {
		return err
	}
	return h.adminPaymentsView(c)
}
