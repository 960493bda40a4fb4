package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"meatbot/bots/meatbot/keyboards"
	"meatbot/bots/meatbot/models"
	"meatbot/core/telegram/callbacks"
	"meatbot/core/telegram/format"
	tghelpers "meatbot/core/telegram/helpers"
)

// ShowCatalog lists active categories.
func (h *Handlers) ShowCatalog(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "catalog")
	categories, err := h.deps.Catalog.ActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if len(categories) == 0 {
		return tghelpers.SendText(c, "Каталог пока пуст. Загляните позже!")
	}
	return tghelpers.SendText(c, "Выберите раздел:", &tele.SendOptions{
		ReplyMarkup: keyboards.Categories(categories),
	})
}

// OpenCategory shows the first page of a category's products.
func (h *Handlers) OpenCategory(c tele.Context) error {
	categoryID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("category payload: %w", err)
	}
	return h.sendProductPage(c, categoryID, 0, true)
}

// ProductPage flips between pages of a category.
func (h *Handlers) ProductPage(c tele.Context) error {
	categoryID, page, err := callbacks.PayloadTwoInt64(c, "|")
	if err != nil {
		return fmt.Errorf("product page payload: %w", err)
	}
	return h.sendProductPage(c, categoryID, int(page), true)
}

func (h *Handlers) sendProductPage(c tele.Context, categoryID int64, page int, edit bool) error {
	ctx := tghelpers.WithHandler(c, "catalog.products")

	category, err := h.deps.Catalog.Category(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	all, err := h.deps.Catalog.CategoryProducts(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	available := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.IsAvailable {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return tghelpers.EditOrSendMD(c, fmt.Sprintf("В разделе «%s» пока нет товаров.", category.Name))
	}

	size := h.deps.PageSize
	pages := (len(available) + size - 1) / size
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}
	from := page * size
	to := from + size
	if to > len(available) {
		to = len(available)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", format.EscapeMD(category.Name))
	for _, p := range available[from:to] {
		fmt.Fprintf(&b, "• %s — %s/%s\n", format.EscapeMD(p.Name), h.deps.Prices.Format(p.Price), p.Unit)
	}

	markup := keyboards.Products(available[from:to], categoryID, page, pages)
	if edit {
		return tghelpers.EditOrSendMD(c, b.String(), markup)
	}
	return tghelpers.SendMD(c, b.String(), markup)
}

// OpenProduct shows one product card with add-to-cart controls.
func (h *Handlers) OpenProduct(c tele.Context) error {
	productID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("product payload: %w", err)
	}
	ctx := tghelpers.WithHandler(c, "catalog.product")

	p, err := h.deps.Catalog.Product(ctx, productID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if !p.IsAvailable {
		return tghelpers.SendText(c, "Этого товара сейчас нет в наличии.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", format.EscapeMD(p.Name))
	if p.Description.Valid && p.Description.String != "" {
		fmt.Fprintf(&b, "%s\n", format.EscapeMD(p.Description.String))
	}
	fmt.Fprintf(&b, "\nЦена: %s/%s", h.deps.Prices.Format(p.Price), p.Unit)

	markup := keyboards.ProductCard(p.ID, p.Unit)
	if p.ImageURL.Valid && p.ImageURL.String != "" {
		photo := &tele.Photo{File: tele.FromURL(p.ImageURL.String), Caption: b.String()}
		return c.Send(photo, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup})
	}
	return tghelpers.SendMD(c, b.String(), markup)
}

// AddToCart adds the chosen quantity of a product.
func (h *Handlers) AddToCart(c tele.Context) error {
	productID, qty, err := callbacks.PayloadTwoInt64(c, "|")
	if err != nil {
		return fmt.Errorf("add to cart payload: %w", err)
	}
	ctx := tghelpers.WithHandler(c, "cart.add")

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	item, err := h.deps.Cart.Add(ctx, user.ID, productID, int(qty))
	if err != nil {
		return tghelpers.SendText(c, "Не получилось добавить товар. Попробуйте ещё раз.")
	}
	return tghelpers.SendText(c, fmt.Sprintf("Добавлено. В корзине: %d", item.Quantity))
}

func (h *Handlers) currentUser(c tele.Context) (*models.User, error) {
	ctx := tghelpers.BuildContext(c)
	user, err := tghelpers.CurrentUser(ctx, h.deps.Users, c.Sender().ID)
	if err != nil {
		// First contact without /start: register on the fly.
		sender := c.Sender()
		return h.deps.Users.Register(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	}
	return user, nil
}
