package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/logger"
)

type cartStore interface {
	Add(ctx context.Context, userID, productID int64, quantity int, price decimal.Decimal) (*models.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) error
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
	Lines(ctx context.Context, userID int64) ([]models.CartLine, error)
	RefreshPrices(ctx context.Context, userID int64) error
}

type productGetter interface {
	Product(ctx context.Context, id int64) (*models.Product, error)
}

// CartService manages cart contents with price snapshots.
type CartService struct {
	store   cartStore
	catalog productGetter
}

// NewCartService wires the cart service.
func NewCartService(store cartStore, catalog productGetter) *CartService {
	return &CartService{store: store, catalog: catalog}
}

// Add puts quantity units of a product into the cart, snapshotting the
// current price. Unavailable products are rejected.
func (s *CartService) Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, fmt.Errorf("product %d is not available", productID)
	}
	item, err := s.store.Add(ctx, userID, productID, quantity, product.Price)
	if err != nil {
		return nil, err
	}
	logger.SVCCart.Info("cart item added",
		slog.String("event", "add"),
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
		slog.Int("qty", item.Quantity),
	)
	return item, nil
}

// SetQuantity replaces the quantity of a position; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %d", quantity)
	}
	if quantity == 0 {
		return s.store.Remove(ctx, userID, productID)
	}
	return s.store.SetQuantity(ctx, userID, productID, quantity)
}

// Remove deletes one product from the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID int64) error {
	return s.store.Remove(ctx, userID, productID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.store.Clear(ctx, userID)
}

// Lines returns the cart joined with product data.
func (s *CartService) Lines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return s.store.Lines(ctx, userID)
}

// Subtotal sums price_at_add times quantity over the cart.
func (s *CartService) Subtotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].LineTotal())
	}
	return total
}

// RefreshPrices re-snapshots cart positions to current product prices,
// for carts that sat idle across a price change.
func (s *CartService) RefreshPrices(ctx context.Context, userID int64) error {
	return s.store.RefreshPrices(ctx, userID)
}

var _ cartStore = (*storage.CartRepo)(nil)
