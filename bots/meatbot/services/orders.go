package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/logger"
)

// Checkout carries the data collected by the checkout conversation.
type Checkout struct {
	Phone         string
	Address       string
	DeliveryNotes string
	PaymentMethod models.PaymentMethod
	PaymentStatus models.PaymentStatus
}

// Errors surfaced to checkout handlers for user-facing messages.
var (
	ErrEmptyCart          = errors.New("orders: cart is empty")
	ErrProductUnavailable = errors.New("orders: product no longer available")
	ErrOrderFinished      = errors.New("orders: order already finished")
)

// createAttempts bounds order-number regeneration on a same-day collision.
const createAttempts = 3

type orderStore interface {
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	Items(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ActiveByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error)
	HistoryByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error)
	ListByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, payment *models.PaymentStatus) error
	Stats(ctx context.Context) (*models.OrderStats, error)
}

type cartLister interface {
	Lines(ctx context.Context, userID int64) ([]models.CartLine, error)
}

// OrderService creates and manages orders.
type OrderService struct {
	store orderStore
	cart  cartLister
	now   func() time.Time
}

// NewOrderService wires the order service.
func NewOrderService(store orderStore, cart cartLister) *OrderService {
	return &OrderService{store: store, cart: cart, now: time.Now}
}

// NextNumber generates the next sequential order number for today.
func (s *OrderService) NextNumber(ctx context.Context) (string, error) {
	day := s.now()
	last, err := s.store.LastNumberWithPrefix(ctx, OrderNumberPrefix(day))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
		last = ""
	}
	return NextOrderNumber(day, last), nil
}

// Create places an order from the user's cart. The cart must be non-empty
// and every product still available; item snapshots, totals, and the cart
// clear happen in one transaction in storage.
func (s *OrderService) Create(ctx context.Context, userID int64, checkout Checkout) (*models.Order, error) {
	lines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if unavailable := lo.Filter(lines, func(l models.CartLine, _ int) bool {
		return !l.IsAvailable
	}); len(unavailable) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, unavailable[0].ProductName)
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		lineTotal := line.LineTotal()
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:   sql.NullInt64{Int64: line.ProductID, Valid: true},
			ProductName: line.ProductName,
			Unit:        line.Unit,
			Price:       line.PriceAtAdd,
			Quantity:    line.Quantity,
			Total:       lineTotal,
		})
	}

	deliveryCost := decimal.Zero
	paymentStatus := checkout.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentPending
	}

	order := &models.Order{
		UserID:        userID,
		Status:        models.OrderPending,
		PaymentStatus: paymentStatus,
		PaymentMethod: sql.NullString{String: string(checkout.PaymentMethod), Valid: checkout.PaymentMethod != ""},
		Phone:         checkout.Phone,
		Address:       checkout.Address,
		DeliveryNotes: sql.NullString{String: checkout.DeliveryNotes, Valid: checkout.DeliveryNotes != ""},
		Subtotal:      subtotal,
		DeliveryCost:  deliveryCost,
		Total:         subtotal.Add(deliveryCost),
	}

	var created *models.Order
	for attempt := 1; ; attempt++ {
		number, err := s.NextNumber(ctx)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number

		created, err = s.store.CreateWithItems(ctx, order, items)
		if err == nil {
			break
		}
		// Two same-day checkouts can race to the same number; the unique
		// index rejects the loser, which regenerates and tries again.
		if errors.Is(err, storage.ErrDuplicate) && attempt < createAttempts {
			logger.SVCOrders.Warn("order number collision",
				slog.String("event", "number_retry"),
				slog.String("order_number", number),
				slog.Int("attempt", attempt),
			)
			continue
		}
		return nil, err
	}
	logger.SVCOrders.Info("order created",
		slog.String("event", "create"),
		slog.Int64("user_id", userID),
		slog.Int64("order_id", created.ID),
		slog.String("order_number", created.OrderNumber),
		slog.Int("count", len(items)),
		slog.String("total", created.Total.StringFixed(2)),
	)
	return created, nil
}

// Get loads an order by id with no ownership filter. Admin paths only;
// customer paths go through ForUser.
func (s *OrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.store.GetByID(ctx, id)
}

// ForUser loads an order only when it belongs to the given user. Callback
// payloads are forgeable, so foreign orders read as not found.
func (s *OrderService) ForUser(ctx context.Context, id, userID int64) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return order, nil
}

// ByNumber loads an order by its public number.
func (s *OrderService) ByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.store.GetByNumber(ctx, number)
}

// Items loads the snapshot positions of an order.
func (s *OrderService) Items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return s.store.Items(ctx, orderID)
}

// Active returns the user's in-progress orders.
func (s *OrderService) Active(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	return s.store.ActiveByUser(ctx, userID, limit, offset)
}

// History returns the user's delivered and cancelled orders.
func (s *OrderService) History(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	return s.store.HistoryByUser(ctx, userID, limit, offset)
}

// ByStatus returns orders in one status for the admin queue.
func (s *OrderService) ByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	return s.store.ListByStatus(ctx, status, limit, offset)
}

// Cancel moves the user's order to cancelled and marks the payment
// refunded. Orders of other users read as not found; delivered and
// already cancelled orders cannot be cancelled.
func (s *OrderService) Cancel(ctx context.Context, id, userID int64) error {
	order, err := s.ForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		return ErrOrderFinished
	}
	refunded := models.PaymentRefunded
	if err := s.store.UpdateStatus(ctx, id, models.OrderCancelled, &refunded); err != nil {
		return err
	}
	logger.SVCOrders.Info("order cancelled",
		slog.String("event", "cancel"),
		slog.Int64("order_id", id),
		slog.String("order_number", order.OrderNumber),
	)
	return nil
}

// SetStatus transitions the order to a new status. Moving to delivered
// also settles the payment.
func (s *OrderService) SetStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown order status: %q", status)
	}
	var payment *models.PaymentStatus
	if status == models.OrderDelivered {
		paid := models.PaymentPaid
		payment = &paid
	}
	if err := s.store.UpdateStatus(ctx, id, status, payment); err != nil {
		return err
	}
	logger.SVCOrders.Info("order status changed",
		slog.String("event", "status"),
		slog.Int64("order_id", id),
		slog.String("status", "ok"),
		slog.String("to", string(status)),
	)
	return nil
}

// Stats aggregates counters for the admin dashboard.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	return s.store.Stats(ctx)
}

var _ orderStore = (*storage.OrderRepo)(nil)
