package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
)

type fakeOrderStore struct {
	lastNumber string
	taken      map[string]bool // numbers held by a concurrent checkout
	orders     map[int64]*models.Order
	items      map[int64][]models.OrderItem
	nextID     int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
		nextID: 1,
	}
}

func (f *fakeOrderStore) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	if f.lastNumber == "" || len(f.lastNumber) < len(prefix) || f.lastNumber[:len(prefix)] != prefix {
		return "", storage.ErrNotFound
	}
	return f.lastNumber, nil
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	if f.taken[order.OrderNumber] {
		// The competing row becomes visible once our insert is rejected.
		f.lastNumber = order.OrderNumber
		return nil, storage.ErrDuplicate
	}
	created := *order
	created.ID = f.nextID
	f.nextID++
	f.orders[created.ID] = &created
	f.items[created.ID] = items
	f.lastNumber = created.OrderNumber
	return &created, nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeOrderStore) Items(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) ActiveByUser(_ context.Context, userID int64, _, _ int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID && !o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) HistoryByUser(_ context.Context, userID int64, _, _ int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID && o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListByStatus(_ context.Context, status models.OrderStatus, _, _ int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id int64, status models.OrderStatus, payment *models.PaymentStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	o.Status = status
	if payment != nil {
		o.PaymentStatus = *payment
	}
	return nil
}

func (f *fakeOrderStore) Stats(context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: make(map[models.OrderStatus]int)}
	for _, o := range f.orders {
		stats.ByStatus[o.Status]++
		stats.TotalOrders++
		stats.Revenue = stats.Revenue.Add(o.Total)
	}
	return stats, nil
}

type fakeCart struct {
	lines []models.CartLine
}

func (f *fakeCart) Lines(context.Context, int64) ([]models.CartLine, error) {
	return f.lines, nil
}

func line(productID int64, name string, price int64, qty int, available bool) models.CartLine {
	return models.CartLine{
		CartItem: models.CartItem{
			ProductID:  productID,
			Quantity:   qty,
			PriceAtAdd: decimal.NewFromInt(price),
		},
		ProductName: name,
		Unit:        "кг",
		IsAvailable: available,
	}
}

func testOrders(lines ...models.CartLine) (*OrderService, *fakeOrderStore) {
	store := newFakeOrderStore()
	svc := &OrderService{
		store: store,
		cart:  &fakeCart{lines: lines},
		now: func() time.Time {
			return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		},
	}
	return svc, store
}

func TestOrderCreate(t *testing.T) {
	ctx := context.Background()
	svc, store := testOrders(
		line(10, "Вырезка", 1200, 2, true),
		line(11, "Рёбра", 450, 1, true),
	)

	order, err := svc.Create(ctx, 7, Checkout{
		Phone:         "+79161234567",
		Address:       "ул. Ленина, 10, кв. 5",
		PaymentMethod: models.PayCash,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.OrderNumber != "ORD-20260830-0001" {
		t.Errorf("order number = %q", order.OrderNumber)
	}
	if order.Status != models.OrderPending {
		t.Errorf("status = %q", order.Status)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Errorf("payment status = %q", order.PaymentStatus)
	}
	if want := decimal.NewFromInt(2850); !order.Subtotal.Equal(want) {
		t.Errorf("subtotal = %s, want %s", order.Subtotal, want)
	}
	if !order.Total.Equal(order.Subtotal) {
		t.Errorf("total = %s with zero delivery, want %s", order.Total, order.Subtotal)
	}

	items := store.items[order.ID]
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ProductName != "Вырезка" || items[0].Quantity != 2 {
		t.Errorf("first item snapshot wrong: %+v", items[0])
	}
	if want := decimal.NewFromInt(2400); !items[0].Total.Equal(want) {
		t.Errorf("first line total = %s, want %s", items[0].Total, want)
	}

	// Second order the same day continues the sequence.
	second, err := svc.Create(ctx, 7, Checkout{
		Phone:   "+79161234567",
		Address: "ул. Ленина, 10, кв. 5",
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.OrderNumber != "ORD-20260830-0002" {
		t.Errorf("second order number = %q", second.OrderNumber)
	}
}

func TestOrderCreateEmptyCart(t *testing.T) {
	svc, _ := testOrders()
	_, err := svc.Create(context.Background(), 7, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10"})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestOrderCreateUnavailableProduct(t *testing.T) {
	svc, _ := testOrders(line(10, "Вырезка", 1200, 1, false))
	_, err := svc.Create(context.Background(), 7, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10"})
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("err = %v, want ErrProductUnavailable", err)
	}
}

func TestOrderCreatePaidTransfer(t *testing.T) {
	svc, _ := testOrders(line(10, "Вырезка", 1200, 1, true))
	order, err := svc.Create(context.Background(), 7, Checkout{
		Phone:         "+79161234567",
		Address:       "ул. Ленина, 10, кв. 5",
		PaymentMethod: models.PayTransfer,
		PaymentStatus: models.PaymentPaid,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid {
		t.Errorf("payment status = %q, want paid", order.PaymentStatus)
	}
}

func TestOrderCancel(t *testing.T) {
	ctx := context.Background()
	svc, store := testOrders(line(10, "Вырезка", 1200, 1, true))

	order, err := svc.Create(ctx, 7, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10, кв. 5"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Cancel(ctx, order.ID, 7); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got := store.orders[order.ID]
	if got.Status != models.OrderCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
	if got.PaymentStatus != models.PaymentRefunded {
		t.Errorf("payment status = %q, want refunded", got.PaymentStatus)
	}

	// Cancelling again must fail.
	if err := svc.Cancel(ctx, order.ID, 7); !errors.Is(err, ErrOrderFinished) {
		t.Fatalf("second cancel err = %v, want ErrOrderFinished", err)
	}
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	ctx := context.Background()
	svc, store := testOrders(line(10, "Вырезка", 1200, 1, true))

	// A concurrent same-day checkout grabs -0001 between our number
	// generation and insert.
	store.taken = map[string]bool{"ORD-20260830-0001": true}

	order, err := svc.Create(ctx, 7, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10, кв. 5"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.OrderNumber != "ORD-20260830-0002" {
		t.Errorf("order number = %q, want ORD-20260830-0002", order.OrderNumber)
	}
}

func TestOrderNumberCollisionGivesUp(t *testing.T) {
	svc, store := testOrders(line(10, "Вырезка", 1200, 1, true))
	store.taken = map[string]bool{
		"ORD-20260830-0001": true,
		"ORD-20260830-0002": true,
		"ORD-20260830-0003": true,
	}

	_, err := svc.Create(context.Background(), 7, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10, кв. 5"})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate after exhausted retries", err)
	}
}

func TestOrderOwnership(t *testing.T) {
	ctx := context.Background()
	svc, store := testOrders(line(10, "Вырезка", 1200, 1, true))

	order, err := svc.Create(ctx, 42, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10, кв. 5"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The owner sees the order, everyone else gets not found.
	if _, err := svc.ForUser(ctx, order.ID, 42); err != nil {
		t.Fatalf("ForUser owner: %v", err)
	}
	if _, err := svc.ForUser(ctx, order.ID, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("ForUser stranger err = %v, want ErrNotFound", err)
	}

	// A forged callback id cannot cancel someone else's order.
	if err := svc.Cancel(ctx, order.ID, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stranger cancel err = %v, want ErrNotFound", err)
	}
	got := store.orders[order.ID]
	if got.Status != models.OrderPending || got.PaymentStatus != models.PaymentPending {
		t.Errorf("order mutated by foreign cancel: status=%q payment=%q", got.Status, got.PaymentStatus)
	}
}

func TestOrderDeliveredSettlesPayment(t *testing.T) {
	ctx := context.Background()
	svc, store := testOrders(line(10, "Вырезка", 1200, 1, true))

	order, err := svc.Create(ctx, 7, Checkout{Phone: "+79161234567", Address: "ул. Ленина, 10, кв. 5"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.SetStatus(ctx, order.ID, models.OrderDelivered); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got := store.orders[order.ID]
	if got.PaymentStatus != models.PaymentPaid {
		t.Errorf("payment status = %q, want paid after delivery", got.PaymentStatus)
	}

	if err := svc.SetStatus(ctx, order.ID, "teleported"); err == nil {
		t.Fatal("unknown status accepted")
	}
}
