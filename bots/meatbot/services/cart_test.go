package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
)

type fakeCartStore struct {
	items map[int64]*models.CartItem // by product id, single user
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{items: make(map[int64]*models.CartItem)}
}

func (f *fakeCartStore) Add(_ context.Context, userID, productID int64, quantity int, price decimal.Decimal) (*models.CartItem, error) {
	if item, ok := f.items[productID]; ok {
		item.Quantity += quantity
		return item, nil
	}
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity, PriceAtAdd: price}
	f.items[productID] = item
	return item, nil
}

func (f *fakeCartStore) SetQuantity(_ context.Context, _, productID int64, quantity int) error {
	item, ok := f.items[productID]
	if !ok {
		return storage.ErrNotFound
	}
	item.Quantity = quantity
	return nil
}

func (f *fakeCartStore) Remove(_ context.Context, _, productID int64) error {
	if _, ok := f.items[productID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.items, productID)
	return nil
}

func (f *fakeCartStore) Clear(context.Context, int64) error {
	f.items = make(map[int64]*models.CartItem)
	return nil
}

func (f *fakeCartStore) Lines(context.Context, int64) ([]models.CartLine, error) {
	var out []models.CartLine
	for _, item := range f.items {
		out = append(out, models.CartLine{CartItem: *item, IsAvailable: true})
	}
	return out, nil
}

func (f *fakeCartStore) RefreshPrices(context.Context, int64) error {
	return nil
}

type fakeProducts struct {
	products map[int64]*models.Product
}

func (f *fakeProducts) Product(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func testCart() (*CartService, *fakeCartStore) {
	store := newFakeCartStore()
	svc := &CartService{
		store: store,
		catalog: &fakeProducts{products: map[int64]*models.Product{
			10: {ID: 10, Name: "Вырезка", Price: decimal.NewFromInt(1200), IsAvailable: true},
			11: {ID: 11, Name: "Архивный", Price: decimal.NewFromInt(500), IsAvailable: false},
		}},
	}
	return svc, store
}

func TestCartAddSnapshotsPrice(t *testing.T) {
	ctx := context.Background()
	svc, store := testCart()

	item, err := svc.Add(ctx, 7, 10, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !item.PriceAtAdd.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("price snapshot = %s", item.PriceAtAdd)
	}

	// Adding again increments quantity on the same position.
	item, err = svc.Add(ctx, 7, 10, 1)
	if err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", item.Quantity)
	}
	if len(store.items) != 1 {
		t.Errorf("positions = %d, want 1", len(store.items))
	}
}

func TestCartAddRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := testCart()

	if _, err := svc.Add(ctx, 7, 11, 1); err == nil {
		t.Fatal("unavailable product accepted")
	}
	if _, err := svc.Add(ctx, 7, 10, 0); err == nil {
		t.Fatal("zero quantity accepted")
	}
}

func TestCartSetQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	svc, store := testCart()

	if _, err := svc.Add(ctx, 7, 10, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.SetQuantity(ctx, 7, 10, 0); err != nil {
		t.Fatalf("SetQuantity(0): %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("positions = %d, want 0", len(store.items))
	}
}

func TestCartSubtotal(t *testing.T) {
	svc, _ := testCart()
	lines := []models.CartLine{
		{CartItem: models.CartItem{Quantity: 2, PriceAtAdd: decimal.NewFromInt(1200)}},
		{CartItem: models.CartItem{Quantity: 3, PriceAtAdd: decimal.RequireFromString("450.50")}},
	}
	got := svc.Subtotal(lines)
	want := decimal.RequireFromString("3751.50")
	if !got.Equal(want) {
		t.Fatalf("Subtotal = %s, want %s", got, want)
	}
	if !svc.Subtotal(nil).Equal(decimal.Zero) {
		t.Fatal("empty cart subtotal not zero")
	}
}
