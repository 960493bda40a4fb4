package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
	corecache "meatbot/core/cache"
	"meatbot/core/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(nil); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeCache stores JSON blobs in memory and counts operations.
type fakeCache struct {
	data map[string][]byte
	gets int
	sets int
	fail bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dst any) error {
	f.gets++
	if f.fail {
		return errors.New("cache down")
	}
	raw, ok := f.data[key]
	if !ok {
		return corecache.ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	if f.fail {
		return errors.New("cache down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) DeletePattern(_ context.Context, _ string) (int, error) {
	n := len(f.data)
	f.data = make(map[string][]byte)
	return n, nil
}

// fakeCatalogStore serves canned rows and counts database hits.
type fakeCatalogStore struct {
	categories []models.Category
	products   map[int64]*models.Product
	reads      int
}

func (f *fakeCatalogStore) Categories(context.Context) ([]models.Category, error) {
	f.reads++
	return f.categories, nil
}

func (f *fakeCatalogStore) ActiveCategories(context.Context) ([]models.Category, error) {
	f.reads++
	var out []models.Category
	for _, c := range f.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	f.reads++
	for i := range f.categories {
		if f.categories[i].ID == id {
			return &f.categories[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeCatalogStore) CreateCategory(_ context.Context, name, _ string, _ int) (*models.Category, error) {
	c := models.Category{ID: int64(len(f.categories) + 1), Name: name, IsActive: true}
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeCatalogStore) UpdateCategory(context.Context, int64, string, string) error {
	return nil
}

func (f *fakeCatalogStore) SetCategoryActive(context.Context, int64, bool) error {
	return nil
}

func (f *fakeCatalogStore) CategoryProducts(_ context.Context, categoryID int64) ([]models.Product, error) {
	f.reads++
	var out []models.Product
	for _, p := range f.products {
		if p.CategoryID == categoryID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) ActiveProducts(context.Context) ([]models.Product, error) {
	f.reads++
	var out []models.Product
	for _, p := range f.products {
		if p.IsAvailable {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	f.reads++
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d not found", id)
	}
	return p, nil
}

func (f *fakeCatalogStore) CreateProduct(_ context.Context, categoryID int64, name, _, unit string, price decimal.Decimal) (*models.Product, error) {
	p := &models.Product{ID: int64(len(f.products) + 1), CategoryID: categoryID, Name: name, Unit: unit, Price: price, IsAvailable: true}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalogStore) UpdateProduct(context.Context, int64, string, string, string, decimal.Decimal) error {
	return nil
}

func (f *fakeCatalogStore) SetProductAvailable(_ context.Context, id int64, available bool) error {
	if p, ok := f.products[id]; ok {
		p.IsAvailable = available
	}
	return nil
}

func testCatalog(cache Cache) (*CatalogService, *fakeCatalogStore) {
	store := &fakeCatalogStore{
		categories: []models.Category{
			{ID: 1, Name: "Говядина", IsActive: true},
			{ID: 2, Name: "Архив", IsActive: false},
		},
		products: map[int64]*models.Product{
			10: {ID: 10, CategoryID: 1, Name: "Вырезка", Unit: "кг", Price: decimal.NewFromInt(1200), IsAvailable: true},
		},
	}
	return &CatalogService{store: store, cache: cache}, store
}

func TestCatalogCacheAside(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc, store := testCatalog(cache)

	first, err := svc.ActiveCategories(ctx)
	if err != nil {
		t.Fatalf("ActiveCategories: %v", err)
	}
	if len(first) != 1 || first[0].Name != "Говядина" {
		t.Fatalf("unexpected categories: %+v", first)
	}
	if store.reads != 1 {
		t.Fatalf("reads = %d, want 1", store.reads)
	}

	// Second call must be served from cache.
	second, err := svc.ActiveCategories(ctx)
	if err != nil {
		t.Fatalf("ActiveCategories (cached): %v", err)
	}
	if store.reads != 1 {
		t.Fatalf("reads after cached call = %d, want 1", store.reads)
	}
	if len(second) != 1 || second[0].ID != first[0].ID {
		t.Fatalf("cached categories differ: %+v", second)
	}
}

func TestCatalogCacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.fail = true
	svc, store := testCatalog(cache)

	if _, err := svc.Product(ctx, 10); err != nil {
		t.Fatalf("Product with broken cache: %v", err)
	}
	if _, err := svc.Product(ctx, 10); err != nil {
		t.Fatalf("Product second call: %v", err)
	}
	if store.reads != 2 {
		t.Fatalf("reads = %d, want 2 (no caching)", store.reads)
	}
}

func TestCatalogInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc, store := testCatalog(cache)

	if _, err := svc.Product(ctx, 10); err != nil {
		t.Fatalf("Product: %v", err)
	}
	if _, err := svc.CategoryProducts(ctx, 1); err != nil {
		t.Fatalf("CategoryProducts: %v", err)
	}
	readsBefore := store.reads

	if err := svc.SetProductAvailable(ctx, 10, false); err != nil {
		t.Fatalf("SetProductAvailable: %v", err)
	}

	// Both keys must have been dropped, so the next reads hit the store.
	if _, err := svc.Product(ctx, 10); err != nil {
		t.Fatalf("Product after invalidation: %v", err)
	}
	if _, err := svc.CategoryProducts(ctx, 1); err != nil {
		t.Fatalf("CategoryProducts after invalidation: %v", err)
	}
	// SetProductAvailable itself reads the product once for the category id.
	if got, want := store.reads, readsBefore+3; got != want {
		t.Fatalf("reads = %d, want %d", got, want)
	}
}

func TestCatalogNilCache(t *testing.T) {
	ctx := context.Background()
	svc, store := testCatalog(nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.ActiveProducts(ctx); err != nil {
			t.Fatalf("ActiveProducts: %v", err)
		}
	}
	if store.reads != 2 {
		t.Fatalf("reads = %d, want 2 (cache disabled)", store.reads)
	}
	if err := svc.FlushCache(ctx); err != nil {
		t.Fatalf("FlushCache with nil cache: %v", err)
	}
}
