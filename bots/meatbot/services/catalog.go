package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	corecache "meatbot/core/cache"
	"meatbot/core/logger"
)

// Cache is the subset of the Redis client the services need. A nil Cache
// disables caching entirely; cache errors degrade to database reads.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// Catalog cache keys and lifetimes. Full listings live longer than the
// active-only views customers hit on every browse.
const (
	keyCategories       = "catalog:categories"
	keyCategoriesActive = "catalog:categories:active"
	keyProductsActive   = "catalog:products:active"

	ttlCategories       = 1800 * time.Second
	ttlCategoriesActive = 600 * time.Second
	ttlCategoryProducts = 900 * time.Second
	ttlProduct          = 900 * time.Second
	ttlProductsActive   = 600 * time.Second
)

func keyCategoryProducts(categoryID int64) string {
	return fmt.Sprintf("catalog:category:%d:products", categoryID)
}

func keyProduct(productID int64) string {
	return fmt.Sprintf("catalog:product:%d", productID)
}

type catalogStore interface {
	Categories(ctx context.Context) ([]models.Category, error)
	ActiveCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, name, description string, sortOrder int) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name, description string) error
	SetCategoryActive(ctx context.Context, id int64, active bool) error
	CategoryProducts(ctx context.Context, categoryID int64) ([]models.Product, error)
	ActiveProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, categoryID int64, name, description, unit string, price decimal.Decimal) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, name, description, unit string, price decimal.Decimal) error
	SetProductAvailable(ctx context.Context, id int64, available bool) error
}

// CatalogService serves categories and products with a cache-aside layer
// over Redis.
type CatalogService struct {
	store catalogStore
	cache Cache
}

// NewCatalogService wires the catalog service. cache may be nil.
func NewCatalogService(store catalogStore, cache Cache) *CatalogService {
	return &CatalogService{store: store, cache: cache}
}

func (s *CatalogService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dst)
	if err == nil {
		if logger.ShouldSampleDebug() {
			logger.SVCCatalog.Debug("catalog lookup",
				slog.String("event", "lookup"),
				slog.String("cache", "hit"),
				slog.String("key", key),
			)
		}
		return true
	}
	if !errors.Is(err, corecache.ErrMiss) {
		logger.SVCCatalog.Warn("cache read failed",
			slog.String("event", "lookup"),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	}
	return false
}

func (s *CatalogService) fill(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		logger.SVCCatalog.Warn("cache write failed",
			slog.String("event", "fill"),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	}
}

func (s *CatalogService) invalidateCategory(ctx context.Context, categoryID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx,
		keyCategories, keyCategoriesActive,
		keyCategoryProducts(categoryID), keyProductsActive,
	); err != nil {
		logger.SVCCatalog.Warn("cache invalidate failed",
			slog.String("event", "invalidate"),
			slog.Int64("category_id", categoryID),
			slog.String("err", err.Error()),
		)
	}
}

func (s *CatalogService) invalidateProduct(ctx context.Context, productID, categoryID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx,
		keyProduct(productID), keyCategoryProducts(categoryID), keyProductsActive,
	); err != nil {
		logger.SVCCatalog.Warn("cache invalidate failed",
			slog.String("event", "invalidate"),
			slog.Int64("product_id", productID),
			slog.String("err", err.Error()),
		)
	}
}

// FlushCache drops the whole catalog keyspace.
func (s *CatalogService) FlushCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	removed, err := s.cache.DeletePattern(ctx, "catalog:*")
	if err != nil {
		return fmt.Errorf("flush catalog cache: %w", err)
	}
	logger.SVCCatalog.Info("catalog cache flushed",
		slog.String("event", "flush"),
		slog.Int("count", removed),
	)
	return nil
}

// Categories returns every category, cached.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if s.cached(ctx, keyCategories, &out) {
		return out, nil
	}
	out, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyCategories, out, ttlCategories)
	return out, nil
}

// ActiveCategories returns customer-visible categories, cached.
func (s *CatalogService) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if s.cached(ctx, keyCategoriesActive, &out) {
		return out, nil
	}
	out, err := s.store.ActiveCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyCategoriesActive, out, ttlCategoriesActive)
	return out, nil
}

// Category loads one category, bypassing the cache. Admin edit flows need
// the authoritative row.
func (s *CatalogService) Category(ctx context.Context, id int64) (*models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// CategoryProducts returns a category's products, cached.
func (s *CatalogService) CategoryProducts(ctx context.Context, categoryID int64) ([]models.Product, error) {
	key := keyCategoryProducts(categoryID)
	var out []models.Product
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	out, err := s.store.CategoryProducts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, out, ttlCategoryProducts)
	return out, nil
}

// ActiveProducts returns every orderable product, cached.
func (s *CatalogService) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if s.cached(ctx, keyProductsActive, &out) {
		return out, nil
	}
	out, err := s.store.ActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyProductsActive, out, ttlProductsActive)
	return out, nil
}

// Product returns one product, cached.
func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	key := keyProduct(id)
	var p models.Product
	if s.cached(ctx, key, &p) {
		return &p, nil
	}
	fresh, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, fresh, ttlProduct)
	return fresh, nil
}

// CreateCategory adds a category and invalidates category listings.
func (s *CatalogService) CreateCategory(ctx context.Context, name, description string, sortOrder int) (*models.Category, error) {
	c, err := s.store.CreateCategory(ctx, name, description, sortOrder)
	if err != nil {
		return nil, err
	}
	s.invalidateCategory(ctx, c.ID)
	logger.SVCCatalog.Info("category created",
		slog.String("event", "category.create"),
		slog.Int64("category_id", c.ID),
	)
	return c, nil
}

// UpdateCategory edits a category and invalidates category listings.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, name, description string) error {
	if err := s.store.UpdateCategory(ctx, id, name, description); err != nil {
		return err
	}
	s.invalidateCategory(ctx, id)
	return nil
}

// SetCategoryActive toggles a category and invalidates category listings.
func (s *CatalogService) SetCategoryActive(ctx context.Context, id int64, active bool) error {
	if err := s.store.SetCategoryActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidateCategory(ctx, id)
	return nil
}

// CreateProduct adds a product and invalidates affected keys.
func (s *CatalogService) CreateProduct(ctx context.Context, categoryID int64, name, description, unit string, price decimal.Decimal) (*models.Product, error) {
	p, err := s.store.CreateProduct(ctx, categoryID, name, description, unit, price)
	if err != nil {
		return nil, err
	}
	s.invalidateProduct(ctx, p.ID, categoryID)
	logger.SVCCatalog.Info("product created",
		slog.String("event", "product.create"),
		slog.Int64("product_id", p.ID),
		slog.Int64("category_id", categoryID),
	)
	return p, nil
}

// UpdateProduct edits a product and invalidates affected keys.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, name, description, unit string, price decimal.Decimal) error {
	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.UpdateProduct(ctx, id, name, description, unit, price); err != nil {
		return err
	}
	s.invalidateProduct(ctx, id, current.CategoryID)
	return nil
}

// SetProductAvailable toggles a product and invalidates affected keys.
func (s *CatalogService) SetProductAvailable(ctx context.Context, id int64, available bool) error {
	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SetProductAvailable(ctx, id, available); err != nil {
		return err
	}
	s.invalidateProduct(ctx, id, current.CategoryID)
	return nil
}

var _ catalogStore = (*storage.CatalogRepo)(nil)
