package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/storefront/internal/metrics"
	"github.com/dshills/storefront/internal/storage"
	"github.com/dshills/storefront/pkg/types"
)

// Cache defaults
const (
	DefaultCacheTTL  = 10 * time.Minute
	DefaultCacheSize = 1000
)

// Config controls listing memoization. A zero TTL disables the cache.
type Config struct {
	CacheTTL  time.Duration
	CacheSize int
}

// DefaultConfig returns the production cache settings
func DefaultConfig() Config {
	return Config{CacheTTL: DefaultCacheTTL, CacheSize: DefaultCacheSize}
}

// Listing is one page of products and whether it came from the cache
type Listing struct {
	Page     types.Page[*types.Product]
	CacheHit bool
}

// ProductPatch holds the fields of a partial update. Nil fields are left alone.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int
	Image       *string
	ImageSet    bool // Image was present in the request, possibly as null
}

// cacheEntry is a memoized page with its expiry
type cacheEntry struct {
	page      types.Page[*types.Product]
	expiresAt time.Time
}

// Service answers catalog queries and manages products.
//
// Listings are memoized per filter and page for the configured TTL. Stock
// changes made by order placement do not invalidate entries, so a cached page
// can show stock that is up to one TTL old. Product writes made through the
// service purge the cache.
type Service struct {
	store   storage.Store
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithMetrics records cache hits and misses on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a catalog service over store
func NewService(store storage.Store, cfg Config, opts ...Option) (*Service, error) {
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("cache TTL must be >= 0, got %s", cfg.CacheTTL)
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	s := &Service{
		store: store,
		ttl:   cfg.CacheTTL,
		now:   time.Now,
		cache: cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns how long listings stay cached
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// List returns one page of products matching filter, ordered by id
func (s *Service) List(ctx context.Context, filter types.ProductFilter, req types.PageRequest) (*Listing, error) {
	req = req.Normalize()
	if s.ttl == 0 {
		page, err := s.load(ctx, filter, req)
		if err != nil {
			return nil, err
		}
		return &Listing{Page: page}, nil
	}

	key := listingKey(filter, req)
	if page, ok := s.checkCache(key); ok {
		s.metrics.CacheLookup(true)
		return &Listing{Page: page, CacheHit: true}, nil
	}
	s.metrics.CacheLookup(false)

	// Concurrent misses for one key share a single query. The leader's
	// cancellation must not fail the followers.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(hex.EncodeToString(key[:]), func() (interface{}, error) {
		page, err := s.load(loadCtx, filter, req)
		if err != nil {
			return nil, err
		}
		s.storeInCache(key, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return &Listing{Page: copyPage(v.(types.Page[*types.Product]))}, nil
}

func (s *Service) load(ctx context.Context, filter types.ProductFilter, req types.PageRequest) (types.Page[*types.Product], error) {
	products, total, err := s.store.ListProducts(ctx, filter, req)
	if err != nil {
		return types.Page[*types.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	return types.NewPage(products, req, total), nil
}

// checkCache returns a copy of a live entry, dropping it if expired
func (s *Service) checkCache(key [32]byte) (types.Page[*types.Product], bool) {
	now := s.now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return types.Page[*types.Product]{}, false
	}
	if !now.Before(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		// Another caller may have refreshed the entry meanwhile
		if current, ok := s.cache.Peek(key); ok && current == entry {
			s.cache.Remove(key)
		}
		s.cacheMu.Unlock()
		return types.Page[*types.Product]{}, false
	}
	page := copyPage(entry.page)
	s.cacheMu.RUnlock()

	return page, true
}

func (s *Service) storeInCache(key [32]byte, page types.Page[*types.Product]) {
	entry := &cacheEntry{
		page:      copyPage(page),
		expiresAt: s.now().Add(s.ttl),
	}
	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every memoized listing
func (s *Service) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen reports the number of memoized listings
func (s *Service) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}

// copyPage deep-copies a page so cached entries never alias caller memory.
// Product holds only values and an *string, which is copied too.
func copyPage(src types.Page[*types.Product]) types.Page[*types.Product] {
	dst := src
	dst.Items = make([]*types.Product, len(src.Items))
	for i, p := range src.Items {
		if p == nil {
			continue
		}
		cp := *p
		if p.Image != nil {
			img := *p.Image
			cp.Image = &img
		}
		dst.Items[i] = &cp
	}
	return dst
}

// listingKey hashes a canonical encoding of the filter and page
func listingKey(filter types.ProductFilter, req types.PageRequest) [32]byte {
	var data strings.Builder
	data.WriteString("name=")
	data.WriteString(strconv.Quote(types.FoldName(filter.Name)))
	data.WriteString("|min=")
	if filter.MinPrice != nil {
		data.WriteString(filter.MinPrice.String())
	}
	data.WriteString("|max=")
	if filter.MaxPrice != nil {
		data.WriteString(filter.MaxPrice.String())
	}
	data.WriteString("|category=")
	data.WriteString(strconv.Quote(filter.Category))
	data.WriteString("|page=")
	data.WriteString(strconv.Itoa(req.Page))
	data.WriteString("|per_page=")
	data.WriteString(strconv.Itoa(req.PerPage))

	return sha256.Sum256([]byte(data.String()))
}

// Get returns one product, bypassing the listing cache
func (s *Service) Get(ctx context.Context, productID int64) (*types.Product, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("product %d: %w", productID, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create validates and stores a new product
func (s *Service) Create(ctx context.Context, product *types.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return err
	}
	s.InvalidateCache()
	return nil
}

// Update applies patch to an existing product
func (s *Service) Update(ctx context.Context, productID int64, patch ProductPatch) (*types.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.ImageSet {
		product.Image = patch.Image
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}
	err = s.store.UpdateProduct(ctx, product)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("product %d: %w", productID, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	s.InvalidateCache()
	return product, nil
}

// Delete removes a product. Past order lines keep their snapshot.
func (s *Service) Delete(ctx context.Context, productID int64) error {
	err := s.store.DeleteProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("product %d: %w", productID, types.ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.InvalidateCache()
	return nil
}
