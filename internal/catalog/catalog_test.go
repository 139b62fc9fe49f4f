package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/storefront/internal/metrics"
	"github.com/dshills/storefront/internal/storage"
	"github.com/dshills/storefront/pkg/types"
)

// countingStore counts ListProducts calls and can hold them until released
type countingStore struct {
	storage.Store
	lists   atomic.Int32
	release chan struct{}
}

func (c *countingStore) ListProducts(ctx context.Context, filter types.ProductFilter, page types.PageRequest) ([]*types.Product, int, error) {
	c.lists.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.Store.ListProducts(ctx, filter, page)
}

func setupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store storage.Store) []*types.Product {
	t.Helper()
	rows := []struct {
		name, category, price string
		stock                 int
	}{
		{"Laptop", "Electronics", "999.99", 5},
		{"Phone Case", "Electronics", "19.99", 40},
		{"T-Shirt", "Clothing", "15.00", 100},
		{"Novel", "Books", "12.50", 12},
		{"Lamp", "Home", "45.00", 0},
	}
	var out []*types.Product
	for _, r := range rows {
		p := &types.Product{Name: r.name, Description: r.name, Price: decimal.RequireFromString(r.price), Category: r.category, Stock: r.stock}
		require.NoError(t, store.CreateProduct(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func newTestService(t *testing.T, store storage.Store, ttl time.Duration) *Service {
	t.Helper()
	svc, err := NewService(store, Config{CacheTTL: ttl, CacheSize: 16})
	require.NoError(t, err)
	return svc
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func names(page types.Page[*types.Product]) []string {
	out := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, p.Name)
	}
	return out
}

func TestList_Filters(t *testing.T) {
	store := setupTestDB(t)
	products := seed(t, store)
	eclair := &types.Product{Name: "Éclair Maker", Description: "Pastry tools", Price: decimal.RequireFromString("60.00"), Category: "Kitchen", Stock: 3}
	require.NoError(t, store.CreateProduct(context.Background(), eclair))
	products = append(products, eclair)
	svc := newTestService(t, store, 0)

	tests := []struct {
		name   string
		filter types.ProductFilter
		want   []string
	}{
		{name: "no filter", filter: types.ProductFilter{}, want: []string{"Laptop", "Phone Case", "T-Shirt", "Novel", "Lamp", "Éclair Maker"}},
		{name: "name substring", filter: types.ProductFilter{Name: "CASE"}, want: []string{"Phone Case"}},
		{name: "non-ascii name upper", filter: types.ProductFilter{Name: "ÉCLAIR"}, want: []string{"Éclair Maker"}},
		{name: "non-ascii name lower", filter: types.ProductFilter{Name: "éclair maker"}, want: []string{"Éclair Maker"}},
		{name: "price range inclusive", filter: types.ProductFilter{MinPrice: dec("15"), MaxPrice: dec("45")}, want: []string{"Phone Case", "T-Shirt", "Lamp"}},
		{name: "category", filter: types.ProductFilter{Category: "Electronics"}, want: []string{"Laptop", "Phone Case"}},
		{name: "combined", filter: types.ProductFilter{Category: "Electronics", MaxPrice: dec("100")}, want: []string{"Phone Case"}},
		{name: "no match", filter: types.ProductFilter{Name: "zzz"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The in-memory matcher and the SQL query must agree
			matched := []string{}
			for _, p := range products {
				if tt.filter.Matches(p) {
					matched = append(matched, p.Name)
				}
			}
			assert.Equal(t, tt.want, matched)

			listing, err := svc.List(context.Background(), tt.filter, types.PageRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(listing.Page))
			assert.Equal(t, len(tt.want), listing.Page.Total)
		})
	}
}

func TestList_FoldedNamesShareCacheEntry(t *testing.T) {
	tests := []struct {
		name    string
		queries []string
	}{
		{"upper first", []string{"ÉCLAIR", "éclair"}},
		{"lower first", []string{"éclair", "ÉCLAIR"}},
		{"mixed", []string{"Éclair", "ÉCLAIR", "éCLAIR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestDB(t)
			seed(t, store)
			require.NoError(t, store.CreateProduct(context.Background(),
				&types.Product{Name: "Éclair Maker", Description: "Pastry tools", Price: decimal.RequireFromString("60.00"), Category: "Kitchen"}))
			svc := newTestService(t, store, time.Minute)

			for _, q := range tt.queries {
				listing, err := svc.List(context.Background(), types.ProductFilter{Name: q}, types.PageRequest{})
				require.NoError(t, err)
				assert.Equal(t, 1, listing.Page.Total, "query %q", q)
				assert.Equal(t, []string{"Éclair Maker"}, names(listing.Page))
			}
			assert.Equal(t, 1, svc.CacheLen())
		})
	}
}

func TestList_Pagination(t *testing.T) {
	store := setupTestDB(t)
	seed(t, store)
	svc := newTestService(t, store, time.Minute)
	ctx := context.Background()

	first, err := svc.List(ctx, types.ProductFilter{}, types.PageRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Laptop", "Phone Case"}, names(first.Page))
	assert.Equal(t, 3, first.Page.LastPage)
	assert.Equal(t, 5, first.Page.Total)

	// A different page must not be served from the first page's entry
	third, err := svc.List(ctx, types.ProductFilter{}, types.PageRequest{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Equal(t, []string{"Lamp"}, names(third.Page))

	clamped, err := svc.List(ctx, types.ProductFilter{}, types.PageRequest{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, types.MaxPerPage, clamped.Page.PerPage)
}

func TestList_ServesStaleStockWithinTTL(t *testing.T) {
	store := setupTestDB(t)
	products := seed(t, store)
	svc := newTestService(t, store, time.Minute)
	ctx := context.Background()
	filter := types.ProductFilter{Name: "Laptop"}

	clock := time.Now()
	svc.now = func() time.Time { return clock }

	first, err := svc.List(ctx, filter, types.PageRequest{})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 5, first.Page.Items[0].Stock)

	_, err = store.UpdateStock(ctx, products[0].ID, 2)
	require.NoError(t, err)

	second, err := svc.List(ctx, filter, types.PageRequest{})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 5, second.Page.Items[0].Stock)

	clock = clock.Add(time.Minute)
	third, err := svc.List(ctx, filter, types.PageRequest{})
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Equal(t, 3, third.Page.Items[0].Stock)
}

func TestList_CachedPagesAreCopies(t *testing.T) {
	store := setupTestDB(t)
	seed(t, store)
	svc := newTestService(t, store, time.Minute)
	ctx := context.Background()

	first, err := svc.List(ctx, types.ProductFilter{}, types.PageRequest{})
	require.NoError(t, err)
	first.Page.Items[0].Name = "Mutated"

	second, err := svc.List(ctx, types.ProductFilter{}, types.PageRequest{})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	assert.Equal(t, "Laptop", second.Page.Items[0].Name)
}

func TestList_CollapsesConcurrentMisses(t *testing.T) {
	base := setupTestDB(t)
	seed(t, base)
	store := &countingStore{Store: base, release: make(chan struct{})}
	svc := newTestService(t, store, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Listing, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			listing, err := svc.List(context.Background(), types.ProductFilter{}, types.PageRequest{})
			assert.NoError(t, err)
			results[i] = listing
		}(i)
	}

	// Let the callers pile up behind the first query
	require.Eventually(t, func() bool { return store.lists.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	assert.LessOrEqual(t, store.lists.Load(), int32(callers))
	assert.Less(t, store.lists.Load(), int32(callers), "misses were not collapsed")
	for _, r := range results {
		require.NotNil(t, r)
		assert.Len(t, r.Page.Items, 5)
	}
}

func TestList_CacheDisabled(t *testing.T) {
	base := setupTestDB(t)
	seed(t, base)
	store := &countingStore{Store: base}
	svc := newTestService(t, store, 0)

	for i := 0; i < 3; i++ {
		listing, err := svc.List(context.Background(), types.ProductFilter{}, types.PageRequest{})
		require.NoError(t, err)
		assert.False(t, listing.CacheHit)
	}
	assert.Equal(t, int32(3), store.lists.Load())
	assert.Equal(t, 0, svc.CacheLen())
}

func TestList_Metrics(t *testing.T) {
	store := setupTestDB(t)
	seed(t, store)
	m := metrics.New(prometheus.NewRegistry())
	svc, err := NewService(store, Config{CacheTTL: time.Minute}, WithMetrics(m))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.List(context.Background(), types.ProductFilter{}, types.PageRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogCache.WithLabelValues(metrics.CacheMiss)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogCache.WithLabelValues(metrics.CacheHit)))
}

func TestListingKey(t *testing.T) {
	base := listingKey(types.ProductFilter{Name: "lamp"}, types.PageRequest{Page: 1, PerPage: 10})

	assert.Equal(t, base, listingKey(types.ProductFilter{Name: "LAMP"}, types.PageRequest{Page: 1, PerPage: 10}))
	assert.Equal(t,
		listingKey(types.ProductFilter{Name: "ÉCLAIR"}, types.PageRequest{Page: 1, PerPage: 10}),
		listingKey(types.ProductFilter{Name: "éclair"}, types.PageRequest{Page: 1, PerPage: 10}))
	assert.Equal(t,
		listingKey(types.ProductFilter{MinPrice: dec("10")}, types.PageRequest{Page: 1, PerPage: 10}),
		listingKey(types.ProductFilter{MinPrice: dec("10.00")}, types.PageRequest{Page: 1, PerPage: 10}))
	assert.NotEqual(t, base, listingKey(types.ProductFilter{Name: "lamp"}, types.PageRequest{Page: 2, PerPage: 10}))
	assert.NotEqual(t, base, listingKey(types.ProductFilter{Name: "lamp"}, types.PageRequest{Page: 1, PerPage: 20}))
	assert.NotEqual(t, base, listingKey(types.ProductFilter{Category: "lamp"}, types.PageRequest{Page: 1, PerPage: 10}))
}

func TestProductWritesPurgeCache(t *testing.T) {
	store := setupTestDB(t)
	products := seed(t, store)
	svc := newTestService(t, store, time.Minute)
	ctx := context.Background()

	warm := func() {
		_, err := svc.List(ctx, types.ProductFilter{}, types.PageRequest{})
		require.NoError(t, err)
		require.Equal(t, 1, svc.CacheLen())
	}

	t.Run("create", func(t *testing.T) {
		warm()
		p := &types.Product{Name: "Robot", Description: "Toy robot", Price: decimal.RequireFromString("30"), Category: "Toys", Stock: 3}
		require.NoError(t, svc.Create(ctx, p))
		assert.Equal(t, 0, svc.CacheLen())
	})

	t.Run("update", func(t *testing.T) {
		warm()
		stock := 7
		updated, err := svc.Update(ctx, products[4].ID, ProductPatch{Stock: &stock})
		require.NoError(t, err)
		assert.Equal(t, 7, updated.Stock)
		assert.Equal(t, "Lamp", updated.Name)
		assert.Equal(t, 0, svc.CacheLen())
	})

	t.Run("delete", func(t *testing.T) {
		warm()
		require.NoError(t, svc.Delete(ctx, products[3].ID))
		assert.Equal(t, 0, svc.CacheLen())
	})
}

func TestCreate_Validation(t *testing.T) {
	store := setupTestDB(t)
	svc := newTestService(t, store, time.Minute)

	err := svc.Create(context.Background(), &types.Product{Price: decimal.RequireFromString("-1"), Stock: -1})
	require.ErrorIs(t, err, types.ErrValidation)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "description", "category", "price", "stock"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestUpdate(t *testing.T) {
	store := setupTestDB(t)
	products := seed(t, store)
	svc := newTestService(t, store, time.Minute)
	ctx := context.Background()

	t.Run("clears image", func(t *testing.T) {
		img := "https://picsum.photos/id/1/300/300"
		withImage, err := svc.Update(ctx, products[0].ID, ProductPatch{Image: &img, ImageSet: true})
		require.NoError(t, err)
		require.NotNil(t, withImage.Image)

		cleared, err := svc.Update(ctx, products[0].ID, ProductPatch{ImageSet: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.Image)
	})

	t.Run("rejects invalid price", func(t *testing.T) {
		_, err := svc.Update(ctx, products[0].ID, ProductPatch{Price: dec("-5")})
		assert.ErrorIs(t, err, types.ErrValidation)

		got, err := svc.Get(ctx, products[0].ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("999.99").Equal(got.Price))
	})

	t.Run("missing product", func(t *testing.T) {
		name := "x"
		_, err := svc.Update(ctx, 9999, ProductPatch{Name: &name})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestGetAndDelete_NotFound(t *testing.T) {
	store := setupTestDB(t)
	svc := newTestService(t, store, time.Minute)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 404), types.ErrNotFound)
}

func TestNewService_RejectsNegativeTTL(t *testing.T) {
	_, err := NewService(setupTestDB(t), Config{CacheTTL: -time.Second})
	assert.Error(t, err)
}
