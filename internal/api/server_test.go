package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dshills/storefront/internal/auth"
	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/events"
	"github.com/dshills/storefront/internal/metrics"
	"github.com/dshills/storefront/internal/orders"
	"github.com/dshills/storefront/internal/storage"
	"github.com/dshills/storefront/pkg/types"
)

type testEnv struct {
	handler http.Handler
	store   *storage.SQLiteStorage
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	dispatcher := events.NewDispatcher(logger, []events.Listener{events.NewAuditListener(logger)})
	t.Cleanup(func() { _ = dispatcher.Close(context.Background()) })

	cat, err := catalog.NewService(store, catalog.Config{CacheTTL: time.Minute, CacheSize: 32}, catalog.WithMetrics(m))
	require.NoError(t, err)

	srv := NewServer(Deps{
		Orders:   orders.NewService(store, dispatcher, orders.WithMetrics(m), orders.WithLogger(logger)),
		Catalog:  cat,
		Auth:     auth.NewService(store, auth.WithBcryptCost(bcrypt.MinCost)),
		Store:    store,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})
	return &testEnv{handler: srv.Handler(), store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", "", map[string]string{
		"name":                  "Shopper",
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (e *testEnv) product(t *testing.T, name, category, price string, stock int) *types.Product {
	t.Helper()
	p := &types.Product{Name: name, Description: name, Category: category, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, e.store.CreateProduct(context.Background(), p))
	return p
}

func (e *testEnv) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := e.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type orderJSON struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Total  string `json:"total"`
	Status string `json:"status"`
	Items  []struct {
		ProductID int64  `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Price     string `json:"price"`
		Product   *struct {
			Name string `json:"name"`
		} `json:"product"`
	} `json:"items"`
}

func path(format string, id int64) string {
	return strings.Replace(format, "{id}", strconv.FormatInt(id, 10), 1)
}

func TestAuthFlow(t *testing.T) {
	env := setupTestEnv(t)
	token := env.register(t, "shopper@example.com")

	t.Run("current user", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/user", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var user struct {
			Email string `json:"email"`
		}
		decode(t, rec, &user)
		assert.Equal(t, "shopper@example.com", user.Email)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "shopper@example.com", "password": "password123"})
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Token     string `json:"token"`
			TokenType string `json:"token_type"`
		}
		decode(t, rec, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, "Bearer", body.TokenType)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "shopper@example.com", "password": "nope-nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login without fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/login", "", map[string]string{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("register validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/register", "", map[string]any{
			"name":                  "",
			"email":                 "shopper@example.com",
			"password":              "short",
			"password_confirmation": "short",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Contains(t, body.Errors, "name")
		assert.Contains(t, body.Errors, "password")
	})

	t.Run("register wrong type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/register", "", map[string]any{"name": 42})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, []string{"The name field must be a string."}, body.Errors["name"])
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/user", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "Unauthenticated.", body.Message)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/logout", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/user", token, nil).Code)
	})
}

func TestListProducts(t *testing.T) {
	env := setupTestEnv(t)
	env.product(t, "Laptop", "Electronics", "999.99", 3)
	env.product(t, "Cable", "Electronics", "9.99", 50)
	env.product(t, "Novel", "Books", "12.00", 8)
	env.product(t, "Poster", "Home", "20.00", 1)

	t.Run("price range and category", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/products?min_price=5&max_price=20&category=Electronics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []struct {
				Name  string `json:"name"`
				Price string `json:"price"`
			} `json:"data"`
			Meta struct {
				Total    int `json:"total"`
				LastPage int `json:"last_page"`
			} `json:"meta"`
		}
		decode(t, rec, &body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Cable", body.Data[0].Name)
		assert.Equal(t, "9.99", body.Data[0].Price)
		assert.Equal(t, 1, body.Meta.Total)
		assert.Equal(t, 1, body.Meta.LastPage)
	})

	t.Run("pagination", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/products?per_page=3&page=2", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []struct {
				Name string `json:"name"`
			} `json:"data"`
			Meta struct {
				CurrentPage int `json:"current_page"`
				LastPage    int `json:"last_page"`
				PerPage     int `json:"per_page"`
				Total       int `json:"total"`
			} `json:"meta"`
		}
		decode(t, rec, &body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Poster", body.Data[0].Name)
		assert.Equal(t, 2, body.Meta.CurrentPage)
		assert.Equal(t, 2, body.Meta.LastPage)
		assert.Equal(t, 3, body.Meta.PerPage)
		assert.Equal(t, 4, body.Meta.Total)
	})

	t.Run("cache headers", func(t *testing.T) {
		first := env.do(t, http.MethodGet, "/products?name=novel", "", nil)
		second := env.do(t, http.MethodGet, "/products?name=novel", "", nil)
		assert.Equal(t, "MISS", first.Header().Get(CacheStatusHeader))
		assert.Equal(t, "HIT", second.Header().Get(CacheStatusHeader))
		assert.Equal(t, "public, max-age=60", second.Header().Get("Cache-Control"))
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("bad price bound", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/products?min_price=cheap", "", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Contains(t, body.Errors, "min_price")
	})
}

func TestShowProduct(t *testing.T) {
	env := setupTestEnv(t)
	p := env.product(t, "Mug", "Home", "9.99", 5)

	rec := env.do(t, http.MethodGet, path("/products/{id}", p.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			ID    int64   `json:"id"`
			Price string  `json:"price"`
			Image *string `json:"image"`
		} `json:"data"`
	}
	decode(t, rec, &body)
	assert.Equal(t, p.ID, body.Data.ID)
	assert.Equal(t, "9.99", body.Data.Price)
	assert.Nil(t, body.Data.Image)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/products/999", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/products/abc", "", nil).Code)
}

func TestManageProducts(t *testing.T) {
	env := setupTestEnv(t)
	token := env.register(t, "admin@example.com")

	payload := map[string]any{
		"name":        "Robot",
		"description": "Wind-up robot",
		"price":       "24.50",
		"category":    "Toys",
		"stock":       10,
	}

	t.Run("requires auth", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/products", "", payload).Code)
	})

	var id int64
	t.Run("create", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/products", token, payload)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			Data struct {
				ID    int64  `json:"id"`
				Price string `json:"price"`
			} `json:"data"`
		}
		decode(t, rec, &body)
		id = body.Data.ID
		assert.Greater(t, id, int64(0))
		assert.Equal(t, "24.50", body.Data.Price)
	})

	t.Run("create invalid", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/products", token, map[string]any{
			"name": "X", "description": "Y", "price": -1, "category": "Z", "stock": "lots",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, []string{"The stock field must be an integer."}, body.Errors["stock"])
	})

	t.Run("create out of range", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/products", token, map[string]any{
			"name": "X", "description": "Y", "price": -1, "category": "Z", "stock": 1,
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, []string{"The price field must be at least 0."}, body.Errors["price"])
	})

	t.Run("update", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, path("/products/{id}", id), token, map[string]any{"stock": 4, "image": "https://picsum.photos/id/3/300/300"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Data struct {
				Name  string  `json:"name"`
				Stock int     `json:"stock"`
				Image *string `json:"image"`
			} `json:"data"`
		}
		decode(t, rec, &body)
		assert.Equal(t, "Robot", body.Data.Name)
		assert.Equal(t, 4, body.Data.Stock)
		require.NotNil(t, body.Data.Image)
	})

	t.Run("update missing", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/products/999", token, map[string]any{"stock": 1}).Code)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path("/products/{id}", id), token, nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path("/products/{id}", id), token, nil).Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/products", token, "{not json")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestPlaceOrder(t *testing.T) {
	env := setupTestEnv(t)
	token := env.register(t, "buyer@example.com")
	mug := env.product(t, "Mug", "Home", "9.99", 5)

	rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": mug.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Message string    `json:"message"`
		Order   orderJSON `json:"order"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Order placed successfully", body.Message)
	assert.Equal(t, "19.98", body.Order.Total)
	assert.Equal(t, "pending", body.Order.Status)
	require.Len(t, body.Order.Items, 1)
	assert.Equal(t, "9.99", body.Order.Items[0].Price)
	require.NotNil(t, body.Order.Items[0].Product)
	assert.Equal(t, "Mug", body.Order.Items[0].Product.Name)
	assert.Equal(t, 3, env.stock(t, mug.ID))
}

func TestPlaceOrder_Failures(t *testing.T) {
	env := setupTestEnv(t)
	token := env.register(t, "buyer@example.com")
	a := env.product(t, "A", "Misc", "10.00", 2)
	b := env.product(t, "B", "Misc", "5.00", 0)

	t.Run("insufficient stock keeps earlier decrement", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
			"items": []map[string]any{{"product_id": a.ID, "quantity": 1}, {"product_id": b.ID, "quantity": 1}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "Product B is out of stock. Only 0 available.", body.Message)
		assert.Empty(t, body.Errors)
		assert.Equal(t, 1, env.stock(t, a.ID))
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
			"items": []map[string]any{{"product_id": 999, "quantity": 1}},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{name: "missing items", body: map[string]any{}, field: "items"},
		{name: "empty items", body: map[string]any{"items": []any{}}, field: "items"},
		{name: "items not array", body: map[string]any{"items": "A"}, field: "items"},
		{name: "zero quantity", body: map[string]any{"items": []map[string]any{{"product_id": a.ID, "quantity": 0}}}, field: "items.0.quantity"},
		{name: "fractional quantity", body: map[string]any{"items": []map[string]any{{"product_id": a.ID, "quantity": 1.5}}}, field: "items.0.quantity"},
		{name: "missing product id", body: map[string]any{"items": []map[string]any{{"quantity": 1}}}, field: "items.0.product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/orders", token, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			var body errorResponse
			decode(t, rec, &body)
			assert.Contains(t, body.Errors, tt.field)
		})
	}

	t.Run("requires auth", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/orders", "", map[string]any{"items": []map[string]any{{"product_id": a.ID, "quantity": 1}}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrderReads(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")
	p := env.product(t, "Pen", "Office", "1.25", 100)

	var ids []int64
	for i := 1; i <= 3; i++ {
		rec := env.do(t, http.MethodPost, "/orders", alice, map[string]any{
			"items": []map[string]any{{"product_id": p.ID, "quantity": i}},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var body struct {
			Order orderJSON `json:"order"`
		}
		decode(t, rec, &body)
		ids = append(ids, body.Order.ID)
	}

	t.Run("list is scoped and most recent first", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/orders", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []orderJSON `json:"data"`
			Meta struct {
				Total   int `json:"total"`
				PerPage int `json:"per_page"`
			} `json:"meta"`
		}
		decode(t, rec, &body)
		require.Len(t, body.Data, 3)
		assert.Equal(t, ids[2], body.Data[0].ID)
		assert.Equal(t, 3, body.Meta.Total)
		assert.Equal(t, 10, body.Meta.PerPage)
		for _, o := range body.Data {
			require.Len(t, o.Items, 1)
			assert.NotNil(t, o.Items[0].Product)
		}

		rec = env.do(t, http.MethodGet, "/orders", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &body)
		assert.Empty(t, body.Data)
	})

	t.Run("show", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, path("/orders/{id}", ids[1]), alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data orderJSON `json:"data"`
		}
		decode(t, rec, &body)
		assert.Equal(t, "2.50", body.Data.Total)
	})

	t.Run("show is repeatable", func(t *testing.T) {
		first := env.do(t, http.MethodGet, path("/orders/{id}", ids[0]), alice, nil)
		second := env.do(t, http.MethodGet, path("/orders/{id}", ids[0]), alice, nil)
		require.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	})

	t.Run("other user's order", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, path("/orders/{id}", ids[0]), bob, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "Unauthorized", body.Message)
	})

	t.Run("missing order", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/orders/9999", alice, nil).Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	env.do(t, http.MethodGet, "/products", "", nil)
	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{handler="products.index",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `storefront_catalog_cache_total{result="miss"} 1`)
}

func TestRequestID(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	env := setupTestEnv(t)
	token := env.register(t, "buyer@example.com")

	padded := func(size int) string {
		prefix := `{"items": []}`
		return prefix + strings.Repeat(" ", size-len(prefix))
	}

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"at the limit is decoded", padded(maxBodyBytes), http.StatusUnprocessableEntity},
		{"one byte over is rejected", padded(maxBodyBytes + 1), http.StatusRequestEntityTooLarge},
		{"far over is rejected", strings.Repeat("x", 3*maxBodyBytes), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/orders", token, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			var body errorResponse
			decode(t, rec, &body)
			if tt.wantCode == http.StatusRequestEntityTooLarge {
				assert.Equal(t, "The request body must not be greater than 1024 kilobytes.", body.Message)
				assert.Empty(t, body.Errors)
			} else {
				assert.Contains(t, body.Errors, "items")
			}
		})
	}
}

func TestPageIsClamped(t *testing.T) {
	env := setupTestEnv(t)
	token := env.register(t, "buyer@example.com")
	mug := env.product(t, "Mug", "Home", "9.99", 5)
	rec := env.do(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": mug.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []struct {
		name     string
		path     string
		token    string
		wantPage int
	}{
		{"products max int", "/products?page=9223372036854775807&per_page=100", "", types.MaxPage},
		{"products overflowing int", "/products?page=99999999999999999999999", "", types.MaxPage},
		{"products just over cap", "/products?page=" + strconv.Itoa(types.MaxPage+1), "", types.MaxPage},
		{"orders max int", "/orders?page=9223372036854775807&per_page=100", token, types.MaxPage},
		{"garbage falls back to first page", "/products?page=abc", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body struct {
				Data []json.RawMessage `json:"data"`
				Meta struct {
					CurrentPage int `json:"current_page"`
					Total       int `json:"total"`
				} `json:"meta"`
			}
			decode(t, rec, &body)
			assert.Equal(t, tt.wantPage, body.Meta.CurrentPage)
			assert.Equal(t, 1, body.Meta.Total)
			if tt.wantPage == 1 {
				assert.Len(t, body.Data, 1)
			} else {
				assert.Empty(t, body.Data)
			}
		})
	}
}
