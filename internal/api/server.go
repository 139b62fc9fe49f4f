package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/storefront/internal/auth"
	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/metrics"
	"github.com/dshills/storefront/internal/orders"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer dispatches to
type Deps struct {
	Orders  *orders.Service
	Catalog *catalog.Service
	Auth    *auth.Service
	Store   Pinger

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // Serves /metrics when set
	Logger   *slog.Logger
}

// Server routes storefront HTTP requests
type Server struct {
	orders   *orders.Service
	catalog  *catalog.Service
	auth     *auth.Service
	store    Pinger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewServer creates a server from deps
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orders:   deps.Orders,
		catalog:  deps.Catalog,
		auth:     deps.Auth,
		store:    deps.Store,
		metrics:  deps.Metrics,
		gatherer: deps.Gatherer,
		logger:   logger,
	}
}

// Handler returns the routed handler with request middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	public := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(name, h))
	}
	private := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(name, s.requireAuth(h)))
	}

	public("POST /register", "auth.register", s.handleRegister)
	public("POST /login", "auth.login", s.handleLogin)
	private("POST /logout", "auth.logout", s.handleLogout)
	private("GET /user", "auth.user", s.handleUser)

	public("GET /products", "products.index", s.handleListProducts)
	public("GET /products/{id}", "products.show", s.handleShowProduct)
	private("POST /products", "products.store", s.handleCreateProduct)
	private("PUT /products/{id}", "products.update", s.handleUpdateProduct)
	private("DELETE /products/{id}", "products.destroy", s.handleDeleteProduct)

	private("GET /orders", "orders.index", s.handleListOrders)
	private("POST /orders", "orders.store", s.handlePlaceOrder)
	private("GET /orders/{id}", "orders.show", s.handleShowOrder)

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.gatherer))
	}

	return s.withRecovery(s.withRequestID(s.withLogging(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
