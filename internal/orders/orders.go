package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dshills/storefront/internal/events"
	"github.com/dshills/storefront/internal/metrics"
	"github.com/dshills/storefront/internal/storage"
	"github.com/dshills/storefront/pkg/types"
)

// ReservationMode selects how stock is reserved while placing an order
type ReservationMode string

const (
	// ModeLegacy reads each product, checks stock, then writes the decremented
	// value back. Earlier items keep their decrement when a later item fails,
	// and concurrent placements can oversell.
	ModeLegacy ReservationMode = "legacy"
	// ModeAtomic decrements with a single conditional update per item. It
	// cannot oversell but still keeps earlier decrements on failure.
	ModeAtomic ReservationMode = "atomic"
	// ModeTransactional runs reservation and order creation in one
	// transaction. A failure on any item leaves stock untouched.
	ModeTransactional ReservationMode = "transactional"
)

// ParseReservationMode accepts a mode name, case-insensitively
func ParseReservationMode(s string) (ReservationMode, error) {
	switch mode := ReservationMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ModeLegacy, ModeAtomic, ModeTransactional:
		return mode, nil
	case "":
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown reservation mode %q", s)
	}
}

// Failure reasons reported to metrics
const (
	ReasonValidation        = "validation"
	ReasonNotFound          = "not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonError             = "error"
)

// ItemRequest asks for quantity units of one product
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// Service places and reads orders
type Service struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	mode      ReservationMode
}

// Option configures a Service
type Option func(*Service)

// WithMode sets the reservation mode
func WithMode(mode ReservationMode) Option {
	return func(s *Service) { s.mode = mode }
}

// WithMetrics records placements and failures on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates an order service. publisher may be nil.
func NewService(store storage.Store, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		mode:      ModeLegacy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the configured reservation mode
func (s *Service) Mode() ReservationMode {
	return s.mode
}

// reserveFunc reserves one line and returns the product as read before the reservation
type reserveFunc func(ctx context.Context, store storage.Store, req ItemRequest) (*types.Product, error)

// PlaceOrder reserves stock for every requested item in order and creates a
// pending order priced at the current product prices. It stops at the first
// item that cannot be reserved.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, items []ItemRequest) (*types.Order, error) {
	if err := validateItems(items); err != nil {
		s.metrics.OrderFailed(ReasonValidation)
		return nil, err
	}

	var (
		order *types.Order
		err   error
	)
	switch s.mode {
	case ModeTransactional:
		order, err = s.placeInTx(ctx, userID, items)
	case ModeAtomic:
		order, err = s.reserveAndCreate(ctx, s.store, userID, items, reserveConditional)
	default:
		order, err = s.reserveAndCreate(ctx, s.store, userID, items, reserveReadWrite)
	}
	if err != nil {
		reason := failureReason(err)
		s.metrics.OrderFailed(reason)
		if reason == ReasonError {
			s.logger.ErrorContext(ctx, "order placement failed", "user_id", userID, "error", err)
		}
		return nil, err
	}

	s.metrics.OrderPlaced()
	if s.publisher != nil {
		s.publisher.PublishOrderPlaced(ctx, order)
	}
	return order, nil
}

func (s *Service) placeInTx(ctx context.Context, userID int64, items []ItemRequest) (*types.Order, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The pool has one connection; everything below must go through tx.
	order, err := s.reserveAndCreate(ctx, tx, userID, items, reserveConditional)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

func (s *Service) reserveAndCreate(ctx context.Context, store storage.Store, userID int64, items []ItemRequest, reserve reserveFunc) (*types.Order, error) {
	total := decimal.Zero
	lines := make([]types.OrderItem, 0, len(items))

	for _, req := range items {
		product, err := reserve(ctx, store, req)
		if err != nil {
			return nil, err
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))))
		lines = append(lines, types.OrderItem{
			ProductID: product.ID,
			Quantity:  req.Quantity,
			Price:     product.Price,
		})
	}

	order := &types.Order{
		UserID: userID,
		Total:  total,
		Status: types.StatusPending,
		Items:  lines,
	}
	if err := store.CreateOrderWithItems(ctx, order); err != nil {
		if !errors.Is(err, storage.ErrItemsNotLoaded) {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		// Committed; stock is already reserved, so report the order as placed
		s.logger.WarnContext(ctx, "order created without product details", "order_id", order.ID, "error", err)
	}
	return order, nil
}

func reserveReadWrite(ctx context.Context, store storage.Store, req ItemRequest) (*types.Product, error) {
	product, err := findProduct(ctx, store, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < req.Quantity {
		return nil, insufficient(product, req.Quantity)
	}
	if _, err := store.UpdateStock(ctx, product.ID, req.Quantity); err != nil {
		return nil, fmt.Errorf("failed to reserve product %d: %w", product.ID, err)
	}
	return product, nil
}

func reserveConditional(ctx context.Context, store storage.Store, req ItemRequest) (*types.Product, error) {
	product, err := findProduct(ctx, store, req.ProductID)
	if err != nil {
		return nil, err
	}
	ok, err := store.DecrementStock(ctx, product.ID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve product %d: %w", product.ID, err)
	}
	if ok {
		return product, nil
	}

	// Lost the race or never had enough; report what is there now.
	current, err := findProduct(ctx, store, req.ProductID)
	if err != nil {
		return nil, err
	}
	return nil, insufficient(current, req.Quantity)
}

func findProduct(ctx context.Context, store storage.Store, productID int64) (*types.Product, error) {
	product, err := store.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &types.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	return product, nil
}

func insufficient(product *types.Product, requested int) error {
	available := product.Stock
	if available < 0 {
		available = 0
	}
	return &types.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   available,
		Requested:   requested,
	}
}

func validateItems(items []ItemRequest) error {
	verr := types.NewValidationError()
	if len(items) == 0 {
		verr.Add("items", "The items field is required.")
		return verr
	}
	for i, item := range items {
		if item.ProductID < 1 {
			verr.Add(fmt.Sprintf("items.%d.product_id", i), fmt.Sprintf("The items.%d.product_id field is required.", i))
		}
		if item.Quantity < 1 {
			verr.Add(fmt.Sprintf("items.%d.quantity", i), fmt.Sprintf("The items.%d.quantity field must be at least 1.", i))
		}
	}
	return verr.OrNil()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, types.ErrValidation):
		return ReasonValidation
	case errors.Is(err, types.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, types.ErrInsufficientStock):
		return ReasonInsufficientStock
	default:
		return ReasonError
	}
}

// ListForUser returns one page of the user's orders, most recent first
func (s *Service) ListForUser(ctx context.Context, userID int64, page types.PageRequest) (types.Page[*types.Order], error) {
	page = page.Normalize()
	orders, total, err := s.store.ListOrdersByUser(ctx, userID, page)
	if err != nil {
		return types.Page[*types.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return types.NewPage(orders, page, total), nil
}

// GetForUser returns an order only when userID owns it
func (s *Service) GetForUser(ctx context.Context, userID, orderID int64) (*types.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", orderID, types.ErrForbidden)
	}
	return order, nil
}
