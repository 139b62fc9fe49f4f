package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseOrderStatus converts a stored status string
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", ErrUnknownOrderStatus
	}
	return status, nil
}

// Order is a placed order owning its line items
type Order struct {
	ID        int64
	UserID    int64
	Total     decimal.Decimal
	Status    OrderStatus
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is one product-quantity-price record of an order.
// Price is the product price captured when the order was placed.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
	Product   *Product // Eager-loaded; nil if the product was deleted since
	CreatedAt time.Time
}

// LineTotal returns quantity * price
func (it *OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ItemsTotal sums the line totals of the order's items
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	return total
}

// Validate checks the structural invariants of an order before it is persisted
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if !o.Status.Valid() {
		return ErrUnknownOrderStatus
	}
	for i := range o.Items {
		if o.Items[i].Quantity < 1 {
			return ErrInvalidQuantity
		}
		if err := ValidatePrice(o.Items[i].Price); err != nil {
			return err
		}
	}
	return ValidatePrice(o.Total)
}
