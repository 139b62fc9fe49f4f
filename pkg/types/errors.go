package types

import (
	"errors"
	"fmt"
	"sort"
)

// Domain errors shared by the services and the HTTP layer
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Value errors
	ErrNegativePrice      = errors.New("price must be >= 0")
	ErrPricePrecision     = errors.New("price must have at most 2 decimal places")
	ErrInvalidQuantity    = errors.New("quantity must be >= 1")
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrUnknownOrderStatus = errors.New("unknown order status")
)

// ValidationError carries per-field messages for malformed input.
// It unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add calls
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message against a field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e as an error if it holds messages, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	// first message wins, matching the summary line the API returns
	first := e.Fields[keys[0]][0]
	if len(keys) == 1 {
		return first
	}
	return fmt.Sprintf("%s (and %d more)", first, len(keys)-1)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ProductNotFoundError is returned when an order references an unknown product
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError reports the product that could not be reserved
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Product %s is out of stock. Only %d available.", e.ProductName, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
