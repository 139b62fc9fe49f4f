// Package types provides the domain types shared across the storefront.
//
// # Catalog
//
// Product carries a decimal price (shopspring/decimal) and an integer stock
// level. Prices are limited to two fractional digits and are persisted as
// integer minor units:
//
//	cents, err := types.ToMinorUnits(decimal.RequireFromString("9.99")) // 999
//	price := types.FromMinorUnits(999)                                  // 9.99
//
// ProductFilter describes catalog listing constraints (name substring,
// inclusive price bounds, category equality).
//
// # Orders
//
// Order owns a slice of OrderItem. Each item snapshots the product price at
// placement time, so later catalog edits never change historical totals:
//
//	order.ItemsTotal().Equal(order.Total) // true for every placed order
//
// # Errors
//
// Sentinel errors (ErrNotFound, ErrForbidden, ErrValidation,
// ErrInsufficientStock, ErrUnauthenticated) classify failures. Richer typed
// errors unwrap to them:
//
//	var stockErr *types.InsufficientStockError
//	if errors.As(err, &stockErr) {
//	    fmt.Println(stockErr.ProductName, stockErr.Available)
//	}
//	errors.Is(err, types.ErrInsufficientStock) // also true
//
// # Pagination
//
// PageRequest and the generic Page[T] carry 1-based page numbers and the
// total count used to compute LastPage.
package types
