// Package orders places and reads customer orders.
//
// # Placement
//
// PlaceOrder walks the requested items in order. For each item it loads the
// product, reserves the quantity and records a line priced at the product's
// current price. Once every line is reserved the order is written with
// status pending and a total equal to the sum of its lines.
//
// The first item that cannot be reserved stops placement:
//
//	order, err := svc.PlaceOrder(ctx, userID, []orders.ItemRequest{
//	    {ProductID: 1, Quantity: 2},
//	    {ProductID: 7, Quantity: 1},
//	})
//	var stockErr *types.InsufficientStockError
//	if errors.As(err, &stockErr) {
//	    // stockErr.Available units of stockErr.ProductName remain
//	}
//
// # Reservation Modes
//
// How much of a failed placement remains applied depends on the mode:
//
//	legacy         read, check, write back; earlier lines stay decremented
//	atomic         conditional decrement; cannot oversell, earlier lines stay
//	transactional  one transaction; a failure leaves stock untouched
//
// legacy is the default and matches the behavior clients have relied on.
//
// # Events
//
// A successful placement is handed to the configured events.Publisher after
// the order is stored. Publishing never blocks or fails the placement.
//
// # Reads
//
// ListForUser and GetForUser only ever return orders owned by the caller.
// Another user's order is reported as types.ErrForbidden.
package orders
