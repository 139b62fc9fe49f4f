// Package storage provides SQLite-based persistence for the storefront.
//
// The storage layer manages:
//   - Catalog products (price in integer minor units, stock level)
//   - Orders and their line items
//   - Users and issued bearer tokens
//
// # Database Schema
//
// Tables:
//   - products: name, description, price_cents, category, stock, image
//   - orders: user_id, total_cents, status
//   - order_items: order_id, product_id, quantity, price_cents (price at order time)
//   - users: name, email (unique, case-insensitive), password_hash
//   - access_tokens: user_id, token_hash (SHA-256), last_used_at
//   - schema_version: applied migrations (semver ordered)
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("storefront.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	product := &types.Product{Name: "Milk", Price: decimal.RequireFromString("6.50"), Stock: 10}
//	err = db.CreateProduct(ctx, product)
//
// # Stock Updates
//
// Two stock operations exist:
//
//	// Read, subtract, write back. Concurrent callers can both pass a stock
//	// check and both write.
//	product, err := db.UpdateStock(ctx, productID, 2)
//
//	// Single conditional UPDATE ... WHERE stock >= n. ok is false when the
//	// product is missing or has too little stock.
//	ok, err := db.DecrementStock(ctx, productID, 2)
//
// # Transactions
//
// Use transactions for all-or-nothing work. Every Store operation is
// available on the transaction:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	ok, _ := tx.DecrementStock(ctx, productID, 1)
//	err = tx.CreateOrderWithItems(ctx, order)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// The pool holds a single connection, so code holding a transaction must
// not call the non-transactional Store at the same time.
//
// # Build Tags
//
// Pure Go build (default):
//
//   - Uses modernc.org/sqlite
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
package storage
