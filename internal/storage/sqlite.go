package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/storefront/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrItemsNotLoaded is returned by CreateOrderWithItems when the order was
	// committed but its products could not be read back
	ErrItemsNotLoaded = errors.New("order committed but items not loaded")
)

// SQLiteStorage implements the Store interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// Ping checks that the database answers
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Product operations

const productColumns = `id, name, description, price_cents, category, stock, image, created_at, updated_at`

func scanProduct(row rowScanner) (*types.Product, error) {
	var p types.Product
	var priceCents int64
	var image sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &priceCents, &p.Category,
		&p.Stock, &image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Price = types.FromMinorUnits(priceCents)
	if image.Valid {
		p.Image = &image.String
	}
	return &p, nil
}

func (s *SQLiteStorage) createProductWithQuerier(ctx context.Context, q querier, product *types.Product) error {
	priceCents, err := types.ToMinorUnits(product.Price)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	query := `
		INSERT INTO products (name, name_folded, description, price_cents, category, stock, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		product.Name, types.FoldName(product.Name), product.Description, priceCents, product.Category,
		product.Stock, product.Image, now, now)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProduct(ctx context.Context, product *types.Product) error {
	return s.createProductWithQuerier(ctx, s.querier(), product)
}

func (s *SQLiteStorage) getProductWithQuerier(ctx context.Context, q querier, productID int64) (*types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(q.QueryRowContext(ctx, query, productID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *SQLiteStorage) GetProduct(ctx context.Context, productID int64) (*types.Product, error) {
	return s.getProductWithQuerier(ctx, s.querier(), productID)
}

func (s *SQLiteStorage) updateProductWithQuerier(ctx context.Context, q querier, product *types.Product) error {
	priceCents, err := types.ToMinorUnits(product.Price)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	query := `
		UPDATE products
		SET name = ?, name_folded = ?, description = ?, price_cents = ?, category = ?, stock = ?, image = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		product.Name, types.FoldName(product.Name), product.Description, priceCents, product.Category,
		product.Stock, product.Image, now, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	product.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProduct(ctx context.Context, product *types.Product) error {
	return s.updateProductWithQuerier(ctx, s.querier(), product)
}

func (s *SQLiteStorage) deleteProductWithQuerier(ctx context.Context, q querier, productID int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM products WHERE id = ?", productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteProduct(ctx context.Context, productID int64) error {
	return s.deleteProductWithQuerier(ctx, s.querier(), productID)
}

// productWhere builds the WHERE clause for a catalog filter
func productWhere(filter types.ProductFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Name != "" {
		// Both sides are folded in Go; LIKE's own ASCII folding is then a no-op
		conds = append(conds, `name_folded LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(types.FoldName(filter.Name))+"%")
	}
	if filter.MinPrice != nil {
		conds = append(conds, "price_cents >= ?")
		args = append(args, boundToCents(*filter.MinPrice, true))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price_cents <= ?")
		args = append(args, boundToCents(*filter.MaxPrice, false))
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// boundToCents converts a price bound to cents. Bounds finer than a cent are
// rounded inward so the comparison stays exact: min 9.991 becomes 10.00 and
// max 9.999 becomes 9.99.
func boundToCents(bound decimal.Decimal, isMin bool) int64 {
	shifted := bound.Shift(types.MoneyScale)
	if isMin {
		return shifted.Ceil().IntPart()
	}
	return shifted.Floor().IntPart()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *SQLiteStorage) listProductsWithQuerier(ctx context.Context, q querier, filter types.ProductFilter, page types.PageRequest) ([]*types.Product, int, error) {
	page = page.Normalize()
	where, args := productWhere(filter)

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY id ASC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]*types.Product, 0, page.PerPage)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (s *SQLiteStorage) ListProducts(ctx context.Context, filter types.ProductFilter, page types.PageRequest) ([]*types.Product, int, error) {
	return s.listProductsWithQuerier(ctx, s.querier(), filter, page)
}

// Stock operations

// updateStockWithQuerier reads the current stock and writes back the
// decremented value. Nothing guards the gap between the read and the write.
func (s *SQLiteStorage) updateStockWithQuerier(ctx context.Context, q querier, productID int64, quantity int) (*types.Product, error) {
	product, err := s.getProductWithQuerier(ctx, q, productID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newStock := product.Stock - quantity
	_, err = q.ExecContext(ctx, "UPDATE products SET stock = ?, updated_at = ? WHERE id = ?",
		newStock, now, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	product.Stock = newStock
	product.UpdatedAt = now
	return product, nil
}

func (s *SQLiteStorage) UpdateStock(ctx context.Context, productID int64, quantity int) (*types.Product, error) {
	return s.updateStockWithQuerier(ctx, s.querier(), productID, quantity)
}

func (s *SQLiteStorage) decrementStockWithQuerier(ctx context.Context, q querier, productID int64, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx,
		"UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?",
		quantity, time.Now().UTC(), productID, quantity)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStorage) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	return s.decrementStockWithQuerier(ctx, s.querier(), productID, quantity)
}

// Order operations

// insertOrderWithQuerier writes the order row and its items using q.
// Callers are responsible for running it inside a transaction.
func (s *SQLiteStorage) insertOrderWithQuerier(ctx context.Context, q querier, order *types.Order) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	totalCents, err := types.ToMinorUnits(order.Total)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO orders (user_id, total_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, order.UserID, totalCents, string(order.Status), now, now)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		priceCents, err := types.ToMinorUnits(item.Price)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
		res, err := q.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_cents, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, orderID, item.ProductID, item.Quantity, priceCents, now)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		item.ID = itemID
		item.OrderID = orderID
		item.CreatedAt = now
	}

	order.ID = orderID
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

// CreateOrderWithItems persists the order and its items atomically, then
// eager-loads each item's product. A failed load after the commit returns
// ErrItemsNotLoaded with order.ID and order.Items still set from the insert.
func (s *SQLiteStorage) CreateOrderWithItems(ctx context.Context, order *types.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.insertOrderWithQuerier(ctx, tx, order); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	// The order exists now whatever happens to the caller's context
	if err := s.loadItemProducts(context.WithoutCancel(ctx), s.querier(), order); err != nil {
		return fmt.Errorf("%w: %w", ErrItemsNotLoaded, err)
	}
	return nil
}

// loadItemProducts refreshes order.Items with their current products
func (s *SQLiteStorage) loadItemProducts(ctx context.Context, q querier, order *types.Order) error {
	items, err := s.listItemsWithQuerier(ctx, q, []int64{order.ID})
	if err != nil {
		return err
	}
	order.Items = items[order.ID]
	return nil
}

const orderColumns = `id, user_id, total_cents, status, created_at, updated_at`

func scanOrder(row rowScanner) (*types.Order, error) {
	var o types.Order
	var totalCents int64
	var status string
	if err := row.Scan(&o.ID, &o.UserID, &totalCents, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := types.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}
	o.Status = parsed
	o.Total = types.FromMinorUnits(totalCents)
	return &o, nil
}

func (s *SQLiteStorage) getOrderWithQuerier(ctx context.Context, q querier, orderID int64) (*types.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err := s.loadItemProducts(ctx, q, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *SQLiteStorage) GetOrder(ctx context.Context, orderID int64) (*types.Order, error) {
	return s.getOrderWithQuerier(ctx, s.querier(), orderID)
}

// listItemsWithQuerier loads the items of the given orders, each with its
// product joined in, keyed by order ID.
func (s *SQLiteStorage) listItemsWithQuerier(ctx context.Context, q querier, orderIDs []int64) (map[int64][]types.OrderItem, error) {
	out := make(map[int64][]types.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_cents, oi.created_at,
		       p.id, p.name, p.description, p.price_cents, p.category, p.stock, p.image,
		       p.created_at, p.updated_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (` + placeholders + `)
		ORDER BY oi.order_id, oi.id
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item types.OrderItem
		var priceCents int64
		var (
			pID, pPrice, pStock sql.NullInt64
			pName, pDesc, pCat  sql.NullString
			pImage              sql.NullString
			pCreated, pUpdated  sql.NullTime
		)
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &priceCents, &item.CreatedAt,
			&pID, &pName, &pDesc, &pPrice, &pCat, &pStock, &pImage, &pCreated, &pUpdated)
		if err != nil {
			return nil, err
		}
		item.Price = types.FromMinorUnits(priceCents)
		if pID.Valid {
			product := &types.Product{
				ID:          pID.Int64,
				Name:        pName.String,
				Description: pDesc.String,
				Price:       types.FromMinorUnits(pPrice.Int64),
				Category:    pCat.String,
				Stock:       int(pStock.Int64),
				CreatedAt:   pCreated.Time,
				UpdatedAt:   pUpdated.Time,
			}
			if pImage.Valid {
				product.Image = &pImage.String
			}
			item.Product = product
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) listOrdersByUserWithQuerier(ctx context.Context, q querier, userID int64, page types.PageRequest) ([]*types.Order, int, error) {
	page = page.Normalize()

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*types.Order, 0, page.PerPage)
	ids := make([]int64, 0, page.PerPage)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, 0, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, 0, err
	}
	// Close before the next query: the pool holds a single connection
	_ = rows.Close()

	items, err := s.listItemsWithQuerier(ctx, q, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, total, nil
}

func (s *SQLiteStorage) ListOrdersByUser(ctx context.Context, userID int64, page types.PageRequest) ([]*types.Order, int, error) {
	return s.listOrdersByUserWithQuerier(ctx, s.querier(), userID, page)
}

// User operations

func (s *SQLiteStorage) createUserWithQuerier(ctx context.Context, q querier, user *types.User) error {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.Name, user.Email, user.PasswordHash, now, now)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *types.User) error {
	return s.createUserWithQuerier(ctx, s.querier(), user)
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStorage) getUserWithQuerier(ctx context.Context, q querier, userID int64) (*types.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStorage) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	return s.getUserWithQuerier(ctx, s.querier(), userID)
}

func (s *SQLiteStorage) getUserByEmailWithQuerier(ctx context.Context, q querier, email string) (*types.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.getUserByEmailWithQuerier(ctx, s.querier(), email)
}

// Token operations

func (s *SQLiteStorage) createTokenWithQuerier(ctx context.Context, q querier, token *types.AccessToken) error {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO access_tokens (user_id, name, token_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, token.UserID, token.Name, token.TokenHash[:], now)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = id
	token.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateToken(ctx context.Context, token *types.AccessToken) error {
	return s.createTokenWithQuerier(ctx, s.querier(), token)
}

func (s *SQLiteStorage) getTokenByHashWithQuerier(ctx context.Context, q querier, hash [32]byte) (*types.AccessToken, error) {
	var token types.AccessToken
	var stored []byte
	var lastUsed sql.NullTime
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, token_hash, last_used_at, created_at
		FROM access_tokens WHERE token_hash = ?
	`, hash[:]).Scan(&token.ID, &token.UserID, &token.Name, &stored, &lastUsed, &token.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	copy(token.TokenHash[:], stored)
	if lastUsed.Valid {
		token.LastUsedAt = &lastUsed.Time
	}
	return &token, nil
}

func (s *SQLiteStorage) GetTokenByHash(ctx context.Context, hash [32]byte) (*types.AccessToken, error) {
	return s.getTokenByHashWithQuerier(ctx, s.querier(), hash)
}

func (s *SQLiteStorage) touchTokenWithQuerier(ctx context.Context, q querier, tokenID int64) error {
	_, err := q.ExecContext(ctx, "UPDATE access_tokens SET last_used_at = ? WHERE id = ?", time.Now().UTC(), tokenID)
	if err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) TouchToken(ctx context.Context, tokenID int64) error {
	return s.touchTokenWithQuerier(ctx, s.querier(), tokenID)
}

func (s *SQLiteStorage) deleteTokenWithQuerier(ctx context.Context, q querier, tokenID int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM access_tokens WHERE id = ?", tokenID)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteToken(ctx context.Context, tokenID int64) error {
	return s.deleteTokenWithQuerier(ctx, s.querier(), tokenID)
}

// Status operations

func (s *SQLiteStorage) statsWithQuerier(ctx context.Context, q querier) (*Stats, error) {
	var stats Stats
	err := q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM products),
		       (SELECT COUNT(*) FROM orders),
		       (SELECT COUNT(*) FROM users)
	`).Scan(&stats.Products, &stats.Orders, &stats.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	return &stats, nil
}

// Stats returns row counts for health reporting
func (s *SQLiteStorage) Stats(ctx context.Context) (*Stats, error) {
	return s.statsWithQuerier(ctx, s.querier())
}

// Transaction implementations. Every method runs on the transaction's
// querier: the pool holds one connection, so reaching for s.db here would
// block until the transaction ends.

func (t *sqliteTx) CreateProduct(ctx context.Context, product *types.Product) error {
	return t.storage.createProductWithQuerier(ctx, t.querier(), product)
}

func (t *sqliteTx) GetProduct(ctx context.Context, productID int64) (*types.Product, error) {
	return t.storage.getProductWithQuerier(ctx, t.querier(), productID)
}

func (t *sqliteTx) UpdateProduct(ctx context.Context, product *types.Product) error {
	return t.storage.updateProductWithQuerier(ctx, t.querier(), product)
}

func (t *sqliteTx) DeleteProduct(ctx context.Context, productID int64) error {
	return t.storage.deleteProductWithQuerier(ctx, t.querier(), productID)
}

func (t *sqliteTx) ListProducts(ctx context.Context, filter types.ProductFilter, page types.PageRequest) ([]*types.Product, int, error) {
	return t.storage.listProductsWithQuerier(ctx, t.querier(), filter, page)
}

func (t *sqliteTx) UpdateStock(ctx context.Context, productID int64, quantity int) (*types.Product, error) {
	return t.storage.updateStockWithQuerier(ctx, t.querier(), productID, quantity)
}

func (t *sqliteTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	return t.storage.decrementStockWithQuerier(ctx, t.querier(), productID, quantity)
}

func (t *sqliteTx) CreateOrderWithItems(ctx context.Context, order *types.Order) error {
	if err := t.storage.insertOrderWithQuerier(ctx, t.querier(), order); err != nil {
		return err
	}
	return t.storage.loadItemProducts(ctx, t.querier(), order)
}

func (t *sqliteTx) GetOrder(ctx context.Context, orderID int64) (*types.Order, error) {
	return t.storage.getOrderWithQuerier(ctx, t.querier(), orderID)
}

func (t *sqliteTx) ListOrdersByUser(ctx context.Context, userID int64, page types.PageRequest) ([]*types.Order, int, error) {
	return t.storage.listOrdersByUserWithQuerier(ctx, t.querier(), userID, page)
}

func (t *sqliteTx) CreateUser(ctx context.Context, user *types.User) error {
	return t.storage.createUserWithQuerier(ctx, t.querier(), user)
}

func (t *sqliteTx) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	return t.storage.getUserWithQuerier(ctx, t.querier(), userID)
}

func (t *sqliteTx) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return t.storage.getUserByEmailWithQuerier(ctx, t.querier(), email)
}

func (t *sqliteTx) CreateToken(ctx context.Context, token *types.AccessToken) error {
	return t.storage.createTokenWithQuerier(ctx, t.querier(), token)
}

func (t *sqliteTx) GetTokenByHash(ctx context.Context, hash [32]byte) (*types.AccessToken, error) {
	return t.storage.getTokenByHashWithQuerier(ctx, t.querier(), hash)
}

func (t *sqliteTx) TouchToken(ctx context.Context, tokenID int64) error {
	return t.storage.touchTokenWithQuerier(ctx, t.querier(), tokenID)
}

func (t *sqliteTx) DeleteToken(ctx context.Context, tokenID int64) error {
	return t.storage.deleteTokenWithQuerier(ctx, t.querier(), tokenID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
