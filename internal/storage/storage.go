package storage

import (
	"context"

	"github.com/dshills/storefront/pkg/types"
)

// Store defines the interface for persisting and querying storefront data
type Store interface {
	// Product operations
	CreateProduct(ctx context.Context, product *types.Product) error
	GetProduct(ctx context.Context, productID int64) (*types.Product, error)
	UpdateProduct(ctx context.Context, product *types.Product) error
	DeleteProduct(ctx context.Context, productID int64) error
	ListProducts(ctx context.Context, filter types.ProductFilter, page types.PageRequest) ([]*types.Product, int, error)

	// Stock operations
	//
	// UpdateStock reads the product and writes back stock-quantity without any
	// guard. DecrementStock is a single conditional update that only applies
	// when enough stock remains, reporting whether it did.
	UpdateStock(ctx context.Context, productID int64, quantity int) (*types.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)

	// Order operations
	CreateOrderWithItems(ctx context.Context, order *types.Order) error
	GetOrder(ctx context.Context, orderID int64) (*types.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64, page types.PageRequest) ([]*types.Order, int, error)

	// User operations
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, userID int64) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// Token operations
	CreateToken(ctx context.Context, token *types.AccessToken) error
	GetTokenByHash(ctx context.Context, hash [32]byte) (*types.AccessToken, error)
	TouchToken(ctx context.Context, tokenID int64) error
	DeleteToken(ctx context.Context, tokenID int64) error

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// Stats contains row counts used by health reporting
type Stats struct {
	Products int
	Orders   int
	Users    int
}
