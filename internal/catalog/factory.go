package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dshills/storefront/internal/storage"
	"github.com/dshills/storefront/pkg/types"
)

// SeedCategories are the categories generated products are drawn from
var SeedCategories = []string{"Electronics", "Clothing", "Books", "Home", "Toys"}

var seedWords = []string{
	"classic", "compact", "deluxe", "eco", "everyday", "portable", "premium",
	"smart", "vintage", "wireless", "bamboo", "canvas", "ceramic", "cotton",
	"leather", "steel", "wooden", "backpack", "blender", "candle", "charger",
	"jacket", "journal", "kettle", "lamp", "mug", "novel", "puzzle", "robot",
	"speaker", "sweater", "teapot", "watch",
}

// Factory generates plausible catalog products for development databases
type Factory struct {
	rng *rand.Rand
}

// NewFactory creates a factory; equal seeds give equal products
func NewFactory(seed uint64) *Factory {
	return &Factory{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Product returns a product with a three word name, a price between 10.00
// and 1000.00, stock between 0 and 100 and a placeholder image.
func (f *Factory) Product() *types.Product {
	name := f.words(3)
	price := decimal.New(1000+f.rng.Int64N(99001), -types.MoneyScale)
	image := fmt.Sprintf("https://picsum.photos/id/%d/300/300", 1+f.rng.IntN(1000))

	return &types.Product{
		Name:        name,
		Description: f.paragraph(),
		Price:       price,
		Category:    SeedCategories[f.rng.IntN(len(SeedCategories))],
		Stock:       f.rng.IntN(101),
		Image:       &image,
	}
}

// Seed inserts n generated products into store
func (f *Factory) Seed(ctx context.Context, store storage.Store, n int) ([]*types.Product, error) {
	products := make([]*types.Product, 0, n)
	for i := 0; i < n; i++ {
		p := f.Product()
		if err := store.CreateProduct(ctx, p); err != nil {
			return products, fmt.Errorf("failed to seed product %d: %w", i+1, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (f *Factory) words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = seedWords[f.rng.IntN(len(seedWords))]
	}
	return strings.Join(parts, " ")
}

func (f *Factory) paragraph() string {
	sentences := make([]string, 3+f.rng.IntN(3))
	for i := range sentences {
		s := f.words(6 + f.rng.IntN(6))
		sentences[i] = strings.ToUpper(s[:1]) + s[1:] + "."
	}
	return strings.Join(sentences, " ")
}
