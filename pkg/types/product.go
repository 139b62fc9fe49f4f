package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field limits for catalog entries
const (
	MaxProductNameLength = 255
	MaxCategoryLength    = 100
)

// Product is a catalog entry with price and available stock
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Image       *string // Nullable
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the product fields, reporting every failing field at once
func (p *Product) Validate() error {
	verr := NewValidationError()

	if strings.TrimSpace(p.Name) == "" {
		verr.Add("name", "The name field is required.")
	} else if utf8.RuneCountInString(p.Name) > MaxProductNameLength {
		verr.Add("name", "The name field must not be greater than 255 characters.")
	}

	if strings.TrimSpace(p.Description) == "" {
		verr.Add("description", "The description field is required.")
	}

	if strings.TrimSpace(p.Category) == "" {
		verr.Add("category", "The category field is required.")
	} else if utf8.RuneCountInString(p.Category) > MaxCategoryLength {
		verr.Add("category", "The category field must not be greater than 100 characters.")
	}

	switch ValidatePrice(p.Price) {
	case ErrNegativePrice:
		verr.Add("price", "The price field must be at least 0.")
	case ErrPricePrecision:
		verr.Add("price", "The price field must have at most 2 decimal places.")
	}

	if p.Stock < 0 {
		verr.Add("stock", "The stock field must be at least 0.")
	}

	return verr.OrNil()
}

// ProductFilter narrows a catalog listing. Zero values mean "no constraint".
type ProductFilter struct {
	Name     string           // Case-insensitive substring
	MinPrice *decimal.Decimal // Inclusive
	MaxPrice *decimal.Decimal // Inclusive
	Category string           // Exact match
}

// FoldName is the case folding used for name filters everywhere: in
// Matches, in the stored products.name_folded column and in cache keys.
func FoldName(s string) string {
	return strings.ToLower(s)
}

// Matches reports whether p satisfies every constraint of f
func (f ProductFilter) Matches(p *Product) bool {
	if f.Name != "" && !strings.Contains(FoldName(p.Name), FoldName(f.Name)) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}
