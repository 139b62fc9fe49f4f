package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Lamp", "LAMP"},
		{"Éclair Maker", "éclair maker"},
		{"ÜBER", "über"},
	}
	for _, tt := range tests {
		t.Run(tt.a, func(t *testing.T) {
			assert.Equal(t, FoldName(tt.a), FoldName(tt.b))
		})
	}
}

func TestProductFilter_Matches(t *testing.T) {
	p := &Product{Name: "Éclair Maker", Price: decimal.RequireFromString("24.50"), Category: "Home"}
	lo := decimal.NewFromInt(20)
	hi := decimal.NewFromInt(24)

	tests := []struct {
		name   string
		filter ProductFilter
		want   bool
	}{
		{"empty", ProductFilter{}, true},
		{"name exact case", ProductFilter{Name: "Éclair"}, true},
		{"name folded", ProductFilter{Name: "éclair"}, true},
		{"name upper", ProductFilter{Name: "ÉCLAIR MAKER"}, true},
		{"name miss", ProductFilter{Name: "toaster"}, false},
		{"min price", ProductFilter{MinPrice: &lo}, true},
		{"max price", ProductFilter{MaxPrice: &hi}, false},
		{"category", ProductFilter{Category: "Home"}, true},
		{"category case sensitive", ProductFilter{Category: "home"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(p))
		})
	}
}
