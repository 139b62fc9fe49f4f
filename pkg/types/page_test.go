package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		in          PageRequest
		wantPage    int
		wantPerPage int
	}{
		{"defaults", PageRequest{}, 1, DefaultPerPage},
		{"negative page", PageRequest{Page: -3, PerPage: 5}, 1, 5},
		{"per page capped", PageRequest{Page: 2, PerPage: 500}, 2, MaxPerPage},
		{"page capped", PageRequest{Page: math.MaxInt, PerPage: MaxPerPage}, MaxPage, MaxPerPage},
		{"page at cap", PageRequest{Page: MaxPage, PerPage: 1}, MaxPage, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPerPage, got.PerPage)
			assert.GreaterOrEqual(t, got.Offset(), 0)
		})
	}
}

func TestNewPage_LastPage(t *testing.T) {
	p := NewPage[int](nil, PageRequest{Page: 1, PerPage: 10}, 0)
	assert.Equal(t, 1, p.LastPage)
	assert.NotNil(t, p.Items)

	p = NewPage([]int{1}, PageRequest{Page: 3, PerPage: 10}, 21)
	assert.Equal(t, 3, p.LastPage)
	assert.Equal(t, 3, p.CurrentPage)
}
