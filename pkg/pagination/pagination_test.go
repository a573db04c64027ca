package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
		wantOffset  int
	}{
		{name: "defaults", query: "", wantPage: 1, wantPerPage: 20, wantOffset: 0},
		{name: "explicit values", query: "?page=3&per_page=50", wantPage: 3, wantPerPage: 50, wantOffset: 100},
		{name: "zero page falls back", query: "?page=0", wantPage: 1, wantPerPage: 20, wantOffset: 0},
		{name: "negative page falls back", query: "?page=-2", wantPage: 1, wantPerPage: 20, wantOffset: 0},
		{name: "per_page above cap falls back", query: "?per_page=500", wantPage: 1, wantPerPage: 20, wantOffset: 0},
		{name: "non-numeric ignored", query: "?page=abc&per_page=xyz", wantPage: 1, wantPerPage: 20, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/vendas"+tt.query, nil)
			p := FromRequest(r)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPerPage, p.PerPage)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}
