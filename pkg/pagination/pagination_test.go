package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/products", nil)
	p := FromRequest(r)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
}

func TestFromRequest_ParsesValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/products?page=3&per_page=12", nil)
	p := FromRequest(r)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 12, p.PerPage)
}

func TestFromRequest_MalformedFallsBack(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/products?page=abc&per_page=-5", nil)
	p := FromRequest(r)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)

	r = httptest.NewRequest("GET", "/api/v1/products?per_page=5000", nil)
	assert.Equal(t, DefaultPerPage, FromRequest(r).PerPage)
}

func TestNormalize_ClampsBounds(t *testing.T) {
	p := Params{Page: 0, PerPage: 0}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)

	p = Params{Page: 2, PerPage: 500}.Normalize()
	assert.Equal(t, MaxPerPage, p.PerPage)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, PerPage: 10}.Offset())
}

func TestNewResult_PageMath(t *testing.T) {
	// 25 items at 10 per page: 3 pages, last page has no next.
	data := make([]int, 5)
	res := NewResult(data, 25, Params{Page: 3, PerPage: 10})
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Data, 5)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)

	res = NewResult(make([]int, 10), 25, Params{Page: 1, PerPage: 10})
	assert.True(t, res.HasNext)
	assert.False(t, res.HasPrev)
}

func TestNewResult_NilDataBecomesEmptySlice(t *testing.T) {
	res := NewResult[int](nil, 0, DefaultParams())
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Zero(t, res.TotalPages)
	assert.False(t, res.HasNext)
}
