package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":    1,
		"1":   1,
		"2":   2,
		"0":   1,
		"-3":  1,
		"abc": 1,
		"2.5": 1,
		"40":  40,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), raw)
	}
}

func TestPaginatorWindow(t *testing.T) {
	p := NewPaginator(10)

	offset, limit := p.Window(1)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 10, limit)

	offset, _ = p.Window(3)
	assert.Equal(t, 20, offset)

	offset, _ = p.Window(0)
	assert.Equal(t, 0, offset)
}

func TestPaginatorNumPages(t *testing.T) {
	p := NewPaginator(10)
	assert.Equal(t, 1, p.NumPages(0))
	assert.Equal(t, 1, p.NumPages(10))
	assert.Equal(t, 2, p.NumPages(11))
	assert.Equal(t, 2, p.NumPages(15))
}

func TestNewPaginatorFallsBack(t *testing.T) {
	_, limit := NewPaginator(0).Window(1)
	assert.Equal(t, DefaultPageSize, limit)
	_, limit = NewPaginator(3).Window(1)
	assert.Equal(t, 3, limit)
}
