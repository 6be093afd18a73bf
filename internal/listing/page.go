package listing

import (
	"strconv"

	"github.com/sujalbistaa/yatube/internal/models"
)

// DefaultPageSize is the number of posts per page unless configured.
const DefaultPageSize = 10

// Page is one window of an ordered post listing.
type Page struct {
	Items       []models.Post `json:"items"`
	Number      int           `json:"page"`
	Size        int           `json:"pageSize"`
	Total       int64         `json:"total"`
	NumPages    int           `json:"numPages"`
	HasNext     bool          `json:"hasNext"`
	HasPrevious bool          `json:"hasPrevious"`
}

// Paginator turns 1-indexed page numbers into row windows.
type Paginator struct {
	size int
}

// NewPaginator returns a Paginator of size rows per page. Sizes below one fall
// back to DefaultPageSize.
func NewPaginator(size int) Paginator {
	if size < 1 {
		size = DefaultPageSize
	}
	return Paginator{size: size}
}

// Window returns the offset and limit of page n. Pages below one are page one.
func (p Paginator) Window(n int) (offset, limit int) {
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.size, p.size
}

// NumPages is the number of non-empty pages for total rows; zero rows still
// make one (empty) page.
func (p Paginator) NumPages(total int64) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(p.size) - 1) / int64(p.size))
}

func (p Paginator) page(n int, total int64, items []models.Post) *Page {
	if n < 1 {
		n = 1
	}
	if items == nil {
		items = []models.Post{}
	}
	numPages := p.NumPages(total)
	return &Page{
		Items:       items,
		Number:      n,
		Size:        p.size,
		Total:       total,
		NumPages:    numPages,
		HasNext:     n < numPages,
		HasPrevious: n > 1,
	}
}

// ParsePage reads a page query value. Missing, malformed or non-positive
// values mean page one.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
