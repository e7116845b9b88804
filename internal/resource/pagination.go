package resource

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/starford/flatrest/internal/models"
)

// Page size limits.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageParams reads page and per_page from q. Absent parameters take their
// default; if either present value is not an integer both fall back to defaults.
func PageParams(q url.Values) (page, perPage int) {
	page, perPage = DefaultPage, DefaultPerPage
	if q.Has("page") {
		p, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			return DefaultPage, DefaultPerPage
		}
		page = p
	}
	if q.Has("per_page") {
		pp, err := strconv.Atoi(q.Get("per_page"))
		if err != nil {
			return DefaultPage, DefaultPerPage
		}
		perPage = pp
	}
	return max(1, page), min(MaxPerPage, max(1, perPage))
}

// pageBounds returns the [start, end) slice of a page, clipped to total.
func pageBounds(total, page, perPage int) (int, int) {
	if page-1 >= (total+perPage-1)/perPage {
		return total, total
	}
	start := (page - 1) * perPage
	return start, min(total, start+perPage)
}

// Paginate builds list metadata. baseURL is the collection URL without a query.
func Paginate(total, page, perPage int, baseURL string) models.Pagination {
	totalPages := (total + perPage - 1) / perPage
	current := min(max(1, page), max(1, totalPages))

	link := func(n int) *string {
		if n == 0 {
			return nil
		}
		s := fmt.Sprintf("%s?page=%d&per_page=%d", baseURL, n, perPage)
		return &s
	}

	meta := models.Pagination{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: current,
		PerPage:     perPage,
		FirstPage:   link(1),
		LastPage:    link(totalPages),
	}
	if current < totalPages {
		meta.NextPage = link(current + 1)
	}
	if current > 1 {
		meta.PrevPage = link(current - 1)
	}
	return meta
}
