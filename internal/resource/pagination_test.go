package resource

import (
	"net/url"
	"testing"
)

func TestPageParams(t *testing.T) {
	cases := []struct {
		query     string
		page, per int
	}{
		{"", 1, 10},
		{"page=3", 3, 10},
		{"page=2&per_page=5", 2, 5},
		{"page=0", 1, 10},
		{"page=-4", 1, 10},
		{"per_page=0", 1, 1},
		{"per_page=500", 1, 100},
		{"page=abc&per_page=5", 1, 10},
		{"page=2&per_page=x", 1, 10},
		{"page=2.5", 1, 10},
		{"page=", 1, 10},
	}
	for _, c := range cases {
		q, _ := url.ParseQuery(c.query)
		page, per := PageParams(q)
		if page != c.page || per != c.per {
			t.Errorf("PageParams(%q) = %d,%d want %d,%d", c.query, page, per, c.page, c.per)
		}
	}
}

func TestPaginate_TwentyFiveItems(t *testing.T) {
	base := "http://localhost/devices"

	first := Paginate(25, 1, 10, base)
	if first.TotalPages != 3 {
		t.Fatalf("total_pages = %d, want 3", first.TotalPages)
	}
	if first.PrevPage != nil {
		t.Errorf("prev_page on page 1 = %q", *first.PrevPage)
	}
	if first.NextPage == nil || *first.NextPage != base+"?page=2&per_page=10" {
		t.Errorf("next_page = %v", first.NextPage)
	}
	if *first.LastPage != base+"?page=3&per_page=10" {
		t.Errorf("last_page = %q", *first.LastPage)
	}

	last := Paginate(25, 3, 10, base)
	if last.NextPage != nil {
		t.Errorf("next_page on last page = %q", *last.NextPage)
	}
	if last.PrevPage == nil || *last.PrevPage != base+"?page=2&per_page=10" {
		t.Errorf("prev_page = %v", last.PrevPage)
	}
}

func TestPaginate_Empty(t *testing.T) {
	m := Paginate(0, 1, 10, "http://x/r")
	if m.TotalPages != 0 || m.CurrentPage != 1 {
		t.Errorf("pages = %d current = %d", m.TotalPages, m.CurrentPage)
	}
	if m.LastPage != nil || m.NextPage != nil || m.PrevPage != nil {
		t.Error("only first_page should be set for an empty collection")
	}
	if m.FirstPage == nil {
		t.Error("first_page missing")
	}
}

func TestPaginate_ClampsCurrentPage(t *testing.T) {
	m := Paginate(5, 9, 10, "http://x/r")
	if m.CurrentPage != 1 {
		t.Errorf("current_page = %d, want 1", m.CurrentPage)
	}
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		total, page, per int
		start, end       int
	}{
		{25, 1, 10, 0, 10},
		{25, 3, 10, 20, 25},
		{25, 4, 10, 25, 25},
		{0, 1, 10, 0, 0},
		{25, int(^uint(0) >> 1), 100, 25, 25},
	}
	for _, c := range cases {
		s, e := pageBounds(c.total, c.page, c.per)
		if s != c.start || e != c.end {
			t.Errorf("pageBounds(%d,%d,%d) = %d,%d want %d,%d", c.total, c.page, c.per, s, e, c.start, c.end)
		}
	}
}
