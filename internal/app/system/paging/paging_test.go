// internal/app/system/paging/paging_test.go
package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/x", 1, DefaultLimit},
		{"explicit", "/x?page=3&limit=10", 3, 10},
		{"zero page", "/x?page=0", 1, DefaultLimit},
		{"negative page", "/x?page=-2", 1, DefaultLimit},
		{"garbage", "/x?page=abc&limit=xyz", 1, DefaultLimit},
		{"limit capped", "/x?limit=10000", 1, MaxLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Parse(httptest.NewRequest("GET", tc.url, nil))
			if p.Page != tc.wantPage || p.Limit != tc.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d",
					p.Page, p.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	got := Slice(rows, Params{Page: 1, Limit: 2})
	if len(got) != 2 || got[0] != 1 {
		t.Fatalf("page 1: got %v", got)
	}

	got = Slice(rows, Params{Page: 3, Limit: 2})
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("last partial page: got %v", got)
	}

	got = Slice(rows, Params{Page: 4, Limit: 2})
	if len(got) != 0 {
		t.Fatalf("past the end: got %v", got)
	}
}

func TestPages(t *testing.T) {
	p := Params{Page: 1, Limit: 20}
	if got := p.Pages(0); got != 0 {
		t.Fatalf("Pages(0) = %d, want 0", got)
	}
	if got := p.Pages(20); got != 1 {
		t.Fatalf("Pages(20) = %d, want 1", got)
	}
	if got := p.Pages(21); got != 2 {
		t.Fatalf("Pages(21) = %d, want 2", got)
	}
}
