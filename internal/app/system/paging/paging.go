// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size used when the client does not ask for
// one. MaxLimit caps what a client may ask for.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a parsed page/limit pair, always valid.
type Params struct {
	Page  int
	Limit int
}

// Parse extracts the "page" and "limit" query parameters, clamping them
// to valid ranges. Missing or invalid values fall back to page 1 and
// DefaultLimit.
func Parse(r *http.Request) Params {
	p := Params{Page: 1, Limit: DefaultLimit}

	if s := query.Get(r, "page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Page = n
		}
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Limit = n
			if p.Limit > MaxLimit {
				p.Limit = MaxLimit
			}
		}
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Slice applies the page window to an in-memory result set. Lists in
// this service join rosters with evaluations per student, so filtering
// happens in memory and the page is cut afterwards.
func Slice[T any](rows []T, p Params) []T {
	start := p.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// Pages returns the total page count for n rows.
func (p Params) Pages(n int) int {
	if n == 0 {
		return 0
	}
	return (n + p.Limit - 1) / p.Limit
}
