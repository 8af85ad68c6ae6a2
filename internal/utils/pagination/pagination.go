// Package pagination normalizes page/limit inputs for the feed endpoints.
package pagination

const (
	MinLimit = 1
	MaxLimit = 100
)

// Page is a normalized page request: Page >= 1, MinLimit <= Limit <= MaxLimit.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps raw page/limit values. Zero or negative limit falls back
// to defaultLimit; limits are clamped to [MinLimit, MaxLimit].
func Normalize(page, limit, defaultLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset returns the number of items preceding this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Slice returns the [start, end) window of this page over a list of n items.
// An out-of-range page yields an empty window.
func (p Page) Slice(n int) (int, int) {
	start := p.Offset()
	if start >= n {
		return 0, 0
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}
