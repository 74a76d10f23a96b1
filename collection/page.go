package collection

// Page selects one page of a result set. Paging applies only when both
// fields are positive; otherwise the whole result set is returned.
type Page struct {
	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
}

// Bounds returns the skip and limit for p, and whether paging applies.
func (p Page) Bounds() (skip, limit int64, ok bool) {
	if p.Page <= 0 || p.PerPage <= 0 {
		return 0, 0, false
	}
	return int64(p.PerPage) * int64(p.Page-1), int64(p.PerPage), true
}

// Paginate applies p to an in-memory slice.
func Paginate[T any](items []T, p Page) []T {
	skip, limit, ok := p.Bounds()
	if !ok {
		return items
	}
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := min(skip+limit, int64(len(items)))
	return items[skip:end]
}
