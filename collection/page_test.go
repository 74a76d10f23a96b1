package collection

import "testing"

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name        string
		page        Page
		skip, limit int64
		ok          bool
	}{
		{"first page", Page{Page: 1, PerPage: 10}, 0, 10, true},
		{"third page", Page{Page: 3, PerPage: 25}, 50, 25, true},
		{"zero page", Page{Page: 0, PerPage: 10}, 0, 0, false},
		{"zero per page", Page{Page: 2, PerPage: 0}, 0, 0, false},
		{"negative", Page{Page: -1, PerPage: 5}, 0, 0, false},
		{"unset", Page{}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, limit, ok := tt.page.Bounds()
			if skip != tt.skip || limit != tt.limit || ok != tt.ok {
				t.Fatalf("Bounds() = %d, %d, %v; want %d, %d, %v", skip, limit, ok, tt.skip, tt.limit, tt.ok)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	if got := Paginate(items, Page{Page: 2, PerPage: 3}); len(got) != 3 || got[0] != 4 {
		t.Fatalf("unexpected page: %v", got)
	}
	if got := Paginate(items, Page{Page: 3, PerPage: 3}); len(got) != 1 || got[0] != 7 {
		t.Fatalf("unexpected last page: %v", got)
	}
	if got := Paginate(items, Page{Page: 4, PerPage: 3}); len(got) != 0 {
		t.Fatalf("expected empty page, got %v", got)
	}
	if got := Paginate(items, Page{PerPage: 3}); len(got) != len(items) {
		t.Fatalf("expected whole set, got %v", got)
	}
}
