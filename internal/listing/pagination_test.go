package listing

import (
	"reflect"
	"testing"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		pageSize int
		want     int
	}{
		{"exact multiple", 20, 10, 2},
		{"with remainder", 21, 10, 3},
		{"fewer than one page", 3, 10, 1},
		{"empty list", 0, 10, 0},
		{"zero page size", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.count, tt.pageSize); got != tt.want {
				t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.count, tt.pageSize, got, tt.want)
			}
		})
	}
}

func TestSlicePartitionsList(t *testing.T) {
	// Every element appears in exactly one page slice and no slice
	// exceeds the page size.
	for _, count := range []int{0, 1, 9, 10, 11, 25, 100} {
		items := make([]int, count)
		for i := range items {
			items[i] = i
		}
		const pageSize = 10

		total := 0
		for page := 1; page <= TotalPages(count, pageSize); page++ {
			slice := Slice(items, page, pageSize)
			if len(slice) > pageSize {
				t.Errorf("count=%d page=%d: slice length %d exceeds page size", count, page, len(slice))
			}
			for i, v := range slice {
				if v != (page-1)*pageSize+i {
					t.Errorf("count=%d page=%d: wrong element %d at offset %d", count, page, v, i)
				}
			}
			total += len(slice)
		}
		if total != count {
			t.Errorf("count=%d: page slices cover %d elements", count, total)
		}
	}
}

func TestSliceOutOfRange(t *testing.T) {
	items := []int{1, 2, 3}
	if got := Slice(items, 5, 10); len(got) != 0 {
		t.Errorf("Slice(page=5) = %v, want empty", got)
	}
	if got := Slice(items, 0, 10); len(got) != 0 {
		t.Errorf("Slice(page=0) = %v, want empty", got)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name        string
		page, total int
		want        int
	}{
		{"in range", 3, 5, 3},
		{"below range", 0, 5, 1},
		{"above range", 9, 5, 5},
		{"no pages", 4, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPage(tt.page, tt.total); got != tt.want {
				t.Errorf("ClampPage(%d, %d) = %d, want %d", tt.page, tt.total, got, tt.want)
			}
		})
	}
}

func TestButtons(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           []int
	}{
		{"no pages", 1, 0, nil},
		{"fits without window", 2, 4, []int{1, 2, 3, 4}},
		{"exactly five pages", 3, 5, []int{1, 2, 3, 4, 5}},
		{"centered in the middle", 10, 20, []int{1, Ellipsis, 8, 9, 10, 11, 12, Ellipsis, 20}},
		{"clamped at start", 1, 20, []int{1, 2, 3, 4, 5, Ellipsis, 20}},
		{"clamped near start", 3, 20, []int{1, 2, 3, 4, 5, Ellipsis, 20}},
		{"clamped at end", 20, 20, []int{1, Ellipsis, 16, 17, 18, 19, 20}},
		{"window adjacent to first page", 4, 20, []int{1, 2, 3, 4, 5, 6, Ellipsis, 20}},
		{"current beyond range clamps", 99, 20, []int{1, Ellipsis, 16, 17, 18, 19, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Buttons(tt.current, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Buttons(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
			}
		})
	}
}

func TestPageMeta(t *testing.T) {
	meta := PageMeta(2, 10, 35)
	if meta.Page != 2 || meta.PageSize != 10 || meta.TotalItems != 35 || meta.TotalPages != 4 {
		t.Errorf("PageMeta(2, 10, 35) = %+v", *meta)
	}
}
