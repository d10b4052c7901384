package listing

// Ellipsis is the marker inserted into a button window where page
// numbers were elided.
const Ellipsis = -1

// MaxVisibleButtons is the width of the sliding page-button window.
const MaxVisibleButtons = 5

// TotalPages returns ceil(count/pageSize). Zero when pageSize is not
// positive.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage forces page into [1, totalPages]. A list with no pages
// clamps to 1 so callers always hold a valid cursor.
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages >= 1 && page > totalPages {
		return totalPages
	}
	return page
}

// Slice returns the 1-based page window [start, start+pageSize) of
// items. Out-of-range pages yield an empty slice.
func Slice[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageMeta builds the envelope meta for a page over count items.
func PageMeta(page, pageSize, count int) *Meta {
	return &Meta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: count,
		TotalPages: TotalPages(count, pageSize),
	}
}

// Buttons computes the visible page-number buttons for a pager: a
// sliding window of up to MaxVisibleButtons pages anchored to keep the
// current page centered, clamped at the ends, with the first and last
// page always present and Ellipsis markers where the window is not
// adjacent to them.
func Buttons(current, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	if totalPages <= MaxVisibleButtons {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	current = ClampPage(current, totalPages)
	half := MaxVisibleButtons / 2
	start := current - half
	end := current + half
	if start < 1 {
		start = 1
		end = MaxVisibleButtons
	}
	if end > totalPages {
		end = totalPages
		start = totalPages - MaxVisibleButtons + 1
	}

	var pages []int
	if start > 1 {
		pages = append(pages, 1)
		if start > 2 {
			pages = append(pages, Ellipsis)
		}
	}
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	if end < totalPages {
		if end < totalPages-1 {
			pages = append(pages, Ellipsis)
		}
		pages = append(pages, totalPages)
	}
	return pages
}
