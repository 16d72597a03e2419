package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// PageCount is the number of pages needed for total items.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Page returns the 1-based page n of data. Out of range pages are empty.
// The result aliases data; callers must not mutate it.
func Page[T any](data []T, size, n int) []T {
	if size <= 0 || n < 1 {
		return []T{}
	}
	start := (n - 1) * size
	if start >= len(data) {
		return []T{}
	}
	end := start + size
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}

// NewPagination builds metadata for page n.
func NewPagination(total, size, n int) Pagination {
	return Pagination{Page: n, PageSize: size, TotalCount: total, TotalPages: PageCount(total, size)}
}
