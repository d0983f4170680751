package visibleset

// DefaultCap is how many entries are handed to the renderer at most.
const DefaultCap = 16

// Capped is the rendered prefix of a list together with the size of the full list.
type Capped[T any] struct {
	Items     []T  `json:"items"`
	Total     int  `json:"total"`
	Limit     int  `json:"limit"`
	Truncated bool `json:"truncated"`
}

// Cap keeps the first limit items. The input slice is not modified; a non-positive limit
// renders nothing.
func Cap[T any](items []T, limit int) Capped[T] {
	if limit < 0 {
		limit = 0
	}
	n := min(len(items), limit)
	out := make([]T, n)
	copy(out, items[:n])
	return Capped[T]{
		Items:     out,
		Total:     len(items),
		Limit:     limit,
		Truncated: len(items) > limit,
	}
}
