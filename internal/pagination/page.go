// Package pagination holds the offset page state shared by the feed and people search.
package pagination

// PageState accumulates pages of T. It is not safe for concurrent use; owners serialize access.
type PageState[T any] struct {
	Items    []T  `json:"items"`
	PageSize int  `json:"page_size"`
	Offset   int  `json:"offset"`
	HasMore  bool `json:"has_more"`
}

// New returns an empty state that still allows a first fetch.
func New[T any](pageSize int) *PageState[T] {
	return &PageState[T]{PageSize: pageSize, HasMore: true, Items: []T{}}
}

// Reset drops accumulated items and rewinds the offset.
func (p *PageState[T]) Reset(pageSize int) {
	p.Items = []T{}
	p.PageSize = pageSize
	p.Offset = 0
	p.HasMore = true
}

// Record applies one fetch. HasMore is decided from rawFetched, the row count the store
// returned before any client-side filtering; consumed advances the offset; visible is what
// survived filtering and gets appended.
func (p *PageState[T]) Record(rawFetched, consumed int, visible []T) {
	p.HasMore = rawFetched >= p.PageSize
	p.Offset += consumed
	p.Items = append(p.Items, visible...)
}

// Snapshot copies the state so callers can read it outside the owner's lock.
func (p *PageState[T]) Snapshot() PageState[T] {
	items := make([]T, len(p.Items))
	copy(items, p.Items)
	return PageState[T]{Items: items, PageSize: p.PageSize, Offset: p.Offset, HasMore: p.HasMore}
}

// Filter keeps the elements for which keep returns true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
