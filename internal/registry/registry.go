// Package registry provides the ordered collection the ledger keeps its
// top-level entities in: insertion-ordered iteration with id-keyed
// insert-if-unique and lookup.
package registry

// Item is anything stored in a Registry, keyed by a unique id.
type Item interface {
	ID() string
}

type Registry[T Item] struct {
	items []T
	index map[string]int
}

func New[T Item]() *Registry[T] {
	return &Registry[T]{index: make(map[string]int)}
}

// Add inserts the item if no item with the same id exists. It reports
// whether the item was inserted.
func (r *Registry[T]) Add(item T) bool {
	if _, ok := r.index[item.ID()]; ok {
		return false
	}
	r.index[item.ID()] = len(r.items)
	r.items = append(r.items, item)
	return true
}

func (r *Registry[T]) Get(id string) (T, bool) {
	if i, ok := r.index[id]; ok {
		return r.items[i], true
	}
	var zero T
	return zero, false
}

func (r *Registry[T]) Contains(id string) bool {
	_, ok := r.index[id]
	return ok
}

func (r *Registry[T]) Len() int {
	return len(r.items)
}

// Items returns the stored items in insertion order. The slice is a copy;
// the items are shared.
func (r *Registry[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Find returns the first item, in insertion order, matching the predicate.
func (r *Registry[T]) Find(match func(T) bool) (T, bool) {
	for _, item := range r.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
