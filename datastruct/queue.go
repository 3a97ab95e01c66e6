package datastruct

// Queue is a FIFO container. The zero value is ready to use.
type Queue[T any] struct {
	items []T
}

// NewQueue returns a queue holding items, front first.
func NewQueue[T any](items ...T) *Queue[T] {
	q := &Queue[T]{}
	q.Load(items)
	return q
}

func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

// Dequeue removes and returns the front item.
func (q *Queue[T]) Dequeue() (T, error) {
	var zero T
	if q.IsEmpty() {
		return zero, ErrEmpty
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, nil
}

// Front returns the front item without removing it.
func (q *Queue[T]) Front() (T, error) {
	if q.IsEmpty() {
		var zero T
		return zero, ErrEmpty
	}
	return q.items[0], nil
}

func (q *Queue[T]) IsEmpty() bool { return len(q.items) == 0 }
func (q *Queue[T]) Size() int     { return len(q.items) }

// ToSlice copies the items front to back, the order Load expects.
func (q *Queue[T]) ToSlice() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Load replaces the contents with items, front first.
func (q *Queue[T]) Load(items []T) {
	q.items = make([]T, len(items))
	copy(q.items, items)
}
