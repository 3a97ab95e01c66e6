// Package datastruct provides the slice-backed containers used for loan
// history (Stack) and reservation waitlists (Queue).
package datastruct

import "errors"

// ErrEmpty is returned when reading from an empty container. Callers are
// expected to check IsEmpty first, so seeing it usually means a bug.
var ErrEmpty = errors.New("container is empty")

// Stack is a LIFO container. The zero value is ready to use.
type Stack[T any] struct {
	items []T
}

// NewStack returns a stack holding items, bottom first.
func NewStack[T any](items ...T) *Stack[T] {
	s := &Stack[T]{}
	s.Load(items)
	return s
}

func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
}

// Pop removes and returns the top item.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if s.IsEmpty() {
		return zero, ErrEmpty
	}
	last := len(s.items) - 1
	item := s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return item, nil
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (T, error) {
	if s.IsEmpty() {
		var zero T
		return zero, ErrEmpty
	}
	return s.items[len(s.items)-1], nil
}

func (s *Stack[T]) IsEmpty() bool { return len(s.items) == 0 }
func (s *Stack[T]) Size() int     { return len(s.items) }

// ToSlice copies the items bottom to top, the order Load expects.
func (s *Stack[T]) ToSlice() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Load replaces the contents with items, bottom first.
func (s *Stack[T]) Load(items []T) {
	s.items = make([]T, len(items))
	copy(s.items, items)
}

// Clear drops every item.
func (s *Stack[T]) Clear() {
	s.items = nil
}
