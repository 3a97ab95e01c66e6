package algorithms

import (
	"cmp"

	"library-catalog/models"
)

// ByISBN is the sort key of the ordered inventory.
func ByISBN(b *models.Book) string { return b.ISBN }

// ByValue is the sort key of the global inventory report.
func ByValue(b *models.Book) float64 { return b.Value }

// InsertionSort returns a sorted copy of items. Elements only move past
// strictly greater keys, so equal keys keep their input order.
func InsertionSort[T any, K cmp.Ordered](items []T, key func(T) K) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	for i := 1; i < len(sorted); i++ {
		current := sorted[i]
		currentKey := key(current)
		j := i - 1
		for j >= 0 && key(sorted[j]) > currentKey {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = current
	}
	return sorted
}

// MergeSort returns a sorted copy of items without touching the input.
func MergeSort[T any, K cmp.Ordered](items []T, key func(T) K) []T {
	if len(items) <= 1 {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}

	mid := len(items) / 2
	left := MergeSort(items[:mid], key)
	right := MergeSort(items[mid:], key)
	return merge(left, right, key)
}

// merge takes from the left run on ties, which is what makes MergeSort stable.
func merge[T any, K cmp.Ordered](left, right []T, key func(T) K) []T {
	result := make([]T, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if key(left[i]) <= key(right[j]) {
			result = append(result, left[i])
			i++
		} else {
			result = append(result, right[j])
			j++
		}
	}
	result = append(result, left[i:]...)
	return append(result, right[j:]...)
}
