package algorithms

import (
	"slices"

	"library-catalog/models"
)

// ShelfSelection is the outcome of FindOptimalShelf.
type ShelfSelection struct {
	Books       []*models.Book
	TotalValue  float64
	TotalWeight float64
}

// FindRiskyCombinations returns every group of four distinct books whose
// summed weight is strictly above threshold. Groups come out in lexicographic
// index order of the input.
func FindRiskyCombinations(books []*models.Book, threshold float64) [][4]*models.Book {
	risky := [][4]*models.Book{}
	n := len(books)

	for a := 0; a < n-3; a++ {
		for b := a + 1; b < n-2; b++ {
			for c := b + 1; c < n-1; c++ {
				for d := c + 1; d < n; d++ {
					weight := books[a].Weight + books[b].Weight + books[c].Weight + books[d].Weight
					if weight > threshold {
						risky = append(risky, [4]*models.Book{books[a], books[b], books[c], books[d]})
					}
				}
			}
		}
	}
	return risky
}

// FindOptimalShelf picks the subset of books with the highest total value
// whose total weight stays within capacity.
//
// Each index first explores leaving the book out, then putting it in; a
// branch that would overflow the shelf is never entered. Only a strictly
// higher value replaces the best so far, so among equal-value subsets the
// first one reached wins. A selection worth nothing is reported as empty.
func FindOptimalShelf(books []*models.Book, capacity float64) ShelfSelection {
	best := ShelfSelection{Books: []*models.Book{}}
	current := make([]*models.Book, 0, len(books))

	var backtrack func(index int, weight, value float64)
	backtrack = func(index int, weight, value float64) {
		if index >= len(books) {
			if value > best.TotalValue {
				best = ShelfSelection{
					Books:       slices.Clone(current),
					TotalValue:  value,
					TotalWeight: weight,
				}
			}
			return
		}

		backtrack(index+1, weight, value)

		b := books[index]
		if weight+b.Weight <= capacity {
			current = append(current, b)
			backtrack(index+1, weight+b.Weight, value+b.Value)
			current = current[:len(current)-1]
		}
	}

	backtrack(0, 0, 0)
	return best
}
