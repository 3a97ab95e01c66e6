package algorithms

import (
	"library-catalog/models"

	"golang.org/x/text/cases"
)

// MaxRecursionDepth bounds the call depth of the aggregation functions.
// Longer inputs are walked with loops that add in the same order and emit
// the same trace, so callers cannot tell the difference.
const MaxRecursionDepth = 1 << 16

// AverageStep is one line of the AuthorAverageWeight trace.
type AverageStep struct {
	// Position is the 1-based index of the matching book; zero on the final step.
	Position      int
	Title         string
	Weight        float64
	RunningWeight float64
	Count         int

	Final   bool
	Average float64
}

// TraceFunc receives AuthorAverageWeight progress.
type TraceFunc func(AverageStep)

// AuthorTotalValue sums the value of the books whose author equals author,
// ignoring case.
func AuthorTotalValue(books []*models.Book, author string) float64 {
	fold := cases.Fold()
	target := fold.String(author)
	match := func(b *models.Book) bool { return fold.String(b.Author) == target }

	if len(books) > MaxRecursionDepth {
		// Summing from the tail keeps the float rounding of the recursive form.
		var total float64
		for i := len(books) - 1; i >= 0; i-- {
			if match(books[i]) {
				total = books[i].Value + total
			}
		}
		return total
	}
	return totalValueFrom(books, match, 0)
}

func totalValueFrom(books []*models.Book, match func(*models.Book) bool, index int) float64 {
	if index >= len(books) {
		return 0
	}
	var current float64
	if match(books[index]) {
		current = books[index].Value
	}
	return current + totalValueFrom(books, match, index+1)
}

// AuthorAverageWeight returns the mean weight of the author's books, or 0
// when there are none. trace, if non-nil, sees one step per matching book
// and a final step carrying the average; nothing is traced on no match.
func AuthorAverageWeight(books []*models.Book, author string, trace TraceFunc) float64 {
	if trace == nil {
		trace = func(AverageStep) {}
	}
	fold := cases.Fold()
	target := fold.String(author)
	w := averageWalker{
		books: books,
		match: func(b *models.Book) bool { return fold.String(b.Author) == target },
		trace: trace,
	}

	if len(books) > MaxRecursionDepth {
		var total float64
		var count int
		for i := range books {
			total, count = w.visit(i, total, count)
		}
		return w.finish(total, count)
	}
	return w.from(0, 0, 0)
}

type averageWalker struct {
	books []*models.Book
	match func(*models.Book) bool
	trace TraceFunc
}

// from is tail-recursive: nothing happens after the recursive call returns.
func (w averageWalker) from(index int, totalWeight float64, count int) float64 {
	if index >= len(w.books) {
		return w.finish(totalWeight, count)
	}
	totalWeight, count = w.visit(index, totalWeight, count)
	return w.from(index+1, totalWeight, count)
}

func (w averageWalker) visit(index int, totalWeight float64, count int) (float64, int) {
	b := w.books[index]
	if !w.match(b) {
		return totalWeight, count
	}
	totalWeight += b.Weight
	count++
	w.trace(AverageStep{
		Position:      index + 1,
		Title:         b.Title,
		Weight:        b.Weight,
		RunningWeight: totalWeight,
		Count:         count,
	})
	return totalWeight, count
}

func (w averageWalker) finish(totalWeight float64, count int) float64 {
	if count == 0 {
		return 0
	}
	average := totalWeight / float64(count)
	w.trace(AverageStep{
		RunningWeight: totalWeight,
		Count:         count,
		Final:         true,
		Average:       average,
	})
	return average
}
