package algorithms

import (
	"strings"

	"library-catalog/models"

	"golang.org/x/text/cases"
)

// NotFound is returned by BinarySearch when the ISBN is absent.
const NotFound = -1

// SearchField selects the book attribute LinearSearch matches against.
type SearchField string

const (
	ByTitle  SearchField = "title"
	ByAuthor SearchField = "author"
)

// ParseSearchField maps user input to a SearchField, defaulting to ByTitle.
func ParseSearchField(s string) SearchField {
	if strings.EqualFold(strings.TrimSpace(s), string(ByAuthor)) {
		return ByAuthor
	}
	return ByTitle
}

// LinearSearch returns, in input order, the books whose field contains query
// ignoring case. It never returns nil.
func LinearSearch(books []*models.Book, query string, field SearchField) []*models.Book {
	results := []*models.Book{}
	fold := cases.Fold()
	needle := fold.String(query)

	for _, b := range books {
		var haystack string
		switch field {
		case ByTitle:
			haystack = b.Title
		case ByAuthor:
			haystack = b.Author
		default:
			continue
		}
		if strings.Contains(fold.String(haystack), needle) {
			results = append(results, b)
		}
	}
	return results
}

// BinarySearch returns the index of isbn in books, which must be sorted by
// ISBN ascending, or NotFound.
func BinarySearch(books []*models.Book, isbn string) int {
	lo, hi := 0, len(books)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch {
		case books[mid].ISBN == isbn:
			return mid
		case books[mid].ISBN < isbn:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return NotFound
}
