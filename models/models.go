// Package models holds the catalog records shared by the algorithms and the
// library manager.
package models

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// timestampLayouts are tried in order by ParseTimestamp. The second accepts
// ISO-8601 timestamps without a zone, read as local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp reads an RFC 3339 timestamp or a zone-less ISO-8601 one.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// DefaultShelfCapacity is the weight in kilograms a shelf holds unless told otherwise.
const DefaultShelfCapacity = 8.0

// Book represents a catalog title and the number of copies on hand.
// The same *Book is referenced by the general and the ordered inventory, so
// updates through either are visible in both.
type Book struct {
	ISBN    string  `json:"isbn" db:"isbn" validate:"required"`
	Title   string  `json:"title" db:"title" validate:"required"`
	Author  string  `json:"author" db:"author"`
	Weight  float64 `json:"weight" db:"weight" validate:"gte=0"`
	Value   float64 `json:"value" db:"value" validate:"gte=0"`
	Stock   int     `json:"stock" db:"stock" validate:"gte=0"`
	ShelfID *string `json:"shelf_id" db:"shelf_id"`
}

func (b *Book) String() string {
	return fmt.Sprintf("%s | %s | %s | %.2f kg | $%.0f | stock %d", b.ISBN, b.Title, b.Author, b.Weight, b.Value, b.Stock)
}

// User represents a registered library member.
type User struct {
	ID    string `json:"user_id" db:"user_id" validate:"required"`
	Name  string `json:"name" db:"name" validate:"required"`
	Email string `json:"email" db:"email" validate:"omitempty,email"`
	Phone string `json:"phone" db:"phone"`
}

// Shelf is a physical shelf with a weight limit. It owns the list of books
// assigned to it; each of those books carries the shelf id back.
type Shelf struct {
	ID       string  `json:"shelf_id" validate:"required"`
	Capacity float64 `json:"capacity" validate:"gt=0"`
	Books    []*Book `json:"-"`
}

// NewShelf returns an empty shelf. A non-positive capacity falls back to
// DefaultShelfCapacity.
func NewShelf(id string, capacity float64) *Shelf {
	if capacity <= 0 {
		capacity = DefaultShelfCapacity
	}
	return &Shelf{ID: id, Capacity: capacity}
}

func (s *Shelf) TotalWeight() float64 {
	var total float64
	for _, b := range s.Books {
		total += b.Weight
	}
	return total
}

func (s *Shelf) TotalValue() float64 {
	var total float64
	for _, b := range s.Books {
		total += b.Value
	}
	return total
}

// CanAdd reports whether b fits without exceeding the capacity.
func (s *Shelf) CanAdd(b *Book) bool {
	return s.TotalWeight()+b.Weight <= s.Capacity
}

// Add places b on the shelf when it fits and points b back at the shelf.
func (s *Shelf) Add(b *Book) bool {
	if !s.CanAdd(b) {
		return false
	}
	s.Books = append(s.Books, b)
	id := s.ID
	b.ShelfID = &id
	return true
}

// Remove takes b off the shelf and clears its shelf reference.
func (s *Shelf) Remove(b *Book) bool {
	for i, cur := range s.Books {
		if cur == b {
			s.Books = append(s.Books[:i], s.Books[i+1:]...)
			b.ShelfID = nil
			return true
		}
	}
	return false
}

// ISBNs lists the ISBNs of the books on the shelf in placement order.
func (s *Shelf) ISBNs() []string {
	isbns := make([]string, 0, len(s.Books))
	for _, b := range s.Books {
		isbns = append(isbns, b.ISBN)
	}
	return isbns
}

// LoanRecord is pushed onto a user's loan history every time a copy is lent.
type LoanRecord struct {
	ISBN  string    `json:"isbn"`
	Date  time.Time `json:"date"`
	Title string    `json:"title"`
}

func (r *LoanRecord) UnmarshalJSON(data []byte) error {
	var doc struct {
		ISBN  string `json:"isbn"`
		Date  string `json:"date"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	date, err := ParseTimestamp(doc.Date)
	if err != nil {
		return fmt.Errorf("loan %s: date: %w", doc.ISBN, err)
	}
	*r = LoanRecord{ISBN: doc.ISBN, Date: date, Title: doc.Title}
	return nil
}

// Reservation is a place in a book's waitlist.
type Reservation struct {
	UserID string    `json:"user_id"`
	ISBN   string    `json:"isbn"`
	Date   time.Time `json:"date"`
}

func (r *Reservation) UnmarshalJSON(data []byte) error {
	var doc struct {
		UserID string `json:"user_id"`
		ISBN   string `json:"isbn"`
		Date   string `json:"date"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	date, err := ParseTimestamp(doc.Date)
	if err != nil {
		return fmt.Errorf("reservation %s: date: %w", doc.ISBN, err)
	}
	*r = Reservation{UserID: doc.UserID, ISBN: doc.ISBN, Date: date}
	return nil
}
