package library

import (
	"slices"

	"library-catalog/algorithms"
	"library-catalog/datastruct"
	"library-catalog/models"
)

// ShelfRecord is the persisted form of a shelf.
type ShelfRecord struct {
	ID       string   `json:"shelf_id"`
	Capacity float64  `json:"capacity"`
	Books    []string `json:"books"`
}

// Snapshot is a detached copy of the whole catalog, the unit every storage
// backend saves and loads.
type Snapshot struct {
	Books        []models.Book
	Users        []models.User
	Shelves      []ShelfRecord
	LoanHistory  map[string][]models.LoanRecord
	Reservations map[string][]models.Reservation
}

// Snapshot copies the current state. Books keep general inventory order,
// users and shelves are ordered by id.
func (m *LibraryManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Books:        make([]models.Book, 0, len(m.generalInventory)),
		Users:        make([]models.User, 0, len(m.users)),
		Shelves:      make([]ShelfRecord, 0, len(m.shelves)),
		LoanHistory:  make(map[string][]models.LoanRecord, len(m.loanHistory)),
		Reservations: make(map[string][]models.Reservation, len(m.reservations)),
	}

	for _, b := range m.generalInventory {
		book := *b
		if b.ShelfID != nil {
			id := *b.ShelfID
			book.ShelfID = &id
		}
		s.Books = append(s.Books, book)
	}

	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	for _, u := range algorithms.MergeSort(users, func(u *models.User) string { return u.ID }) {
		s.Users = append(s.Users, *u)
	}

	shelves := make([]*models.Shelf, 0, len(m.shelves))
	for _, sh := range m.shelves {
		shelves = append(shelves, sh)
	}
	for _, sh := range algorithms.MergeSort(shelves, func(sh *models.Shelf) string { return sh.ID }) {
		s.Shelves = append(s.Shelves, ShelfRecord{ID: sh.ID, Capacity: sh.Capacity, Books: sh.ISBNs()})
	}

	for userID, stack := range m.loanHistory {
		s.LoanHistory[userID] = stack.ToSlice()
	}
	for isbn, queue := range m.reservations {
		s.Reservations[isbn] = queue.ToSlice()
	}
	return s
}

// Restore replaces the whole catalog with s. The snapshot is checked and
// built aside first; on error the current state is left untouched.
//
// Shelf membership follows each book's shelf id; a shelf id naming an
// unknown shelf is cleared.
func (m *LibraryManager) Restore(s Snapshot) error {
	next := NewLibraryManager()

	for i := range s.Books {
		b := s.Books[i]
		if err := validateRecord(b); err != nil {
			return malformed(err, "book %d", i+1)
		}
		if next.findBook(b.ISBN) != nil {
			return conflict("book %s appears more than once", b.ISBN)
		}
		if b.ShelfID != nil {
			id := *b.ShelfID
			b.ShelfID = &id
		}
		next.generalInventory = append(next.generalInventory, &b)
		next.orderedInventory = append(next.orderedInventory, &b)
		next.resortOrdered()
	}

	for i := range s.Users {
		u := s.Users[i]
		if err := validateRecord(u); err != nil {
			return malformed(err, "user %d", i+1)
		}
		if _, ok := next.users[u.ID]; ok {
			return conflict("user %s appears more than once", u.ID)
		}
		next.users[u.ID] = &u
	}

	for _, rec := range s.Shelves {
		shelf := models.NewShelf(rec.ID, rec.Capacity)
		if err := validateRecord(shelf); err != nil {
			return malformed(err, "shelf %q", rec.ID)
		}
		if _, ok := next.shelves[rec.ID]; ok {
			return conflict("shelf %s appears more than once", rec.ID)
		}
		next.shelves[rec.ID] = shelf
	}
	for _, b := range next.generalInventory {
		if b.ShelfID == nil {
			continue
		}
		shelf, ok := next.shelves[*b.ShelfID]
		if !ok {
			b.ShelfID = nil
			continue
		}
		shelf.Books = append(shelf.Books, b)
	}

	for userID, loans := range s.LoanHistory {
		next.loanHistory[userID] = datastruct.NewStack(slices.Clone(loans)...)
	}
	for userID := range next.users {
		if _, ok := next.loanHistory[userID]; !ok {
			next.loanHistory[userID] = datastruct.NewStack[models.LoanRecord]()
		}
	}
	for isbn, waitlist := range s.Reservations {
		next.reservations[isbn] = datastruct.NewQueue(slices.Clone(waitlist)...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.generalInventory = next.generalInventory
	m.orderedInventory = next.orderedInventory
	m.users = next.users
	m.shelves = next.shelves
	m.loanHistory = next.loanHistory
	m.reservations = next.reservations

	m.logger.Debug("catalog restored",
		"books", len(m.generalInventory),
		"users", len(m.users),
		"shelves", len(m.shelves))
	return nil
}

// importBooks appends books to both inventories, all or nothing. Duplicate
// ISBNs, within books or against the catalog, abort the import.
func (m *LibraryManager) importBooks(books []models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(books))
	for i, b := range books {
		if err := validateRecord(b); err != nil {
			return malformed(err, "book %d", i+1)
		}
		if seen[b.ISBN] || m.findBook(b.ISBN) != nil {
			return conflict("book %s already exists", b.ISBN)
		}
		seen[b.ISBN] = true
	}

	for i := range books {
		book := books[i]
		book.ShelfID = nil
		m.generalInventory = append(m.generalInventory, &book)
		m.orderedInventory = append(m.orderedInventory, &book)
	}
	m.resortOrdered()
	return nil
}
