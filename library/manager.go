package library

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"library-catalog/algorithms"
	"library-catalog/datastruct"
	"library-catalog/models"
)

// LibraryManager owns the whole catalog state: the general inventory (load
// order), the ordered inventory (sorted by ISBN), the user and shelf
// registries, one loan stack per user and one reservation queue per ISBN.
//
// Every exported method runs under a single lock because the invariants span
// several of those collections at once.
type LibraryManager struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	generalInventory []*models.Book
	orderedInventory []*models.Book

	users   map[string]*models.User
	shelves map[string]*models.Shelf

	loanHistory  map[string]*datastruct.Stack[models.LoanRecord]
	reservations map[string]*datastruct.Queue[models.Reservation]
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithLogger routes manager logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(m *LibraryManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for loan and reservation timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *LibraryManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewLibraryManager returns an empty catalog.
func NewLibraryManager(opts ...Option) *LibraryManager {
	m := &LibraryManager{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	m.reset()
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *LibraryManager) reset() {
	m.generalInventory = []*models.Book{}
	m.orderedInventory = []*models.Book{}
	m.users = make(map[string]*models.User)
	m.shelves = make(map[string]*models.Shelf)
	m.loanHistory = make(map[string]*datastruct.Stack[models.LoanRecord])
	m.reservations = make(map[string]*datastruct.Queue[models.Reservation])
}

// ------------------ Books ------------------

// BookUpdate lists the book fields an update may change. Nil fields are left
// as they are. The ISBN is the key and cannot be changed.
type BookUpdate struct {
	Title  *string
	Author *string
	Weight *float64
	Value  *float64
	Stock  *int
}

// findBook looks isbn up in the ordered inventory. Callers hold m.mu.
func (m *LibraryManager) findBook(isbn string) *models.Book {
	if i := algorithms.BinarySearch(m.orderedInventory, isbn); i != algorithms.NotFound {
		return m.orderedInventory[i]
	}
	return nil
}

func (m *LibraryManager) resortOrdered() {
	m.orderedInventory = algorithms.InsertionSort(m.orderedInventory, algorithms.ByISBN)
}

// AddBook adds a copy of b to both inventories. The shelf reference is
// ignored; use AssignBookToShelf. A known ISBN yields ErrConflict.
func (m *LibraryManager) AddBook(b models.Book) error {
	if err := validateRecord(b); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findBook(b.ISBN) != nil {
		return conflict("book %s already exists", b.ISBN)
	}

	book := b
	book.ShelfID = nil
	m.generalInventory = append(m.generalInventory, &book)
	m.orderedInventory = append(m.orderedInventory, &book)
	m.resortOrdered()

	m.logger.Debug("book added", "isbn", book.ISBN, "title", book.Title, "stock", book.Stock)
	return nil
}

// GetBookByISBN finds a book with binary search over the ordered inventory.
func (m *LibraryManager) GetBookByISBN(isbn string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book := m.findBook(isbn)
	if book == nil {
		return nil, notFound("book %s does not exist", isbn)
	}
	return book, nil
}

// SearchBooks runs a linear search over the general inventory.
func (m *LibraryManager) SearchBooks(query string, field algorithms.SearchField) []*models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return algorithms.LinearSearch(m.generalInventory, query, field)
}

// ListBooks returns the general inventory in load order.
func (m *LibraryManager) ListBooks() []*models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.generalInventory)
}

// UpdateBook applies the non-nil fields of upd. Nothing changes if the
// result would be invalid.
func (m *LibraryManager) UpdateBook(isbn string, upd BookUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	book := m.findBook(isbn)
	if book == nil {
		return notFound("book %s does not exist", isbn)
	}

	next := *book
	if upd.Title != nil {
		next.Title = *upd.Title
	}
	if upd.Author != nil {
		next.Author = *upd.Author
	}
	if upd.Weight != nil {
		next.Weight = *upd.Weight
	}
	if upd.Value != nil {
		next.Value = *upd.Value
	}
	if upd.Stock != nil {
		next.Stock = *upd.Stock
	}
	if err := validateRecord(next); err != nil {
		return err
	}

	*book = next
	m.resortOrdered()

	m.logger.Debug("book updated", "isbn", isbn)
	return nil
}

// DeleteBook removes the book from both inventories and from its shelf.
// Pending reservations for it are dropped without notice.
func (m *LibraryManager) DeleteBook(isbn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := algorithms.BinarySearch(m.orderedInventory, isbn)
	if i == algorithms.NotFound {
		return notFound("book %s does not exist", isbn)
	}
	book := m.orderedInventory[i]

	m.orderedInventory = slices.Delete(m.orderedInventory, i, i+1)
	m.generalInventory = slices.DeleteFunc(m.generalInventory, func(b *models.Book) bool { return b == book })

	if book.ShelfID != nil {
		if shelf, ok := m.shelves[*book.ShelfID]; ok {
			shelf.Remove(book)
		}
	}

	if q, ok := m.reservations[isbn]; ok {
		m.logger.Debug("dropping reservations of deleted book", "isbn", isbn, "pending", q.Size())
		delete(m.reservations, isbn)
	}

	m.logger.Debug("book deleted", "isbn", isbn)
	return nil
}

// ------------------ Users ------------------

// UserUpdate lists the user fields an update may change.
type UserUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// AddUser registers a copy of u and gives it an empty loan history.
func (m *LibraryManager) AddUser(u models.User) error {
	if err := validateRecord(u); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return conflict("user %s already exists", u.ID)
	}
	user := u
	m.users[u.ID] = &user
	if _, ok := m.loanHistory[u.ID]; !ok {
		m.loanHistory[u.ID] = datastruct.NewStack[models.LoanRecord]()
	}

	m.logger.Debug("user added", "user_id", u.ID)
	return nil
}

func (m *LibraryManager) GetUser(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, notFound("user %s does not exist", id)
	}
	return user, nil
}

func (m *LibraryManager) UpdateUser(id string, upd UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return notFound("user %s does not exist", id)
	}

	next := *user
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Email != nil {
		next.Email = *upd.Email
	}
	if upd.Phone != nil {
		next.Phone = *upd.Phone
	}
	if err := validateRecord(next); err != nil {
		return err
	}
	*user = next
	return nil
}

// DeleteUser deregisters the user. The loan history is kept for audit and
// is still returned by GetUserLoanHistory.
func (m *LibraryManager) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return notFound("user %s does not exist", id)
	}
	delete(m.users, id)

	m.logger.Debug("user deleted", "user_id", id)
	return nil
}

// ListUsers returns the registered users ordered by id.
func (m *LibraryManager) ListUsers() []*models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return algorithms.InsertionSort(users, func(u *models.User) string { return u.ID })
}

// ------------------ Shelves ------------------

// AddShelf creates an empty shelf. A non-positive capacity means
// models.DefaultShelfCapacity.
func (m *LibraryManager) AddShelf(id string, capacity float64) error {
	shelf := models.NewShelf(id, capacity)
	if err := validateRecord(shelf); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shelves[id]; ok {
		return conflict("shelf %s already exists", id)
	}
	m.shelves[id] = shelf

	m.logger.Debug("shelf added", "shelf_id", id, "capacity", shelf.Capacity)
	return nil
}

func (m *LibraryManager) GetShelf(id string) (*models.Shelf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shelf, ok := m.shelves[id]
	if !ok {
		return nil, notFound("shelf %s does not exist", id)
	}
	return shelf, nil
}

// UpdateShelf changes the weight capacity. Books already on the shelf stay
// even if they no longer fit.
func (m *LibraryManager) UpdateShelf(id string, capacity float64) error {
	if capacity <= 0 {
		return &Error{Code: CodeValidation, Message: "invalid capacity must be greater than 0"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	shelf, ok := m.shelves[id]
	if !ok {
		return notFound("shelf %s does not exist", id)
	}
	shelf.Capacity = capacity
	return nil
}

// DeleteShelf removes the shelf and clears the shelf reference of every book
// that pointed at it.
func (m *LibraryManager) DeleteShelf(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shelves[id]; !ok {
		return notFound("shelf %s does not exist", id)
	}
	for _, b := range m.generalInventory {
		if b.ShelfID != nil && *b.ShelfID == id {
			b.ShelfID = nil
		}
	}
	delete(m.shelves, id)
	return nil
}

// ListShelves returns the shelves ordered by id.
func (m *LibraryManager) ListShelves() []*models.Shelf {
	m.mu.Lock()
	defer m.mu.Unlock()

	shelves := make([]*models.Shelf, 0, len(m.shelves))
	for _, s := range m.shelves {
		shelves = append(shelves, s)
	}
	return algorithms.InsertionSort(shelves, func(s *models.Shelf) string { return s.ID })
}

// AssignBookToShelf places the book on the shelf, moving it off any shelf it
// was on. It fails with ErrPrecondition when the book would overload the
// shelf, in which case the book stays where it was.
func (m *LibraryManager) AssignBookToShelf(shelfID, isbn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shelf, ok := m.shelves[shelfID]
	if !ok {
		return notFound("shelf %s does not exist", shelfID)
	}
	book := m.findBook(isbn)
	if book == nil {
		return notFound("book %s does not exist", isbn)
	}
	if book.ShelfID != nil && *book.ShelfID == shelfID {
		return conflict("book %s is already on shelf %s", isbn, shelfID)
	}
	if !shelf.CanAdd(book) {
		return precondition("book %s (%.2f kg) exceeds the remaining capacity of shelf %s", isbn, book.Weight, shelfID)
	}

	if book.ShelfID != nil {
		if old, ok := m.shelves[*book.ShelfID]; ok {
			old.Remove(book)
		}
	}
	shelf.Add(book)
	return nil
}

// RemoveBookFromShelf takes the book off the shelf.
func (m *LibraryManager) RemoveBookFromShelf(shelfID, isbn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shelf, ok := m.shelves[shelfID]
	if !ok {
		return notFound("shelf %s does not exist", shelfID)
	}
	book := m.findBook(isbn)
	if book == nil {
		return notFound("book %s does not exist", isbn)
	}
	if !shelf.Remove(book) {
		return notFound("book %s is not on shelf %s", isbn, shelfID)
	}
	return nil
}

// ------------------ Circulation ------------------

// LoanBook lends one copy to the user and records it on the user's loan
// history.
func (m *LibraryManager) LoanBook(userID, isbn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loanBook(userID, isbn)
}

func (m *LibraryManager) loanBook(userID, isbn string) error {
	if _, ok := m.users[userID]; !ok {
		return notFound("user %s does not exist", userID)
	}
	book := m.findBook(isbn)
	if book == nil {
		return notFound("book %s does not exist", isbn)
	}
	if book.Stock <= 0 {
		return precondition("book %s has no copies in stock", isbn)
	}

	book.Stock--

	history, ok := m.loanHistory[userID]
	if !ok {
		history = datastruct.NewStack[models.LoanRecord]()
		m.loanHistory[userID] = history
	}
	history.Push(models.LoanRecord{ISBN: isbn, Date: m.now(), Title: book.Title})

	m.logger.Debug("book loaned", "user_id", userID, "isbn", isbn, "stock", book.Stock)
	return nil
}

// ReturnBook puts a copy back in stock. If the book has a waitlist, the
// oldest reservation is taken off it and the copy is lent to that user
// before ReturnBook returns; assignedTo is that user's id.
//
// A user unknown to the loan history gets ErrNotFound. A reservation whose
// loan fails (for instance because the user was deleted) is still consumed
// and the copy stays in stock.
func (m *LibraryManager) ReturnBook(userID, isbn string) (assignedTo string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loanHistory[userID]; !ok {
		return "", notFound("user %s has no loan history", userID)
	}
	book := m.findBook(isbn)
	if book == nil {
		return "", notFound("book %s does not exist", isbn)
	}

	book.Stock++
	m.logger.Debug("book returned", "user_id", userID, "isbn", isbn, "stock", book.Stock)

	queue, ok := m.reservations[isbn]
	if !ok || queue.IsEmpty() {
		return "", nil
	}

	next, err := queue.Dequeue()
	if err != nil {
		return "", err
	}
	if err := m.loanBook(next.UserID, isbn); err != nil {
		m.logger.Warn("reservation could not be fulfilled", "isbn", isbn, "user_id", next.UserID, "error", err)
		return "", nil
	}

	m.logger.Info("reservation fulfilled on return", "isbn", isbn, "user_id", next.UserID, "waiting", queue.Size())
	return next.UserID, nil
}

// GetUserLoanHistory returns the user's loans oldest first. The most recent
// loan is the last element.
func (m *LibraryManager) GetUserLoanHistory(userID string) []models.LoanRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.loanHistory[userID]
	if !ok {
		return []models.LoanRecord{}
	}
	return history.ToSlice()
}

// LatestLoan returns the top of the user's loan history.
func (m *LibraryManager) LatestLoan(userID string) (models.LoanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.loanHistory[userID]
	if !ok || history.IsEmpty() {
		return models.LoanRecord{}, notFound("user %s has no loans", userID)
	}
	return history.Peek()
}

// ClearLoanHistory empties the user's loan history.
func (m *LibraryManager) ClearLoanHistory(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.loanHistory[userID]
	if !ok {
		return notFound("user %s has no loan history", userID)
	}
	history.Clear()
	return nil
}

// ReserveBook adds the user to the book's waitlist. Only books with no
// copies in stock can be reserved.
func (m *LibraryManager) ReserveBook(userID, isbn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return notFound("user %s does not exist", userID)
	}
	book := m.findBook(isbn)
	if book == nil {
		return notFound("book %s does not exist", isbn)
	}
	if book.Stock != 0 {
		return precondition("book %s still has %d copies in stock", isbn, book.Stock)
	}

	queue, ok := m.reservations[isbn]
	if !ok {
		queue = datastruct.NewQueue[models.Reservation]()
		m.reservations[isbn] = queue
	}
	queue.Enqueue(models.Reservation{UserID: userID, ISBN: isbn, Date: m.now()})

	m.logger.Debug("book reserved", "user_id", userID, "isbn", isbn, "position", queue.Size())
	return nil
}

// GetReservations returns the book's waitlist, next in line first.
func (m *LibraryManager) GetReservations(isbn string) []models.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.reservations[isbn]
	if !ok {
		return []models.Reservation{}
	}
	return queue.ToSlice()
}

// ------------------ Shelf planning ------------------

// RiskyShelfCombinations lists every four-book group of the general
// inventory heavier than threshold kilograms.
func (m *LibraryManager) RiskyShelfCombinations(threshold float64) [][4]*models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return algorithms.FindRiskyCombinations(m.generalInventory, threshold)
}

// OptimalShelfAssignment finds the most valuable set of books that fits in
// capacity kilograms.
func (m *LibraryManager) OptimalShelfAssignment(capacity float64) algorithms.ShelfSelection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return algorithms.FindOptimalShelf(m.generalInventory, capacity)
}

// ------------------ Author statistics ------------------

// AuthorTotalValue sums the value of the author's titles.
func (m *LibraryManager) AuthorTotalValue(author string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return algorithms.AuthorTotalValue(m.generalInventory, author)
}

// AuthorAverageWeight averages the weight of the author's titles, logging
// each step of the computation at info level.
func (m *LibraryManager) AuthorAverageWeight(author string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return algorithms.AuthorAverageWeight(m.generalInventory, author, func(s algorithms.AverageStep) {
		if s.Final {
			m.logger.Info("average weight computed",
				"author", author,
				"total_weight_kg", s.RunningWeight,
				"count", s.Count,
				"average_kg", s.Average)
			return
		}
		m.logger.Info("average weight step",
			"author", author,
			"position", s.Position,
			"title", s.Title,
			"weight_kg", s.Weight,
			"running_weight_kg", s.RunningWeight,
			"count", s.Count)
	})
}
