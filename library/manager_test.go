package library

import (
	"testing"
	"time"

	"library-catalog/algorithms"
	"library-catalog/datastruct"
	"library-catalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	return NewLibraryManager(WithClock(func() time.Time { return fixedNow }))
}

func book(isbn, title, author string, weight, value float64, stock int) models.Book {
	return models.Book{ISBN: isbn, Title: title, Author: author, Weight: weight, Value: value, Stock: stock}
}

func seedBooks(t *testing.T, mgr *LibraryManager, books ...models.Book) {
	t.Helper()
	for _, b := range books {
		require.NoError(t, mgr.AddBook(b), "add %s", b.ISBN)
	}
}

func seedUsers(t *testing.T, mgr *LibraryManager, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, mgr.AddUser(models.User{ID: id, Name: "User " + id}), "add user %s", id)
	}
}

// assertMirrored checks both inventories hold the same pointers and the
// ordered one is sorted by ISBN.
func assertMirrored(t *testing.T, mgr *LibraryManager) {
	t.Helper()
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	require.Len(t, mgr.orderedInventory, len(mgr.generalInventory))
	for _, b := range mgr.generalInventory {
		assert.Contains(t, mgr.orderedInventory, b)
	}
	for i := 1; i < len(mgr.orderedInventory); i++ {
		assert.LessOrEqual(t, mgr.orderedInventory[i-1].ISBN, mgr.orderedInventory[i].ISBN)
	}
}

func TestAddBook_Duplicate(t *testing.T) {
	mgr := newManager(t)

	require.NoError(t, mgr.AddBook(book("ISBN-1", "Dune", "Herbert", 1.0, 1000, 1)))

	got, err := mgr.GetBookByISBN("ISBN-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	err = mgr.AddBook(book("ISBN-1", "Other", "Someone", 1.0, 1, 1))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, mgr.ListBooks(), 1)
}

func TestAddBook_Validation(t *testing.T) {
	tests := []struct {
		name  string
		book  models.Book
		field string
	}{
		{"missing isbn", book("", "T", "A", 1, 1, 1), "isbn"},
		{"missing title", book("X", "", "A", 1, 1, 1), "title"},
		{"negative weight", book("X", "T", "A", -1, 1, 1), "weight"},
		{"negative value", book("X", "T", "A", 1, -1, 1), "value"},
		{"negative stock", book("X", "T", "A", 1, 1, -1), "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newManager(t)
			err := mgr.AddBook(tt.book)
			require.ErrorIs(t, err, ErrValidation)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Contains(t, e.Details, tt.field)
			assert.Empty(t, mgr.ListBooks())
		})
	}
}

func TestAddBook_IgnoresShelfReference(t *testing.T) {
	mgr := newManager(t)
	shelf := "S1"
	b := book("A", "T", "X", 1, 1, 1)
	b.ShelfID = &shelf

	require.NoError(t, mgr.AddBook(b))
	got, err := mgr.GetBookByISBN("A")
	require.NoError(t, err)
	assert.Nil(t, got.ShelfID)
}

func TestInventoriesStayMirrored(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr,
		book("978-3", "C", "X", 1, 1, 1),
		book("978-1", "A", "X", 1, 1, 1),
		book("978-5", "E", "X", 1, 1, 1),
		book("978-2", "B", "X", 1, 1, 1),
	)
	assertMirrored(t, mgr)

	listed := mgr.ListBooks()
	assert.Equal(t, []string{"978-3", "978-1", "978-5", "978-2"}, isbnsOf(listed))

	require.NoError(t, mgr.DeleteBook("978-1"))
	assertMirrored(t, mgr)
	assert.Equal(t, []string{"978-3", "978-5", "978-2"}, isbnsOf(mgr.ListBooks()))

	title := "Renamed"
	require.NoError(t, mgr.UpdateBook("978-5", BookUpdate{Title: &title}))
	assertMirrored(t, mgr)

	general, err := mgr.GetBookByISBN("978-5")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", general.Title)
	assert.Same(t, general, mgr.ListBooks()[1])
}

func TestUpdateBook(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr, book("A", "Old", "X", 1, 10, 1))

	weight, stock := 2.5, 4
	require.NoError(t, mgr.UpdateBook("A", BookUpdate{Weight: &weight, Stock: &stock}))

	got, err := mgr.GetBookByISBN("A")
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Title)
	assert.Equal(t, 2.5, got.Weight)
	assert.Equal(t, 4, got.Stock)
	assert.Equal(t, 10.0, got.Value)

	t.Run("invalid result leaves book untouched", func(t *testing.T) {
		negative := -1
		err := mgr.UpdateBook("A", BookUpdate{Stock: &negative})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 4, got.Stock)
	})

	t.Run("unknown isbn", func(t *testing.T) {
		err := mgr.UpdateBook("missing", BookUpdate{Weight: &weight})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteBook_DropsReservationsAndShelf(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr, book("A", "T", "X", 1, 1, 0))
	seedUsers(t, mgr, "U1")
	require.NoError(t, mgr.AddShelf("S1", 5))
	require.NoError(t, mgr.AssignBookToShelf("S1", "A"))
	require.NoError(t, mgr.ReserveBook("U1", "A"))

	require.NoError(t, mgr.DeleteBook("A"))

	_, err := mgr.GetBookByISBN("A")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, mgr.GetReservations("A"))

	shelf, err := mgr.GetShelf("S1")
	require.NoError(t, err)
	assert.Empty(t, shelf.Books)

	assert.ErrorIs(t, mgr.DeleteBook("A"), ErrNotFound)
}

func TestSearchBooks(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr,
		book("1", "Animal Farm", "George Orwell", 0.4, 10, 1),
		book("2", "Nineteen Eighty-Four", "George Orwell", 0.6, 15, 1),
		book("3", "Brave New World", "Aldous Huxley", 0.5, 12, 1),
	)

	assert.Equal(t, []string{"1", "2"}, isbnsOf(mgr.SearchBooks("orwell", algorithms.ByAuthor)))
	assert.Equal(t, []string{"3"}, isbnsOf(mgr.SearchBooks("NEW", algorithms.ByTitle)))

	none := mgr.SearchBooks("tolkien", algorithms.ByAuthor)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUsers(t *testing.T) {
	mgr := newManager(t)
	seedUsers(t, mgr, "U2", "U1")

	assert.ErrorIs(t, mgr.AddUser(models.User{ID: "U1", Name: "Again"}), ErrConflict)
	assert.ErrorIs(t, mgr.AddUser(models.User{ID: "U3"}), ErrValidation)
	assert.ErrorIs(t, mgr.AddUser(models.User{ID: "U3", Name: "N", Email: "nope"}), ErrValidation)

	users := mgr.ListUsers()
	require.Len(t, users, 2)
	assert.Equal(t, "U1", users[0].ID)
	assert.Equal(t, "U2", users[1].ID)

	email := "u1@example.com"
	require.NoError(t, mgr.UpdateUser("U1", UserUpdate{Email: &email}))
	u, err := mgr.GetUser("U1")
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)

	bad := "not-an-email"
	assert.ErrorIs(t, mgr.UpdateUser("U1", UserUpdate{Email: &bad}), ErrValidation)
	assert.Equal(t, email, u.Email)

	assert.ErrorIs(t, mgr.UpdateUser("U9", UserUpdate{Email: &email}), ErrNotFound)
}

func TestDeleteUser_KeepsLoanHistory(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr, book("A", "Title A", "X", 1, 1, 2))
	seedUsers(t, mgr, "U1")
	require.NoError(t, mgr.LoanBook("U1", "A"))

	require.NoError(t, mgr.DeleteUser("U1"))
	_, err := mgr.GetUser("U1")
	assert.ErrorIs(t, err, ErrNotFound)

	history := mgr.GetUserLoanHistory("U1")
	require.Len(t, history, 1)
	assert.Equal(t, "A", history[0].ISBN)

	assert.ErrorIs(t, mgr.DeleteUser("U1"), ErrNotFound)
}

func TestShelves(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr,
		book("A", "T", "X", 3, 10, 1),
		book("B", "T", "X", 4, 10, 1),
		book("C", "T", "X", 2, 10, 1),
	)

	require.NoError(t, mgr.AddShelf("S1", 0))
	require.NoError(t, mgr.AddShelf("S2", 2))
	assert.ErrorIs(t, mgr.AddShelf("S1", 5), ErrConflict)

	s1, err := mgr.GetShelf("S1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultShelfCapacity, s1.Capacity)

	require.NoError(t, mgr.AssignBookToShelf("S1", "A"))
	require.NoError(t, mgr.AssignBookToShelf("S1", "B"))
	assert.Equal(t, 7.0, s1.TotalWeight())
	assert.Equal(t, 20.0, s1.TotalValue())

	t.Run("over capacity", func(t *testing.T) {
		err := mgr.AssignBookToShelf("S1", "C")
		assert.ErrorIs(t, err, ErrPrecondition)
		c, _ := mgr.GetBookByISBN("C")
		assert.Nil(t, c.ShelfID)
	})

	t.Run("already there", func(t *testing.T) {
		assert.ErrorIs(t, mgr.AssignBookToShelf("S1", "A"), ErrConflict)
	})

	require.NoError(t, mgr.AssignBookToShelf("S2", "C"))
	assert.Equal(t, []string{"S1", "S2"}, []string{mgr.ListShelves()[0].ID, mgr.ListShelves()[1].ID})
}

func TestShelves_Move(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr, book("A", "T", "X", 2, 10, 1))
	require.NoError(t, mgr.AddShelf("S1", 5))
	require.NoError(t, mgr.AddShelf("S2", 5))

	require.NoError(t, mgr.AssignBookToShelf("S1", "A"))
	require.NoError(t, mgr.AssignBookToShelf("S2", "A"))

	s1, _ := mgr.GetShelf("S1")
	s2, _ := mgr.GetShelf("S2")
	assert.Empty(t, s1.Books)
	assert.Equal(t, []string{"A"}, s2.ISBNs())

	a, _ := mgr.GetBookByISBN("A")
	require.NotNil(t, a.ShelfID)
	assert.Equal(t, "S2", *a.ShelfID)

	require.NoError(t, mgr.RemoveBookFromShelf("S2", "A"))
	assert.Nil(t, a.ShelfID)
	assert.ErrorIs(t, mgr.RemoveBookFromShelf("S2", "A"), ErrNotFound)
}

func TestShelves_UpdateAndDelete(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr, book("A", "T", "X", 2, 10, 1))
	require.NoError(t, mgr.AddShelf("S1", 5))
	require.NoError(t, mgr.AssignBookToShelf("S1", "A"))

	assert.ErrorIs(t, mgr.UpdateShelf("S1", 0), ErrValidation)
	require.NoError(t, mgr.UpdateShelf("S1", 1))
	s1, _ := mgr.GetShelf("S1")
	assert.Equal(t, 1.0, s1.Capacity)
	assert.Len(t, s1.Books, 1)

	require.NoError(t, mgr.DeleteShelf("S1"))
	a, _ := mgr.GetBookByISBN("A")
	assert.Nil(t, a.ShelfID)
	assert.Empty(t, mgr.ListShelves())
	assert.ErrorIs(t, mgr.DeleteShelf("S1"), ErrNotFound)
}

func TestLoanReserveReturn_AutoFulfilment(t *testing.T) {
	mgr := newManager(t)
	seedUsers(t, mgr, "U1", "U2")
	seedBooks(t, mgr, book("B1", "Dune", "Herbert", 1, 10, 1))

	require.NoError(t, mgr.LoanBook("U1", "B1"))
	b1, _ := mgr.GetBookByISBN("B1")
	assert.Equal(t, 0, b1.Stock)

	assert.ErrorIs(t, mgr.LoanBook("U2", "B1"), ErrPrecondition)
	require.NoError(t, mgr.ReserveBook("U2", "B1"))

	assignedTo, err := mgr.ReturnBook("U1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "U2", assignedTo)

	history := mgr.GetUserLoanHistory("U2")
	require.Len(t, history, 1)
	assert.Equal(t, models.LoanRecord{ISBN: "B1", Date: fixedNow, Title: "Dune"}, history[0])
	assert.Empty(t, mgr.GetReservations("B1"))
	assert.Equal(t, 0, b1.Stock)
}

func TestReturnBook_NoWaitlist(t *testing.T) {
	mgr := newManager(t)
	seedUsers(t, mgr, "U1")
	seedBooks(t, mgr, book("B1", "Dune", "Herbert", 1, 10, 1))
	require.NoError(t, mgr.LoanBook("U1", "B1"))

	assignedTo, err := mgr.ReturnBook("U1", "B1")
	require.NoError(t, err)
	assert.Empty(t, assignedTo)

	b1, _ := mgr.GetBookByISBN("B1")
	assert.Equal(t, 1, b1.Stock)

	_, err = mgr.ReturnBook("nobody", "B1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = mgr.ReturnBook("U1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturnBook_FailedAutoLoanConsumesReservation(t *testing.T) {
	mgr := newManager(t)
	seedUsers(t, mgr, "U1", "U2", "U3")
	seedBooks(t, mgr, book("B1", "Dune", "Herbert", 1, 10, 1))
	require.NoError(t, mgr.LoanBook("U1", "B1"))
	require.NoError(t, mgr.ReserveBook("U2", "B1"))
	require.NoError(t, mgr.ReserveBook("U3", "B1"))
	require.NoError(t, mgr.DeleteUser("U2"))

	assignedTo, err := mgr.ReturnBook("U1", "B1")
	require.NoError(t, err)
	assert.Empty(t, assignedTo)

	b1, _ := mgr.GetBookByISBN("B1")
	assert.Equal(t, 1, b1.Stock)

	waitlist := mgr.GetReservations("B1")
	require.Len(t, waitlist, 1)
	assert.Equal(t, "U3", waitlist[0].UserID)
}

func TestReserveBook(t *testing.T) {
	mgr := newManager(t)
	seedUsers(t, mgr, "U1", "U2")
	seedBooks(t, mgr,
		book("IN", "In stock", "X", 1, 1, 2),
		book("OUT", "Out of stock", "X", 1, 1, 0),
	)

	assert.ErrorIs(t, mgr.ReserveBook("U1", "IN"), ErrPrecondition)
	assert.ErrorIs(t, mgr.ReserveBook("U9", "OUT"), ErrNotFound)
	assert.ErrorIs(t, mgr.ReserveBook("U1", "NONE"), ErrNotFound)

	require.NoError(t, mgr.ReserveBook("U2", "OUT"))
	require.NoError(t, mgr.ReserveBook("U1", "OUT"))

	waitlist := mgr.GetReservations("OUT")
	require.Len(t, waitlist, 2)
	assert.Equal(t, "U2", waitlist[0].UserID)
	assert.Equal(t, "U1", waitlist[1].UserID)
	assert.Equal(t, fixedNow, waitlist[0].Date)
}

func TestLoanHistory(t *testing.T) {
	mgr := newManager(t)
	seedUsers(t, mgr, "U1")
	seedBooks(t, mgr,
		book("A", "First", "X", 1, 1, 1),
		book("B", "Second", "X", 1, 1, 1),
	)

	_, err := mgr.LatestLoan("U1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, mgr.GetUserLoanHistory("U1"))

	require.NoError(t, mgr.LoanBook("U1", "A"))
	require.NoError(t, mgr.LoanBook("U1", "B"))

	assert.Equal(t, []string{"A", "B"}, loanISBNs(mgr.GetUserLoanHistory("U1")))
	latest, err := mgr.LatestLoan("U1")
	require.NoError(t, err)
	assert.Equal(t, "Second", latest.Title)

	require.NoError(t, mgr.ClearLoanHistory("U1"))
	assert.Empty(t, mgr.GetUserLoanHistory("U1"))
	assert.ErrorIs(t, mgr.ClearLoanHistory("U9"), ErrNotFound)

	assert.ErrorIs(t, mgr.LoanBook("U9", "A"), ErrNotFound)
	assert.ErrorIs(t, mgr.LoanBook("U1", "Z"), ErrNotFound)
}

func TestShelfPlanning(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr,
		book("A", "T", "X", 2, 10, 1),
		book("B", "T", "X", 3, 40, 1),
		book("C", "T", "X", 4, 30, 1),
		book("D", "T", "X", 5, 50, 1),
		book("E", "T", "X", 1, 5, 1),
	)

	risky := mgr.RiskyShelfCombinations(13)
	for _, combo := range risky {
		var w float64
		for _, b := range combo {
			w += b.Weight
		}
		assert.Greater(t, w, 13.0)
	}
	require.Len(t, risky, 1)
	assert.Equal(t, []string{"A", "B", "C", "D"}, isbnsOf(risky[0][:]))

	sel := mgr.OptimalShelfAssignment(8)
	assert.LessOrEqual(t, sel.TotalWeight, 8.0)
	assert.Equal(t, 90.0, sel.TotalValue)
}

func TestAuthorStatistics(t *testing.T) {
	mgr := newManager(t)
	seedBooks(t, mgr,
		book("1", "Animal Farm", "George Orwell", 0.4, 10, 1),
		book("2", "Brave New World", "Aldous Huxley", 0.5, 12, 1),
		book("3", "Nineteen Eighty-Four", "George Orwell", 0.6, 15, 1),
	)

	assert.Equal(t, 25.0, mgr.AuthorTotalValue("george orwell"))
	assert.InDelta(t, 0.5, mgr.AuthorAverageWeight("GEORGE ORWELL"), 1e-9)
	assert.Equal(t, 0.0, mgr.AuthorAverageWeight("Orwell"))
	assert.Equal(t, 0.0, mgr.AuthorTotalValue("Tolkien"))
}

func TestNewLibraryManager_Empty(t *testing.T) {
	mgr := NewLibraryManager(WithLogger(nil), WithClock(nil))

	assert.Empty(t, mgr.ListBooks())
	assert.Empty(t, mgr.ListUsers())
	assert.Empty(t, mgr.ListShelves())
	assert.NotNil(t, mgr.logger)
	assert.NotNil(t, mgr.now)

	_, err := mgr.GetBookByISBN("x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, datastruct.ErrEmpty)
}

func isbnsOf(books []*models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ISBN)
	}
	return out
}

func loanISBNs(records []models.LoanRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ISBN)
	}
	return out
}
