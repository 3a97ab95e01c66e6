package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"library-catalog/algorithms"
	"library-catalog/library"
	"library-catalog/models"
)

const shellHelp = `Available commands:
  Books:        add book, list books, search book, update book, delete book, import
  Users:        add user, list users, update user, delete user
  Shelves:      add shelf, list shelves, update shelf, delete shelf, assign shelf, unassign shelf
  Circulation:  loan, return, reserve, history, latest loan, clear history, reservations
  Planning:     risky, optimal, author value, author weight
  System:       report, save, load, help, exit`

// shell is the line-oriented front end. Prompts are printed only when the
// input is a terminal so scripted input produces clean output.
type shell struct {
	app         *app
	sc          *bufio.Scanner
	out         io.Writer
	interactive bool
}

func newShell(a *app, in io.Reader, out io.Writer, interactive bool) *shell {
	return &shell{app: a, sc: bufio.NewScanner(in), out: out, interactive: interactive}
}

func (s *shell) run() error {
	mgr := s.app.mgr

	if s.interactive {
		fmt.Fprintln(s.out, "Welcome to the Library Catalog!")
		fmt.Fprintln(s.out, shellHelp)
	}

	for {
		if s.interactive {
			fmt.Fprint(s.out, "\n> ")
		}
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(s.sc.Text()))

		switch cmd {
		case "":
		case "add book":
			s.handleAddBook(mgr)
		case "list books":
			printBooks(s.out, mgr.ListBooks())
		case "search book":
			s.handleSearchBooks(mgr)
		case "update book":
			s.handleUpdateBook(mgr)
		case "delete book":
			s.handleDeleteBook(mgr)
		case "import":
			s.handleImport(mgr)
		case "add user":
			s.handleAddUser(mgr)
		case "list users":
			printUsers(s.out, mgr.ListUsers())
		case "update user":
			s.handleUpdateUser(mgr)
		case "delete user":
			s.handleDeleteUser(mgr)
		case "add shelf":
			s.handleAddShelf(mgr)
		case "list shelves":
			printShelves(s.out, mgr.ListShelves())
		case "update shelf":
			s.handleUpdateShelf(mgr)
		case "delete shelf":
			s.handleDeleteShelf(mgr)
		case "assign shelf":
			s.handleAssignShelf(mgr)
		case "unassign shelf":
			s.handleUnassignShelf(mgr)
		case "loan":
			s.handleLoan(mgr)
		case "return":
			s.handleReturn(mgr)
		case "reserve":
			s.handleReserve(mgr)
		case "history":
			s.handleHistory(mgr)
		case "latest loan":
			s.handleLatestLoan(mgr)
		case "clear history":
			s.handleClearHistory(mgr)
		case "reservations":
			s.handleReservations(mgr)
		case "risky":
			s.handleRisky(mgr)
		case "optimal":
			s.handleOptimal(mgr)
		case "author value":
			s.handleAuthorValue(mgr)
		case "author weight":
			s.handleAuthorWeight(mgr)
		case "report":
			s.handleReport(mgr)
		case "save":
			s.handleSave()
		case "load":
			s.handleLoad(mgr)
		case "help":
			fmt.Fprintln(s.out, shellHelp)
		case "exit", "quit":
			if s.confirm("Save changes before exiting? (y/n)") {
				s.handleSave()
			}
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

// ------------------ Input helpers ------------------

func (s *shell) ask(label string) (string, bool) {
	if s.interactive {
		fmt.Fprint(s.out, label+": ")
	}
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) askFloat(label string) (float64, bool) {
	raw, ok := s.ask(label)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.fail(fmt.Errorf("%s: %q is not a number", strings.ToLower(label), raw))
		return 0, false
	}
	return v, true
}

func (s *shell) askInt(label string) (int, bool) {
	raw, ok := s.ask(label)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.fail(fmt.Errorf("%s: %q is not a whole number", strings.ToLower(label), raw))
		return 0, false
	}
	return v, true
}

// askOptional returns nil for an empty answer.
func (s *shell) askOptional(label string) (*string, bool) {
	raw, ok := s.ask(label + " (empty to keep)")
	if !ok || raw == "" {
		return nil, ok
	}
	return &raw, true
}

func (s *shell) confirm(question string) bool {
	answer, ok := s.ask(question)
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (s *shell) fail(err error) {
	fmt.Fprintf(s.out, "operation failed, check inputs: %v\n", err)
}

// ------------------ Books ------------------

func (s *shell) handleAddBook(mgr *library.LibraryManager) {
	isbn, ok := s.ask("ISBN")
	if !ok {
		return
	}
	title, ok := s.ask("Title")
	if !ok {
		return
	}
	author, ok := s.ask("Author")
	if !ok {
		return
	}
	weight, ok := s.askFloat("Weight (kg)")
	if !ok {
		return
	}
	value, ok := s.askFloat("Value")
	if !ok {
		return
	}
	stock, ok := s.askInt("Stock")
	if !ok {
		return
	}

	b := models.Book{ISBN: isbn, Title: title, Author: author, Weight: weight, Value: value, Stock: stock}
	if err := mgr.AddBook(b); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Book %s added.\n", isbn)
}

func (s *shell) handleSearchBooks(mgr *library.LibraryManager) {
	query, ok := s.ask("Search query")
	if !ok {
		return
	}
	field, ok := s.ask("Search by (title/author, default: title)")
	if !ok {
		return
	}
	results := mgr.SearchBooks(query, algorithms.ParseSearchField(field))
	fmt.Fprintf(s.out, "Found %d results:\n", len(results))
	printBooks(s.out, results)
}

func (s *shell) handleUpdateBook(mgr *library.LibraryManager) {
	isbn, ok := s.ask("ISBN")
	if !ok {
		return
	}
	if _, err := mgr.GetBookByISBN(isbn); err != nil {
		s.fail(err)
		return
	}

	var upd library.BookUpdate
	if upd.Title, ok = s.askOptional("Title"); !ok {
		return
	}
	if upd.Author, ok = s.askOptional("Author"); !ok {
		return
	}
	for _, f := range []struct {
		label string
		dst   **float64
	}{
		{"Weight (kg)", &upd.Weight},
		{"Value", &upd.Value},
	} {
		raw, ok := s.askOptional(f.label)
		if !ok {
			return
		}
		if raw == nil {
			continue
		}
		v, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			s.fail(fmt.Errorf("%s: %q is not a number", strings.ToLower(f.label), *raw))
			return
		}
		*f.dst = &v
	}
	raw, ok := s.askOptional("Stock")
	if !ok {
		return
	}
	if raw != nil {
		v, err := strconv.Atoi(*raw)
		if err != nil {
			s.fail(fmt.Errorf("stock: %q is not a whole number", *raw))
			return
		}
		upd.Stock = &v
	}

	if err := mgr.UpdateBook(isbn, upd); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Book %s updated.\n", isbn)
}

func (s *shell) handleDeleteBook(mgr *library.LibraryManager) {
	isbn, ok := s.ask("ISBN")
	if !ok {
		return
	}
	if err := mgr.DeleteBook(isbn); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Book %s deleted.\n", isbn)
}

func (s *shell) handleImport(mgr *library.LibraryManager) {
	path, ok := s.ask("File path (CSV or JSON)")
	if !ok {
		return
	}
	n, err := mgr.LoadInitialInventory(path, library.FormatFromPath(path))
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Loaded %d books.\n", n)
}

// ------------------ Users ------------------

func (s *shell) handleAddUser(mgr *library.LibraryManager) {
	id, ok := s.ask("User ID (empty to generate)")
	if !ok {
		return
	}
	name, ok := s.ask("Name")
	if !ok {
		return
	}
	email, ok := s.ask("Email (optional)")
	if !ok {
		return
	}
	phone, ok := s.ask("Phone (optional)")
	if !ok {
		return
	}

	if id == "" {
		var err error
		if id, err = library.NewUserID(); err != nil {
			s.fail(err)
			return
		}
	}
	if err := mgr.AddUser(models.User{ID: id, Name: name, Email: email, Phone: phone}); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "User %s added.\n", id)
}

func (s *shell) handleUpdateUser(mgr *library.LibraryManager) {
	id, ok := s.ask("User ID")
	if !ok {
		return
	}
	if _, err := mgr.GetUser(id); err != nil {
		s.fail(err)
		return
	}

	var upd library.UserUpdate
	if upd.Name, ok = s.askOptional("Name"); !ok {
		return
	}
	if upd.Email, ok = s.askOptional("Email"); !ok {
		return
	}
	if upd.Phone, ok = s.askOptional("Phone"); !ok {
		return
	}
	if err := mgr.UpdateUser(id, upd); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "User %s updated.\n", id)
}

func (s *shell) handleDeleteUser(mgr *library.LibraryManager) {
	id, ok := s.ask("User ID")
	if !ok {
		return
	}
	if err := mgr.DeleteUser(id); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "User %s deleted.\n", id)
}

// ------------------ Shelves ------------------

func (s *shell) handleAddShelf(mgr *library.LibraryManager) {
	id, ok := s.ask("Shelf ID (empty to generate)")
	if !ok {
		return
	}
	raw, ok := s.ask(fmt.Sprintf("Capacity in kg (empty for %.1f)", models.DefaultShelfCapacity))
	if !ok {
		return
	}
	var capacity float64
	if raw != "" {
		var err error
		if capacity, err = strconv.ParseFloat(raw, 64); err != nil {
			s.fail(fmt.Errorf("capacity: %q is not a number", raw))
			return
		}
	}

	if id == "" {
		var err error
		if id, err = library.NewShelfID(); err != nil {
			s.fail(err)
			return
		}
	}
	if err := mgr.AddShelf(id, capacity); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Shelf %s added.\n", id)
}

func (s *shell) handleUpdateShelf(mgr *library.LibraryManager) {
	id, ok := s.ask("Shelf ID")
	if !ok {
		return
	}
	capacity, ok := s.askFloat("New capacity (kg)")
	if !ok {
		return
	}
	if err := mgr.UpdateShelf(id, capacity); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Shelf %s updated.\n", id)
}

func (s *shell) handleDeleteShelf(mgr *library.LibraryManager) {
	id, ok := s.ask("Shelf ID")
	if !ok {
		return
	}
	if err := mgr.DeleteShelf(id); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Shelf %s deleted.\n", id)
}

func (s *shell) handleAssignShelf(mgr *library.LibraryManager) {
	shelfID, ok := s.ask("Shelf ID")
	if !ok {
		return
	}
	isbn, ok := s.ask("ISBN")
	if !ok {
		return
	}
	if err := mgr.AssignBookToShelf(shelfID, isbn); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Book %s placed on shelf %s.\n", isbn, shelfID)
}

func (s *shell) handleUnassignShelf(mgr *library.LibraryManager) {
	shelfID, ok := s.ask("Shelf ID")
	if !ok {
		return
	}
	isbn, ok := s.ask("ISBN")
	if !ok {
		return
	}
	if err := mgr.RemoveBookFromShelf(shelfID, isbn); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Book %s removed from shelf %s.\n", isbn, shelfID)
}

// ------------------ Circulation ------------------

func (s *shell) askUserAndBook() (userID, isbn string, ok bool) {
	if userID, ok = s.ask("User ID"); !ok {
		return "", "", false
	}
	if isbn, ok = s.ask("ISBN"); !ok {
		return "", "", false
	}
	return userID, isbn, true
}

func (s *shell) handleLoan(mgr *library.LibraryManager) {
	userID, isbn, ok := s.askUserAndBook()
	if !ok {
		return
	}
	if err := mgr.LoanBook(userID, isbn); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, "Book loaned successfully!")
}

func (s *shell) handleReturn(mgr *library.LibraryManager) {
	userID, isbn, ok := s.askUserAndBook()
	if !ok {
		return
	}
	assignedTo, err := mgr.ReturnBook(userID, isbn)
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, "Book returned successfully!")
	if assignedTo != "" {
		fmt.Fprintf(s.out, "Book automatically loaned to user %s from the reservation queue.\n", assignedTo)
	}
}

func (s *shell) handleReserve(mgr *library.LibraryManager) {
	userID, isbn, ok := s.askUserAndBook()
	if !ok {
		return
	}
	if err := mgr.ReserveBook(userID, isbn); err != nil {
		s.fail(err)
		return
	}
	pos := len(mgr.GetReservations(isbn))
	fmt.Fprintf(s.out, "Book reserved successfully! Position in queue: %d\n", pos)
}

func (s *shell) handleHistory(mgr *library.LibraryManager) {
	userID, ok := s.ask("User ID")
	if !ok {
		return
	}
	printLoanHistory(s.out, userID, mgr.GetUserLoanHistory(userID))
}

func (s *shell) handleLatestLoan(mgr *library.LibraryManager) {
	userID, ok := s.ask("User ID")
	if !ok {
		return
	}
	loan, err := mgr.LatestLoan(userID)
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Latest loan: %s (%s)\n", loan.Title, loan.ISBN)
}

func (s *shell) handleClearHistory(mgr *library.LibraryManager) {
	userID, ok := s.ask("User ID")
	if !ok {
		return
	}
	if err := mgr.ClearLoanHistory(userID); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Loan history of user %s cleared.\n", userID)
}

func (s *shell) handleReservations(mgr *library.LibraryManager) {
	isbn, ok := s.ask("ISBN")
	if !ok {
		return
	}
	printReservations(s.out, isbn, mgr.GetReservations(isbn))
}

// ------------------ Planning and statistics ------------------

func (s *shell) handleRisky(mgr *library.LibraryManager) {
	threshold, ok := s.askFloat("Weight threshold (kg)")
	if !ok {
		return
	}
	printRisky(s.out, mgr.RiskyShelfCombinations(threshold), threshold)
}

func (s *shell) handleOptimal(mgr *library.LibraryManager) {
	capacity, ok := s.askFloat("Shelf capacity (kg)")
	if !ok {
		return
	}
	printSelection(s.out, mgr.OptimalShelfAssignment(capacity), capacity)
}

func (s *shell) handleAuthorValue(mgr *library.LibraryManager) {
	author, ok := s.ask("Author")
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "Total value of %s's books: %s\n", author, library.FormatMoney(mgr.AuthorTotalValue(author)))
}

func (s *shell) handleAuthorWeight(mgr *library.LibraryManager) {
	author, ok := s.ask("Author")
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "Average weight of %s's books: %.2f kg\n", author, mgr.AuthorAverageWeight(author))
}

// ------------------ System ------------------

func (s *shell) handleReport(mgr *library.LibraryManager) {
	fmt.Fprint(s.out, mgr.GenerateGlobalInventoryReport())
	if !s.confirm("Save report to file? (y/n)") {
		return
	}
	path := s.app.cfg.Storage.ReportPath
	if err := mgr.SaveGlobalReport(path); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Report saved to %s\n", path)
}

func (s *shell) handleSave() {
	if err := s.app.save(); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Catalog saved to %s\n", s.app.store.Location())
}

func (s *shell) handleLoad(mgr *library.LibraryManager) {
	if err := s.app.store.Load(mgr); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Catalog loaded from %s\n", s.app.store.Location())
}
