package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"library-catalog/algorithms"
	"library-catalog/library"
	"library-catalog/models"
)

func printBooks(w io.Writer, books []*models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-15s %-30s %-25s %-8s %-12s %-6s %s\n", "ISBN", "Title", "Author", "Weight", "Value", "Stock", "Shelf")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, b := range books {
		shelf := "-"
		if b.ShelfID != nil {
			shelf = *b.ShelfID
		}
		fmt.Fprintf(w, "%-15s %-30s %-25s %-8.2f %-12s %-6d %s\n",
			library.TruncateString(b.ISBN, 15),
			library.TruncateString(b.Title, 30),
			library.TruncateString(b.Author, 25),
			b.Weight,
			library.FormatMoney(b.Value),
			b.Stock,
			shelf)
	}
}

func printUsers(w io.Writer, users []*models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	fmt.Fprintf(w, "%-28s %-25s %-30s %s\n", "ID", "Name", "Email", "Phone")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, u := range users {
		fmt.Fprintf(w, "%-28s %-25s %-30s %s\n", u.ID, library.TruncateString(u.Name, 25), library.TruncateString(u.Email, 30), u.Phone)
	}
}

func printShelves(w io.Writer, shelves []*models.Shelf) {
	if len(shelves) == 0 {
		fmt.Fprintln(w, "No shelves found.")
		return
	}
	fmt.Fprintf(w, "%-28s %-10s %-10s %-12s %s\n", "ID", "Capacity", "Load", "Value", "Books")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, s := range shelves {
		fmt.Fprintf(w, "%-28s %-10.2f %-10.2f %-12s %s\n",
			s.ID, s.Capacity, s.TotalWeight(), library.FormatMoney(s.TotalValue()), strings.Join(s.ISBNs(), ", "))
	}
}

func printLoanHistory(w io.Writer, userID string, history []models.LoanRecord) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No loan history found.")
		return
	}
	fmt.Fprintf(w, "Loan history for user %s (most recent first):\n", userID)
	for i := len(history) - 1; i >= 0; i-- {
		loan := history[i]
		fmt.Fprintf(w, "%d. ISBN: %s, Title: %s, Date: %s\n", len(history)-i, loan.ISBN, loan.Title, loan.Date.Format(time.RFC3339))
	}
}

func printReservations(w io.Writer, isbn string, waitlist []models.Reservation) {
	if len(waitlist) == 0 {
		fmt.Fprintln(w, "No reservations found.")
		return
	}
	fmt.Fprintf(w, "Reservations for ISBN %s (next in line first):\n", isbn)
	fmt.Fprintf(w, "%-10s %-28s %s\n", "Position", "User", "Date")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, r := range waitlist {
		fmt.Fprintf(w, "%-10d %-28s %s\n", i+1, r.UserID, r.Date.Format(time.RFC3339))
	}
}

func printRisky(w io.Writer, combos [][4]*models.Book, threshold float64) {
	fmt.Fprintf(w, "Found %d risky combinations (total weight > %.2f kg):\n", len(combos), threshold)
	for i, combo := range combos {
		var total float64
		titles := make([]string, 0, len(combo))
		for _, b := range combo {
			total += b.Weight
			titles = append(titles, b.Title)
		}
		fmt.Fprintf(w, "%d. %s (%.2f kg)\n", i+1, strings.Join(titles, ", "), total)
	}
}

func printSelection(w io.Writer, sel algorithms.ShelfSelection, capacity float64) {
	fmt.Fprintf(w, "Optimal shelf for %.2f kg: %d books, %.2f kg, %s\n",
		capacity, len(sel.Books), sel.TotalWeight, library.FormatMoney(sel.TotalValue))
	for _, b := range sel.Books {
		fmt.Fprintf(w, "  - %s\n", b)
	}
}
