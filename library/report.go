package library

import (
	"fmt"
	"strings"

	"library-catalog/algorithms"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const reportWidth = 80

var reportPrinter = message.NewPrinter(language.English)

// GenerateGlobalInventoryReport renders every book ordered by value, highest
// last, followed by the total stock value (value times stock) and the number
// of titles.
func (m *LibraryManager) GenerateGlobalInventoryReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := algorithms.MergeSort(m.generalInventory, algorithms.ByValue)

	var sb strings.Builder
	rule := strings.Repeat("=", reportWidth)

	sb.WriteString(rule + "\n")
	sb.WriteString("GLOBAL INVENTORY REPORT (sorted by value)\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "%-15s %-30s %-25s %-15s %-10s\n", "ISBN", "Title", "Author", "Value", "Stock")
	sb.WriteString(strings.Repeat("-", reportWidth) + "\n")

	var total float64
	for _, b := range books {
		fmt.Fprintf(&sb, "%-15s %-30s %-25s %-15s %-10d\n",
			TruncateString(b.ISBN, 15),
			TruncateString(b.Title, 30),
			TruncateString(b.Author, 25),
			FormatMoney(b.Value),
			b.Stock)
		total += b.Value * float64(b.Stock)
	}

	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Total inventory value: %s\n", FormatMoney(total))
	fmt.Fprintf(&sb, "Total titles: %d\n", len(books))
	return sb.String()
}

// FormatMoney prints whole currency units with thousands separators.
func FormatMoney(v float64) string {
	return reportPrinter.Sprintf("$%.0f", v)
}

// TruncateString shortens s to maxLength runes, marking the cut with "...".
func TruncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
