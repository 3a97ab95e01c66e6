package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"library-catalog/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// File names inside a data directory.
const (
	BooksFile        = "books.json"
	UsersFile        = "users.json"
	ShelvesFile      = "shelves.json"
	LoanHistoryFile  = "loan_history.json"
	ReservationsFile = "reservations.json"
)

// Format is a bulk import file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromPath guesses the format from the file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// LoadInitialInventory bulk-loads books from a CSV or JSON file and returns
// how many were added. Any bad row aborts the import and leaves the catalog
// as it was.
func (m *LibraryManager) LoadInitialInventory(path string, format Format) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open inventory: %w", err)
	}
	defer f.Close()

	var books []models.Book
	switch format {
	case FormatCSV:
		books, err = ReadBooksCSV(f)
	case FormatJSON:
		books, err = ReadBooksJSON(f)
	default:
		return 0, malformed(nil, "unknown inventory format %q", format)
	}
	if err != nil {
		return 0, err
	}

	if err := m.importBooks(books); err != nil {
		return 0, err
	}
	m.logger.Info("inventory loaded", "path", path, "format", format, "books", len(books))
	return len(books), nil
}

var requiredCSVColumns = []string{"ISBN", "Title", "Author", "Weight", "Value"}

// ReadBooksCSV parses a CSV file with the header ISBN,Title,Author,Weight,
// Value,Stock. Column order is free and header names ignore case. A missing
// Stock column means one copy per row; a present one must hold an integer.
func ReadBooksCSV(r io.Reader) ([]models.Book, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, malformed(nil, "csv: missing header")
	}
	if err != nil {
		return nil, malformed(err, "csv: read header")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredCSVColumns {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			return nil, malformed(nil, "csv: missing column %s", name)
		}
	}
	cell := func(record []string, name string) string {
		i, ok := columns[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	books := []models.Book{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err, "csv: line %d", line)
		}

		weight, err := strconv.ParseFloat(cell(record, "Weight"), 64)
		if err != nil {
			return nil, malformed(err, "csv: line %d: weight", line)
		}
		value, err := strconv.ParseFloat(cell(record, "Value"), 64)
		if err != nil {
			return nil, malformed(err, "csv: line %d: value", line)
		}
		stock := 1
		if _, ok := columns["stock"]; ok {
			if stock, err = strconv.Atoi(cell(record, "Stock")); err != nil {
				return nil, malformed(err, "csv: line %d: stock", line)
			}
		}

		books = append(books, models.Book{
			ISBN:   cell(record, "ISBN"),
			Title:  cell(record, "Title"),
			Author: cell(record, "Author"),
			Weight: weight,
			Value:  value,
			Stock:  stock,
		})
	}
	return books, nil
}

// bookDocument mirrors models.Book with an optional stock, which defaults
// to one copy when absent.
type bookDocument struct {
	ISBN    string  `json:"isbn"`
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Weight  float64 `json:"weight"`
	Value   float64 `json:"value"`
	Stock   *int    `json:"stock"`
	ShelfID *string `json:"shelf_id"`
}

// ReadBooksJSON parses a JSON array of books.
func ReadBooksJSON(r io.Reader) ([]models.Book, error) {
	var docs []bookDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, malformed(err, "json: decode books")
	}

	books := make([]models.Book, 0, len(docs))
	for _, d := range docs {
		stock := 1
		if d.Stock != nil {
			stock = *d.Stock
		}
		books = append(books, models.Book{
			ISBN:    d.ISBN,
			Title:   d.Title,
			Author:  d.Author,
			Weight:  d.Weight,
			Value:   d.Value,
			Stock:   stock,
			ShelfID: d.ShelfID,
		})
	}
	return books, nil
}

// SaveData writes the catalog as JSON documents into dir, creating it if
// needed. Each file is replaced atomically.
func (m *LibraryManager) SaveData(dir string) error {
	s := m.Snapshot()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	docs := []struct {
		name string
		v    any
	}{
		{BooksFile, s.Books},
		{UsersFile, s.Users},
		{ShelvesFile, s.Shelves},
		{LoanHistoryFile, s.LoanHistory},
		{ReservationsFile, s.Reservations},
	}
	for _, doc := range docs {
		if err := writeJSONFile(filepath.Join(dir, doc.name), doc.v); err != nil {
			return err
		}
	}

	m.logger.Info("catalog saved", "dir", dir, "books", len(s.Books), "users", len(s.Users))
	return nil
}

// LoadData replaces the catalog with the JSON documents in dir. Missing
// files count as empty. Nothing changes if any document is malformed.
func (m *LibraryManager) LoadData(dir string) error {
	var s Snapshot

	f, err := os.Open(filepath.Join(dir, BooksFile))
	switch {
	case err == nil:
		s.Books, err = ReadBooksJSON(f)
		f.Close()
		if err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("open books: %w", err)
	}

	if err := readJSONFile(filepath.Join(dir, UsersFile), &s.Users); err != nil {
		return err
	}
	if err := readJSONFile(filepath.Join(dir, ShelvesFile), &s.Shelves); err != nil {
		return err
	}
	if err := readJSONFile(filepath.Join(dir, LoanHistoryFile), &s.LoanHistory); err != nil {
		return err
	}
	if err := readJSONFile(filepath.Join(dir, ReservationsFile), &s.Reservations); err != nil {
		return err
	}

	if err := m.Restore(s); err != nil {
		return err
	}
	m.logger.Info("catalog loaded", "dir", dir, "books", len(s.Books), "users", len(s.Users))
	return nil
}

// SaveGlobalReport renders the global inventory report into path.
func (m *LibraryManager) SaveGlobalReport(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(m.GenerateGlobalInventoryReport()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	m.logger.Info("report saved", "path", path)
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp.Name(), path)
}

// readJSONFile decodes path into v, leaving v untouched when the file does
// not exist.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return malformed(err, "json: decode %s", filepath.Base(path))
	}
	return nil
}
