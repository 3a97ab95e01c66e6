package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"library-catalog/internal/config"
	"library-catalog/internal/logger"
	"library-catalog/library"

	"github.com/spf13/pflag"
)

// import_books seeds a fresh catalog from a CSV or JSON inventory file,
// replacing whatever the configured store held before.
func main() {
	fs := pflag.NewFlagSet("import_books", pflag.ExitOnError)
	config.RegisterFlags(fs)
	source := fs.String("file", "books.csv", "Inventory file to import (CSV or JSON)")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})

	fmt.Println("Cleaning up existing catalog files...")
	for _, file := range existingFiles(cfg) {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Cleanup complete.")

	manager := library.NewLibraryManager(library.WithLogger(log.Logger))

	fmt.Printf("Importing books from %s...\n", *source)
	count, err := manager.LoadInitialInventory(*source, library.FormatFromPath(*source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing books: %v\n", err)
		os.Exit(1)
	}

	store, err := library.OpenStore(cfg.Storage.Backend, cfg.Storage.DataDir, cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Save(manager); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books into %s\n", count, store.Location())

	if count > 0 {
		fmt.Println("\nImported books:")
		fmt.Printf("%-15s %-45s %-30s\n", "ISBN", "Title", "Author")
		fmt.Println(strings.Repeat("-", 92))
		for _, book := range manager.ListBooks() {
			fmt.Printf("%-15s %-45s %-30s\n", book.ISBN, library.TruncateString(book.Title, 45), library.TruncateString(book.Author, 30))
		}
	}
}

// existingFiles lists everything a previous run may have written for the
// configured backend.
func existingFiles(cfg *config.Config) []string {
	if cfg.Storage.Backend == config.BackendSQLite {
		return []string{cfg.Storage.DBPath, cfg.Storage.DBPath + "-shm", cfg.Storage.DBPath + "-wal"}
	}
	names := []string{library.BooksFile, library.UsersFile, library.ShelvesFile, library.LoanHistoryFile, library.ReservationsFile}
	files := make([]string, 0, len(names))
	for _, name := range names {
		files = append(files, filepath.Join(cfg.Storage.DataDir, name))
	}
	return files
}
