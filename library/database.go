package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"library-catalog/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	dialectSQLite = "sqlite3"

	tableBooks        = "books"
	tableUsers        = "users"
	tableShelves      = "shelves"
	tableLoans        = "loans"
	tableReservations = "reservations"
	tableMeta         = "meta"

	metaSchemaVersion = "schema_version"
	metaSnapshotID    = "snapshot_id"
	metaSavedAt       = "saved_at"

	// insertBatchSize keeps multi-row inserts well under SQLite's bound
	// parameter limit.
	insertBatchSize = 100
)

// Database stores whole catalog snapshots in a SQLite file. Every save
// replaces the previous snapshot inside a single transaction.
type Database struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db, builder: goqu.Dialect(dialectSQLite)}, nil
}

// Close closes the DB.
func (d *Database) Close() error {
	return d.db.Close()
}

// ------------------ Schema migration ------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key=?;`, metaSchemaVersion).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shelves (
            shelf_id TEXT PRIMARY KEY,
            capacity REAL NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            position INTEGER PRIMARY KEY,
            isbn TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            weight REAL NOT NULL,
            value REAL NOT NULL,
            stock INTEGER NOT NULL,
            shelf_id TEXT REFERENCES shelves(shelf_id)
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            user_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            user_id TEXT NOT NULL,
            seq INTEGER NOT NULL,
            isbn TEXT NOT NULL,
            title TEXT NOT NULL,
            loaned_at TEXT NOT NULL,
            PRIMARY KEY (user_id, seq)
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            isbn TEXT NOT NULL,
            seq INTEGER NOT NULL,
            user_id TEXT NOT NULL,
            reserved_at TEXT NOT NULL,
            PRIMARY KEY (isbn, seq)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, metaSchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ------------------ Row types ------------------

type bookRow struct {
	Position int `db:"position"`
	models.Book
}

type shelfRow struct {
	ID       string  `db:"shelf_id"`
	Capacity float64 `db:"capacity"`
}

type loanRow struct {
	UserID   string `db:"user_id"`
	Seq      int    `db:"seq"`
	ISBN     string `db:"isbn"`
	Title    string `db:"title"`
	LoanedAt string `db:"loaned_at"`
}

type reservationRow struct {
	ISBN       string `db:"isbn"`
	Seq        int    `db:"seq"`
	UserID     string `db:"user_id"`
	ReservedAt string `db:"reserved_at"`
}

// ------------------ Snapshots ------------------

// SaveSnapshot replaces the stored catalog with s and returns the id given
// to this snapshot.
func (d *Database) SaveSnapshot(s Snapshot) (string, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Children first so the shelf reference on books never dangles.
	for _, table := range []string{tableLoans, tableReservations, tableBooks, tableUsers, tableShelves} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return "", fmt.Errorf("clear %s: %w", table, err)
		}
	}

	shelves := make([]any, 0, len(s.Shelves))
	for _, sh := range s.Shelves {
		shelves = append(shelves, shelfRow{ID: sh.ID, Capacity: sh.Capacity})
	}
	if err := d.insertRows(tx, tableShelves, shelves); err != nil {
		return "", err
	}

	books := make([]any, 0, len(s.Books))
	for i, b := range s.Books {
		books = append(books, bookRow{Position: i, Book: b})
	}
	if err := d.insertRows(tx, tableBooks, books); err != nil {
		return "", err
	}

	users := make([]any, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, u)
	}
	if err := d.insertRows(tx, tableUsers, users); err != nil {
		return "", err
	}

	var loans []any
	for userID, history := range s.LoanHistory {
		for seq, rec := range history {
			loans = append(loans, loanRow{
				UserID:   userID,
				Seq:      seq,
				ISBN:     rec.ISBN,
				Title:    rec.Title,
				LoanedAt: rec.Date.Format(time.RFC3339Nano),
			})
		}
	}
	if err := d.insertRows(tx, tableLoans, loans); err != nil {
		return "", err
	}

	var reservations []any
	for isbn, waitlist := range s.Reservations {
		for seq, r := range waitlist {
			reservations = append(reservations, reservationRow{
				ISBN:       isbn,
				Seq:        seq,
				UserID:     r.UserID,
				ReservedAt: r.Date.Format(time.RFC3339Nano),
			})
		}
	}
	if err := d.insertRows(tx, tableReservations, reservations); err != nil {
		return "", err
	}

	snapshotID := uuid.New().String()
	for key, value := range map[string]string{
		metaSnapshotID: snapshotID,
		metaSavedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	} {
		if err := d.setMeta(tx, key, value); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return snapshotID, nil
}

// LoadSnapshot reads the stored catalog. An empty database yields an empty
// snapshot.
func (d *Database) LoadSnapshot() (Snapshot, error) {
	s := Snapshot{
		LoanHistory:  make(map[string][]models.LoanRecord),
		Reservations: make(map[string][]models.Reservation),
	}

	var books []bookRow
	if err := d.selectAll(&books, tableBooks, "position"); err != nil {
		return Snapshot{}, err
	}
	s.Books = make([]models.Book, 0, len(books))
	for _, row := range books {
		s.Books = append(s.Books, row.Book)
	}

	if err := d.selectAll(&s.Users, tableUsers, "user_id"); err != nil {
		return Snapshot{}, err
	}

	var shelves []shelfRow
	if err := d.selectAll(&shelves, tableShelves, "shelf_id"); err != nil {
		return Snapshot{}, err
	}
	s.Shelves = make([]ShelfRecord, 0, len(shelves))
	for _, row := range shelves {
		rec := ShelfRecord{ID: row.ID, Capacity: row.Capacity, Books: []string{}}
		for _, b := range s.Books {
			if b.ShelfID != nil && *b.ShelfID == row.ID {
				rec.Books = append(rec.Books, b.ISBN)
			}
		}
		s.Shelves = append(s.Shelves, rec)
	}

	var loans []loanRow
	if err := d.selectAll(&loans, tableLoans, "user_id", "seq"); err != nil {
		return Snapshot{}, err
	}
	for _, row := range loans {
		date, err := models.ParseTimestamp(row.LoanedAt)
		if err != nil {
			return Snapshot{}, malformed(err, "loan %s/%d: date", row.UserID, row.Seq)
		}
		s.LoanHistory[row.UserID] = append(s.LoanHistory[row.UserID],
			models.LoanRecord{ISBN: row.ISBN, Date: date, Title: row.Title})
	}

	var reservations []reservationRow
	if err := d.selectAll(&reservations, tableReservations, "isbn", "seq"); err != nil {
		return Snapshot{}, err
	}
	for _, row := range reservations {
		date, err := models.ParseTimestamp(row.ReservedAt)
		if err != nil {
			return Snapshot{}, malformed(err, "reservation %s/%d: date", row.ISBN, row.Seq)
		}
		s.Reservations[row.ISBN] = append(s.Reservations[row.ISBN],
			models.Reservation{UserID: row.UserID, ISBN: row.ISBN, Date: date})
	}

	return s, nil
}

// SnapshotID returns the id of the last saved snapshot, or "" if nothing has
// been saved yet.
func (d *Database) SnapshotID() (string, error) {
	query, args, err := d.builder.From(tableMeta).
		Select("value").
		Where(goqu.Ex{"key": metaSnapshotID}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var id string
	err = d.db.Get(&id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read snapshot id: %w", err)
	}
	return id, nil
}

func (d *Database) insertRows(tx *sqlx.Tx, table string, rows []any) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		query, args, err := d.builder.Insert(table).
			Rows(rows[start:end]...).
			Prepared(true).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build %s insert: %w", table, err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (d *Database) selectAll(dest any, table string, orderBy ...string) error {
	order := make([]exp.OrderedExpression, 0, len(orderBy))
	for _, col := range orderBy {
		order = append(order, goqu.I(col).Asc())
	}
	query, args, err := d.builder.From(table).
		Order(order...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build %s select: %w", table, err)
	}
	if err := d.db.Select(dest, query, args...); err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	return nil
}

func (d *Database) setMeta(tx *sqlx.Tx, key, value string) error {
	del, args, err := d.builder.Delete(tableMeta).
		Where(goqu.Ex{"key": key}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build meta delete: %w", err)
	}
	if _, err := tx.Exec(del, args...); err != nil {
		return fmt.Errorf("clear meta %s: %w", key, err)
	}
	return d.insertRows(tx, tableMeta, []any{goqu.Record{"key": key, "value": value}})
}

// ------------------ Manager integration ------------------

// SaveToDatabase stores the current catalog in db.
func (m *LibraryManager) SaveToDatabase(db *Database) error {
	s := m.Snapshot()
	id, err := db.SaveSnapshot(s)
	if err != nil {
		return err
	}
	m.logger.Info("catalog saved", "backend", "sqlite", "snapshot_id", id, "books", len(s.Books), "users", len(s.Users))
	return nil
}

// LoadFromDatabase replaces the catalog with the snapshot stored in db.
func (m *LibraryManager) LoadFromDatabase(db *Database) error {
	s, err := db.LoadSnapshot()
	if err != nil {
		return err
	}
	if err := m.Restore(s); err != nil {
		return err
	}
	m.logger.Info("catalog loaded", "backend", "sqlite", "books", len(s.Books), "users", len(s.Users))
	return nil
}
