package library

import "fmt"

// Store persists whole catalogs between runs.
type Store interface {
	Load(m *LibraryManager) error
	Save(m *LibraryManager) error
	Close() error
	// Location names where the catalog is kept, for messages.
	Location() string
}

// Backend names accepted by OpenStore.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// OpenStore returns the JSON directory store or the SQLite store.
func OpenStore(backend, dataDir, dbPath string) (Store, error) {
	switch backend {
	case BackendJSON:
		return DirStore{Dir: dataDir}, nil
	case BackendSQLite:
		db, err := NewDatabase(dbPath)
		if err != nil {
			return nil, err
		}
		return &DBStore{db: db, path: dbPath}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// DirStore keeps the catalog as JSON documents in Dir.
type DirStore struct {
	Dir string
}

func (s DirStore) Load(m *LibraryManager) error { return m.LoadData(s.Dir) }
func (s DirStore) Save(m *LibraryManager) error { return m.SaveData(s.Dir) }
func (s DirStore) Close() error                 { return nil }
func (s DirStore) Location() string             { return s.Dir }

// DBStore keeps the catalog in a SQLite database.
type DBStore struct {
	db   *Database
	path string
}

func (s *DBStore) Load(m *LibraryManager) error { return m.LoadFromDatabase(s.db) }
func (s *DBStore) Save(m *LibraryManager) error { return m.SaveToDatabase(s.db) }
func (s *DBStore) Close() error                 { return s.db.Close() }
func (s *DBStore) Location() string             { return s.path }
