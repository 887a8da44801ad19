// Package sqlite implements the image blob store on SQLite.
package sqlite

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	errUnsupported = errors.New("blob store is not available")
	errClosed      = errors.New("blob store is closed")
)

// Options configures a BlobStore.
type Options struct {
	Path    string
	Enabled bool
	Logger  *slog.Logger
}

// BlobStore keeps image payloads keyed by reference id.
// The database is opened on first use; the outcome, success or failure, is memoized.
type BlobStore struct {
	path    string
	enabled bool
	logger  *slog.Logger
	now     func() time.Time

	// mu guards the lazily opened handle and the closed flag.
	mu      sync.Mutex
	opened  bool
	db      *sql.DB
	openErr error
	closed  bool
}

// New creates a blob store. Nothing touches disk until the first operation.
func New(opts Options) *BlobStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobStore{
		path:    opts.Path,
		enabled: opts.Enabled,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// IsSupported reports whether the blob store capability is available.
func (s *BlobStore) IsSupported() bool {
	return s.enabled
}

func (s *BlobStore) handle() (*sql.DB, error) {
	if !s.enabled {
		return nil, errUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	if !s.opened {
		s.opened = true
		s.db, s.openErr = open(s.path)
		if s.openErr != nil {
			s.logger.Error("failed to open blob store", "path", s.path, "error", s.openErr)
		} else {
			s.logger.Debug("blob store opened", "path", s.path)
		}
	}
	return s.db, s.openErr
}

func open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("blob store path is empty")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create blob store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return db, nil
}

// Close closes the database if it was opened.
func (s *BlobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
