// Package sqlite implements a WidgetStore on an in-memory SQLite database.
//
// The database lives only as long as the process; it gives the service a
// SQL-backed alternative to the map store with identical semantics. All
// mutations run in one transaction under the store's write lock.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Store implements types.WidgetStore on SQLite.
type Store struct {
	mu        sync.RWMutex
	attached  bool
	db        *sql.DB
	lastID    int64 // last issued ID
	highWater int   // never below the largest z in use

	now func() time.Time
}

// NewStore creates a detached Store. Call Attach before use.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Attach opens a fresh in-memory database and creates the schema.
// Returns ErrAlreadyAttached if called while attached.
func (s *Store) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAlreadyAttached
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	s.db = db
	s.lastID = 0
	s.highWater = 0
	s.attached = true
	return nil
}

// Detach closes the database. Idempotent. After Detach every operation
// returns ErrDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	s.db = nil
	return nil
}

// Len returns the number of stored widgets, or zero when detached.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return 0
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM widgets").Scan(&n); err != nil {
		return 0
	}
	return n
}
