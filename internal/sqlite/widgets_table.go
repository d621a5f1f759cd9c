package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

// Compile-time interface check: Store must implement WidgetStore.
var _ types.WidgetStore = (*Store)(nil)

const selectWidget = "SELECT id, x, y, z, width, height, modified_at FROM widgets"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWidget(row rowScanner) (types.Widget, error) {
	var w types.Widget
	var modifiedAt int64
	if err := row.Scan(&w.ID, &w.X, &w.Y, &w.Z, &w.Width, &w.Height, &modifiedAt); err != nil {
		return types.Widget{}, err
	}
	w.ModifiedAt = time.Unix(0, modifiedAt).UTC()
	return w, nil
}

// Get retrieves a widget by ID.
func (s *Store) Get(id int64) (types.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return types.Widget{}, ErrDetached
	}

	w, err := scanWidget(s.db.QueryRow(selectWidget+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Widget{}, fmt.Errorf("get widget %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Widget{}, fmt.Errorf("get widget %d: %w", id, err)
	}
	return w, nil
}

// List returns widgets ordered by z, bounded by page.
func (s *Store) List(page types.Page) ([]types.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, ErrDetached
	}

	rows, err := s.db.Query(selectWidget+" ORDER BY z LIMIT ? OFFSET ?", page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("query widgets: %w", err)
	}
	defer rows.Close()

	out := make([]types.Widget, 0, page.Limit)
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan widget: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate widgets: %w", err)
	}
	return out, nil
}

// Create inserts a widget under the next ID, shifting on a z collision.
func (s *Store) Create(in types.WidgetInput) (types.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.Widget{}, ErrDetached
	}

	tx, err := s.db.Begin()
	if err != nil {
		return types.Widget{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	w := types.Widget{ID: s.lastID + 1, ModifiedAt: now}
	in.Apply(&w)

	z, high, err := s.placeTx(tx, w.ID, in.Z, now)
	if err != nil {
		return types.Widget{}, fmt.Errorf("create widget: %w", err)
	}
	w.Z = z

	if _, err := tx.Exec(
		"INSERT INTO widgets (id, x, y, z, width, height, modified_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		w.ID, w.X, w.Y, w.Z, w.Width, w.Height, now.UnixNano(),
	); err != nil {
		return types.Widget{}, fmt.Errorf("insert widget: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Widget{}, fmt.Errorf("commit widget: %w", err)
	}

	// Counters move only once the transaction is durable in the database.
	s.lastID = w.ID
	s.highWater = max(high, w.Z)
	w.ModifiedAt = time.Unix(0, now.UnixNano()).UTC()
	return w, nil
}

// Update replaces an existing widget, shifting on a z collision with another
// widget.
func (s *Store) Update(in types.WidgetInput) (types.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.Widget{}, ErrDetached
	}

	tx, err := s.db.Begin()
	if err != nil {
		return types.Widget{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := scanWidget(tx.QueryRow(selectWidget+" WHERE id = ?", in.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Widget{}, fmt.Errorf("update widget %d: %w", in.ID, types.ErrNotFound)
	}
	if err != nil {
		return types.Widget{}, fmt.Errorf("update widget %d: %w", in.ID, err)
	}

	now := s.now()
	w := cur
	in.Apply(&w)

	z, high, err := s.placeTx(tx, w.ID, in.Z, now)
	if err != nil {
		return types.Widget{}, fmt.Errorf("update widget %d: %w", w.ID, err)
	}
	w.Z = z
	modifiedAt := advance(cur.ModifiedAt.UnixNano(), now.UnixNano())

	if _, err := tx.Exec(
		"UPDATE widgets SET x = ?, y = ?, z = ?, width = ?, height = ?, modified_at = ? WHERE id = ?",
		w.X, w.Y, w.Z, w.Width, w.Height, modifiedAt, w.ID,
	); err != nil {
		return types.Widget{}, fmt.Errorf("update widget %d: %w", w.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return types.Widget{}, fmt.Errorf("commit widget: %w", err)
	}

	s.highWater = max(high, w.Z)
	w.ModifiedAt = time.Unix(0, modifiedAt).UTC()
	return w, nil
}

// Delete removes a widget by ID without renumbering the rest.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return ErrDetached
	}

	res, err := s.db.Exec("DELETE FROM widgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete widget %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete widget %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete widget %d: %w", id, types.ErrNotFound)
	}
	return nil
}

// Clear deletes every widget and resets the ID counter and high-water mark.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return ErrDetached
	}

	if _, err := s.db.Exec("DELETE FROM widgets"); err != nil {
		return fmt.Errorf("clear widgets: %w", err)
	}
	s.lastID = 0
	s.highWater = 0
	return nil
}

// placeTx resolves the z value for widget id. It returns the chosen z and
// the high-water mark to install once the transaction commits. It returns
// types.ErrZOverflow before writing anything when the placement would need
// a z above math.MaxInt. The caller must hold s.mu for writing.
func (s *Store) placeTx(tx *sql.Tx, id int64, z *int, now time.Time) (int, int, error) {
	if z == nil {
		high := s.highWater
		if high == math.MaxInt {
			top, err := s.occupiedTx(tx, math.MaxInt, id)
			if err != nil {
				return 0, 0, err
			}
			if top {
				return 0, 0, types.ErrZOverflow
			}
			var maxZ sql.NullInt64
			if err := tx.QueryRow("SELECT MAX(z) FROM widgets WHERE id != ?", id).Scan(&maxZ); err != nil {
				return 0, 0, fmt.Errorf("read high-water mark: %w", err)
			}
			high = int(maxZ.Int64)
		}
		return high + 1, high, nil
	}

	taken, err := s.occupiedTx(tx, *z, id)
	if err != nil {
		return 0, 0, err
	}
	if !taken {
		return *z, s.highWater, nil
	}

	// A shift moves every widget at or above *z; only one at MaxInt overflows.
	top, err := s.occupiedTx(tx, math.MaxInt, id)
	if err != nil {
		return 0, 0, err
	}
	if top {
		return 0, 0, types.ErrZOverflow
	}

	// Single pass: every widget at or above z moves up by one.
	if _, err := tx.Exec(
		"UPDATE widgets SET z = z + 1, modified_at = MAX(modified_at + 1, ?) WHERE z >= ? AND id != ?",
		now.UnixNano(), *z, id,
	); err != nil {
		return 0, 0, fmt.Errorf("shift from z %d: %w", *z, err)
	}

	var high sql.NullInt64
	if err := tx.QueryRow("SELECT MAX(z) FROM widgets WHERE id != ?", id).Scan(&high); err != nil {
		return 0, 0, fmt.Errorf("read high-water mark: %w", err)
	}
	return *z, max(s.highWater, int(high.Int64)), nil
}

// occupiedTx reports whether a widget other than id holds z.
func (s *Store) occupiedTx(tx *sql.Tx, z int, id int64) (bool, error) {
	var n int
	if err := tx.QueryRow("SELECT COUNT(*) FROM widgets WHERE z = ? AND id != ?", z, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check z %d: %w", z, err)
	}
	return n > 0, nil
}

// advance returns now, or prev+1 when the clock has not moved past prev.
func advance(prev, now int64) int64 {
	if now > prev {
		return now
	}
	return prev + 1
}
