package sqlite

// Schema DDL. The z index is deliberately not UNIQUE: SQLite checks unique
// constraints row by row, so "SET z = z + 1" over a contiguous run would trip
// it mid-statement. Uniqueness is kept by the store's write lock instead.
const (
	createWidgets = `CREATE TABLE widgets (
    id INTEGER PRIMARY KEY,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    z INTEGER NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    modified_at INTEGER NOT NULL
);`

	createWidgetsZIndex = `CREATE INDEX idx_widgets_z ON widgets(z);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createWidgets,
	createWidgetsZIndex,
}
