package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_catalog_store.go -package=mocks monsurface-assistant/internal/storage CatalogStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrCatalogNotLoaded is returned by a Catalog that has no snapshot open.
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
	// ErrUnknownTable is returned when a table is absent from the inventory.
	ErrUnknownTable = errors.New("unknown catalog table")
)

// CatalogStore defines the read operations the resolver needs.
type CatalogStore interface {
	// Search returns distinct summary references matching the filter, ordered by
// their first appearance in the summary.
	Search(ctx context.Context, filter SummaryFilter) ([]SummaryRef, error)
	// Table returns the inventory entry for a family table.
	// Returns ErrUnknownTable if the table is not in the inventory.
	Table(ctx context.Context, name string) (TableInventory, error)
	// FetchByModel returns every row of table whose model column equals model.
	FetchByModel(ctx context.Context, table, model string) ([]CatalogRow, error)
}

// Catalog is a handle to the on-disk catalog snapshot.
// A zero or freshly created Catalog is "not loaded"; Load opens a snapshot
// and may be called again to swap in a rebuilt file.
type Catalog struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewCatalog returns a handle in the not-loaded state.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// OpenCatalog creates a handle and loads the snapshot at path.
func OpenCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if err := c.Load(path); err != nil {
		return nil, err
	}
	return c, nil
}

// Load opens the snapshot at path read-only and replaces any previous one.
// In-flight queries against the previous snapshot finish first.
func (c *Catalog) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("catalog file: %w", err)
	}

	db, err := NewReadOnly(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}

	var count int
	err = db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?)",
		SummaryTable, InventoryTable,
	).Scan(&count)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if count != 2 {
		_ = db.Close()
		return fmt.Errorf("%s is not a catalog snapshot", path)
	}

	c.mu.Lock()
	old := c.db
	c.db = db
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Loaded reports whether a snapshot is open.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db != nil
}

// Close releases the snapshot and returns the handle to the not-loaded state.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Search returns distinct summary references matching the filter, ordered by
// their first appearance in the summary.
// An empty filter matches nothing and issues no query.
func (c *Catalog) Search(ctx context.Context, filter SummaryFilter) ([]SummaryRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrCatalogNotLoaded
	}
	if filter.Empty() {
		return nil, nil
	}

	query, args := SummaryQuery(filter)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var refs []SummaryRef
	for rows.Next() {
		var ref SummaryRef
		if err := rows.Scan(&ref.Model, &ref.SourceTable); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return refs, nil
}

// Table returns the inventory entry for a family table.
func (c *Catalog) Table(ctx context.Context, name string) (TableInventory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return TableInventory{}, ErrCatalogNotLoaded
	}
	return tableInfo(ctx, c.db, name)
}

// Tables returns the full inventory in build order.
func (c *Catalog) Tables(ctx context.Context) ([]TableInventory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrCatalogNotLoaded
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT table_name, brand_column, model_column, color_column, row_count FROM %s ORDER BY rowid",
		QuoteIdent(InventoryTable),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tables []TableInventory
	for rows.Next() {
		var t TableInventory
		if err := rows.Scan(&t.Name, &t.BrandColumn, &t.ModelColumn, &t.ColorColumn, &t.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tables, nil
}

// FetchByModel returns every row of table whose model column equals model.
// Purely numeric models also match when leading zeros were lost on import.
func (c *Catalog) FetchByModel(ctx context.Context, table, model string) ([]CatalogRow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrCatalogNotLoaded
	}

	inv, err := tableInfo(ctx, c.db, table)
	if err != nil {
		return nil, err
	}
	if inv.ModelColumn == "" {
		return nil, fmt.Errorf("table %s has no model column: %w", table, ErrUnknownTable)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY rowid",
		QuoteIdent(inv.Name), QuoteIdent(inv.ModelColumn))
	found, err := fetchRows(ctx, c.db, inv.Name, query, model)
	if err != nil {
		return nil, err
	}

	if len(found) == 0 && isDigits(model) {
		query = fmt.Sprintf("SELECT * FROM %s WHERE ltrim(%s, '0') = ? ORDER BY rowid",
			QuoteIdent(inv.Name), QuoteIdent(inv.ModelColumn))
		found, err = fetchRows(ctx, c.db, inv.Name, query, strings.TrimLeft(model, "0"))
		if err != nil {
			return nil, err
		}
	}

	return found, nil
}

// Stats counts inventory tables and summary rows.
func (c *Catalog) Stats(ctx context.Context) (CatalogStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return CatalogStats{}, ErrCatalogNotLoaded
	}

	var stats CatalogStats
	err := c.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT (SELECT COUNT(*) FROM %s), (SELECT COUNT(*) FROM %s)",
		QuoteIdent(InventoryTable), QuoteIdent(SummaryTable),
	)).Scan(&stats.Tables, &stats.SummaryRows)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return stats, nil
}

func tableInfo(ctx context.Context, db *sql.DB, name string) (TableInventory, error) {
	var t TableInventory
	err := db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT table_name, brand_column, model_column, color_column, row_count FROM %s WHERE table_name = ?",
		QuoteIdent(InventoryTable),
	), name).Scan(&t.Name, &t.BrandColumn, &t.ModelColumn, &t.ColorColumn, &t.RowCount)
	if err == sql.ErrNoRows {
		return TableInventory{}, fmt.Errorf("%q: %w", name, ErrUnknownTable)
	}
	if err != nil {
		return TableInventory{}, fmt.Errorf("failed to query inventory: %w", err)
	}
	return t, nil
}

func fetchRows(ctx context.Context, db *sql.DB, table, query string, args ...any) ([]CatalogRow, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var result []CatalogRow
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}

		values := make([]string, len(columns))
		for i, v := range raw {
			values[i] = v.String
		}
		result = append(result, CatalogRow{
			Table:   table,
			Columns: append([]string(nil), columns...),
			Values:  values,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
