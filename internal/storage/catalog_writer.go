package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CatalogWriter writes a catalog snapshot inside a single transaction.
// It is only used by the offline builder against a fresh database file.
type CatalogWriter struct {
	tx *sql.Tx
}

// NewCatalogWriter wraps tx.
func NewCatalogWriter(tx *sql.Tx) *CatalogWriter {
	return &CatalogWriter{tx: tx}
}

// CreateSchema creates the summary and inventory tables.
func (w *CatalogWriter) CreateSchema(ctx context.Context) error {
	schema := []string{
		fmt.Sprintf(`CREATE TABLE %s (
			model TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			blurb TEXT NOT NULL DEFAULT '',
			source_table TEXT NOT NULL DEFAULT ''
		);`, QuoteIdent(SummaryTable)),
		fmt.Sprintf(`CREATE TABLE %s (
			table_name TEXT PRIMARY KEY,
			brand_column TEXT NOT NULL DEFAULT '',
			model_column TEXT NOT NULL DEFAULT '',
			color_column TEXT NOT NULL DEFAULT '',
			row_count INTEGER NOT NULL DEFAULT 0
		);`, QuoteIdent(InventoryTable)),
	}

	for _, stmt := range schema {
		if _, err := w.tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}
	return nil
}

// CreateFamilyTable creates one product-family table with all-text columns.
func (w *CatalogWriter) CreateFamilyTable(ctx context.Context, name string, columns []string) error {
	if IsReservedTable(name) {
		return fmt.Errorf("table name %q is reserved", name)
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %q has no columns", name)
	}

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, QuoteIdent(col)+" TEXT NOT NULL DEFAULT ''")
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s);", QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := w.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

// InsertFamilyRows inserts rows into a family table. Each row must have
// exactly len(columns) values.
func (w *CatalogWriter) InsertFamilyRows(ctx context.Context, name string, columns []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdent(col)
		marks[i] = "?"
	}
	stmt, err := w.tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(name), strings.Join(quoted, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", name, err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("table %s row %d: got %d values, want %d", name, i, len(row), len(columns))
		}
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", name, err)
		}
	}
	return nil
}

// InsertSummary appends summary rows in the given order.
func (w *CatalogWriter) InsertSummary(ctx context.Context, records []SummaryRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := w.tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (model, brand, color, blurb, source_table) VALUES (?, ?, ?, ?, ?)",
		QuoteIdent(SummaryTable),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare summary insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Model, r.Brand, r.Color, r.Blurb, r.SourceTable); err != nil {
			return fmt.Errorf("failed to insert summary row: %w", err)
		}
	}
	return nil
}

// InsertInventory records one family table's resolved key columns.
func (w *CatalogWriter) InsertInventory(ctx context.Context, t TableInventory) error {
	_, err := w.tx.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (table_name, brand_column, model_column, color_column, row_count) VALUES (?, ?, ?, ?, ?)",
		QuoteIdent(InventoryTable),
	), t.Name, t.BrandColumn, t.ModelColumn, t.ColorColumn, t.RowCount)
	if err != nil {
		return fmt.Errorf("failed to insert inventory for %s: %w", t.Name, err)
	}
	return nil
}
