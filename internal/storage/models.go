package storage

import "time"

const (
	// SummaryTable is the derived first-pass index over all family tables.
	SummaryTable = "catalog_summary"
	// InventoryTable lists every family table and its resolved key columns.
	InventoryTable = "catalog_tables"
)

// SummaryRecord is one derived row of the summary table.
type SummaryRecord struct {
	Model       string
	Brand       string
	Color       string
	Blurb       string
	SourceTable string
}

// SummaryRef points from a summary row back to its owning family table.
type SummaryRef struct {
	Model       string
	SourceTable string
}

// TableInventory records the identifiers the builder resolved for one family table.
// Query code only ever interpolates identifiers taken from here.
type TableInventory struct {
	Name        string
	BrandColumn string // empty when unresolved
	ModelColumn string // empty when unresolved
	ColorColumn string // empty when unresolved
	RowCount    int
}

// CatalogRow is one full record read back from a family table.
// Columns and Values are parallel and keep the table's column order.
type CatalogRow struct {
	Table   string
	Columns []string
	Values  []string
}

// Get returns the value of the named column, or "" when absent.
func (r CatalogRow) Get(column string) string {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i]
		}
	}
	return ""
}

// AccessRecord is one requester's row in the permission ledger.
type AccessRecord struct {
	RequesterID string
	Authorized  bool
	UsageCount  int
	LastAccess  time.Time
}

// CatalogStats summarizes a loaded catalog.
type CatalogStats struct {
	Tables      int
	SummaryRows int
}
