// Package catalog builds catalog snapshots from spreadsheet exports and
// resolves search keywords into full catalog records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monsurface-assistant/internal/brands"
	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/metrics"
	"monsurface-assistant/internal/storage"
)

// DefaultLimit is the most summary references a lookup may return.
const DefaultLimit = 5

// Field is one named attribute of a catalog record.
type Field struct {
	Name  string
	Value string
}

// Record is a hydrated catalog row tagged with its source table.
type Record struct {
	Table  string
	Brand  string
	Model  string
	Color  string
	Fields []Field
}

// Value returns the named field, or "" when the record has no such field.
func (r Record) Value(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Resolver runs the two-stage lookup: a brand-aware intersective filter over
// the summary table, then hydration of each surviving reference.
type Resolver struct {
	store  storage.CatalogStore
	brands *brands.Table
	limit  int
}

// NewResolver creates a Resolver. A limit outside 1..DefaultLimit uses
// DefaultLimit.
func NewResolver(store storage.CatalogStore, table *brands.Table, limit int) *Resolver {
	if table == nil {
		table = brands.Default()
	}
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return &Resolver{
		store:  store,
		brands: table,
		limit:  limit,
	}
}

// Plan turns keywords into a stage-one filter. The first keyword naming a
// known brand becomes a hard filter on every spelling of that brand and is
// removed from the keyword groups; each remaining keyword must match on its own.
func (r *Resolver) Plan(keywords []string) storage.SummaryFilter {
	terms := cleanKeywords(keywords)
	filter := storage.SummaryFilter{Limit: r.limit}

	if b, idx, ok := r.brands.Match(terms); ok {
		filter.BrandTerms = b.Terms()
		terms = append(terms[:idx:idx], terms[idx+1:]...)
	}
	filter.Keywords = terms
	return filter
}

// Resolve returns the full records for keywords. An empty result is a normal
// outcome. Only a failed stage-one search is returned as an error; a reference
// that cannot be hydrated is logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, keywords []string) ([]Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	filter := r.Plan(keywords)
	if filter.Empty() {
		return nil, nil
	}

	refs, err := r.store.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("summary search failed: %w", err)
	}

	logger.DebugContext(ctx, "summary search complete",
		"brand_terms", filter.BrandTerms,
		"keywords", filter.Keywords,
		"refs", len(refs),
	)

	var records []Record
	for _, ref := range refs {
		hydrated, err := r.hydrate(ctx, ref)
		if err != nil {
			reason := "query_error"
			if errors.Is(err, storage.ErrUnknownTable) {
				reason = "unknown_table"
			}
			metrics.RecordHydrationSkip(reason)
			logger.WarnContext(ctx, "skipping summary reference",
				"model", ref.Model,
				"table", ref.SourceTable,
				"reason", reason,
				"error", err,
			)
			continue
		}
		if len(hydrated) == 0 {
			metrics.RecordHydrationSkip("stale")
			logger.WarnContext(ctx, "summary reference has no matching record",
				"model", ref.Model,
				"table", ref.SourceTable,
			)
			continue
		}
		records = append(records, hydrated...)
	}

	return records, nil
}

func (r *Resolver) hydrate(ctx context.Context, ref storage.SummaryRef) ([]Record, error) {
	inv, err := r.store.Table(ctx, ref.SourceTable)
	if err != nil {
		return nil, err
	}
	rows, err := r.store.FetchByModel(ctx, ref.SourceTable, ref.Model)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, newRecord(inv, row))
	}
	return records, nil
}

func newRecord(inv storage.TableInventory, row storage.CatalogRow) Record {
	rec := Record{
		Table:  inv.Name,
		Brand:  row.Get(inv.BrandColumn),
		Model:  row.Get(inv.ModelColumn),
		Color:  row.Get(inv.ColorColumn),
		Fields: make([]Field, len(row.Columns)),
	}
	for i, col := range row.Columns {
		rec.Fields[i] = Field{Name: col, Value: row.Values[i]}
	}
	return rec
}

func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
