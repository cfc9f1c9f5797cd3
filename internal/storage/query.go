package storage

import (
	"fmt"
	"strings"
)

// SummaryFilter describes a stage-one lookup against the summary table.
type SummaryFilter struct {
	// BrandTerms is the brand hard filter: a row must have a brand containing
	// at least one of these terms. Empty means no brand filter.
	BrandTerms []string
	// Keywords each form an independent group; a row must match every group
	// in at least one of blurb, model or color. An all-digit keyword also
	// matches a model that equals it once leading zeros are dropped.
	Keywords []string
	// Limit caps the number of references returned.
	Limit int
}

// Empty reports whether the filter has no conditions at all.
func (f SummaryFilter) Empty() bool {
	return len(f.BrandTerms) == 0 && len(f.Keywords) == 0
}

// searchableColumns are the summary fields a non-brand keyword may match.
var searchableColumns = []string{"blurb", "model", "color"}

// SummaryQuery composes the stage-one SQL for f. Identifiers are fixed;
// every caller-supplied term is bound as a parameter. Each (model,
// source_table) pair is returned once, so Limit counts distinct references.
func SummaryQuery(f SummaryFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if len(f.BrandTerms) > 0 {
		alts := make([]string, 0, len(f.BrandTerms))
		for _, term := range f.BrandTerms {
			alts = append(alts, likeClause("brand"))
			args = append(args, likePattern(term))
		}
		clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
	}

	for _, kw := range f.Keywords {
		alts := make([]string, 0, len(searchableColumns))
		for _, col := range searchableColumns {
			alts = append(alts, likeClause(col))
			args = append(args, likePattern(kw))
		}
		if trimmed := strings.TrimLeft(kw, "0"); isDigits(kw) && trimmed != kw && trimmed != "" {
			alts = append(alts, `ltrim("model", '0') = ?`)
			args = append(args, trimmed)
		}
		clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT model, source_table FROM %s", QuoteIdent(SummaryTable))
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	b.WriteString(" GROUP BY model, source_table ORDER BY MIN(rowid)")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	return b.String(), args
}

func likeClause(column string) string {
	return QuoteIdent(column) + ` LIKE ? ESCAPE '\'`
}

func likePattern(term string) string {
	return "%" + EscapeLike(term) + "%"
}

// EscapeLike escapes LIKE wildcards so term is matched literally.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// QuoteIdent quotes a SQLite identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// IsReservedTable reports whether name cannot be used for a family table.
func IsReservedTable(name string) bool {
	lower := strings.ToLower(name)
	return lower == SummaryTable || lower == InventoryTable || strings.HasPrefix(lower, "sqlite_")
}
