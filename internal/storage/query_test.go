package storage

import (
	"reflect"
	"testing"
)

func TestSummaryQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   SummaryFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:   "single keyword is an OR across searchable fields",
			filter: SummaryFilter{Keywords: []string{"KD"}, Limit: 5},
			wantSQL: `SELECT model, source_table FROM "catalog_summary" WHERE ` +
				`("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\')` +
				` GROUP BY model, source_table ORDER BY MIN(rowid) LIMIT ?`,
			wantArgs: []any{"%KD%", "%KD%", "%KD%", 5},
		},
		{
			name: "brand and keywords are intersected",
			filter: SummaryFilter{
				BrandTerms: []string{"富美家", "Formica"},
				Keywords:   []string{"黑", "KC"},
				Limit:      5,
			},
			wantSQL: `SELECT model, source_table FROM "catalog_summary" WHERE ` +
				`("brand" LIKE ? ESCAPE '\' OR "brand" LIKE ? ESCAPE '\')` +
				` AND ("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\')` +
				` AND ("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\')` +
				` GROUP BY model, source_table ORDER BY MIN(rowid) LIMIT ?`,
			wantArgs: []any{
				"%富美家%", "%Formica%",
				"%黑%", "%黑%", "%黑%",
				"%KC%", "%KC%", "%KC%",
				5,
			},
		},
		{
			name:     "brand only",
			filter:   SummaryFilter{BrandTerms: []string{"LAVI"}},
			wantSQL:  `SELECT model, source_table FROM "catalog_summary" WHERE ("brand" LIKE ? ESCAPE '\') GROUP BY model, source_table ORDER BY MIN(rowid)`,
			wantArgs: []any{"%LAVI%"},
		},
		{
			name:   "zero-padded number also matches the unpadded model",
			filter: SummaryFilter{Keywords: []string{"00123"}, Limit: 5},
			wantSQL: `SELECT model, source_table FROM "catalog_summary" WHERE ` +
				`("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\'` +
				` OR ltrim("model", '0') = ?)` +
				` GROUP BY model, source_table ORDER BY MIN(rowid) LIMIT ?`,
			wantArgs: []any{"%00123%", "%00123%", "%00123%", "123", 5},
		},
		{
			name:     "unpadded and all-zero numbers stay LIKE only",
			filter:   SummaryFilter{Keywords: []string{"123", "000"}},
			wantSQL:  `SELECT model, source_table FROM "catalog_summary" WHERE ("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\') AND ("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\') GROUP BY model, source_table ORDER BY MIN(rowid)`,
			wantArgs: []any{"%123%", "%123%", "%123%", "%000%", "%000%", "%000%"},
		},
		{
			name:     "wildcards in terms are escaped",
			filter:   SummaryFilter{Keywords: []string{"50%_off"}, Limit: 1},
			wantSQL:  `SELECT model, source_table FROM "catalog_summary" WHERE ("blurb" LIKE ? ESCAPE '\' OR "model" LIKE ? ESCAPE '\' OR "color" LIKE ? ESCAPE '\') GROUP BY model, source_table ORDER BY MIN(rowid) LIMIT ?`,
			wantArgs: []any{`%50\%\_off%`, `%50\%\_off%`, `%50\%\_off%`, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := SummaryQuery(tt.filter)
			if gotSQL != tt.wantSQL {
				t.Errorf("SummaryQuery() sql =\n%s\nwant\n%s", gotSQL, tt.wantSQL)
			}
			if !reflect.DeepEqual(gotArgs, tt.wantArgs) {
				t.Errorf("SummaryQuery() args = %v, want %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "型號", want: `"型號"`},
		{in: `bad"; DROP TABLE x; --`, want: `"bad""; DROP TABLE x; --"`},
		{in: "", want: `""`},
	}
	for _, tt := range tests {
		if got := QuoteIdent(tt.in); got != tt.want {
			t.Errorf("QuoteIdent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestIsReservedTable(t *testing.T) {
	tests := map[string]bool{
		"catalog_summary": true,
		"CATALOG_TABLES":  true,
		"sqlite_master":   true,
		"富美家":             false,
		"summary":         false,
	}
	for name, want := range tests {
		if got := IsReservedTable(name); got != want {
			t.Errorf("IsReservedTable(%q) = %v, want %v", name, got, want)
		}
	}
}
