package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/storage"
)

// ConceptHeaders lists, per summary concept, the header fragments that
// identify the column. Matching is case-insensitive substring containment.
type ConceptHeaders struct {
	Brand []string
	Model []string
	Color []string
}

// Concepts is the header vocabulary used by the spreadsheet exports.
var Concepts = ConceptHeaders{
	Brand: []string{"品牌", "brand"},
	Model: []string{"型號", "model"},
	Color: []string{"色名", "花色", "顏色", "color", "colour"},
}

// Sheet is one worksheet after normalization: a unique, non-empty header
// and rectangular rows with no nulls.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// TableReport describes one family table written by a build.
type TableReport struct {
	Name        string
	Columns     int
	Rows        int
	SummaryRows int
	// Summarized is false when a brand, model or color column could not be resolved.
	Summarized bool
}

// BuildReport summarizes a completed build.
type BuildReport struct {
	Path          string
	Tables        []TableReport
	SkippedSheets []string
	SummaryRows   int
}

// Builder converts a spreadsheet export into a catalog snapshot.
type Builder struct {
	concepts ConceptHeaders
}

// NewBuilder creates a Builder using the default Concepts.
func NewBuilder() *Builder {
	return &Builder{concepts: Concepts}
}

// Build reads every sheet of the workbook at xlsxPath and writes a complete
// snapshot to dbPath. The snapshot is assembled in dbPath+".building" and
// renamed into place, so readers only ever see a finished file.
func (b *Builder) Build(ctx context.Context, xlsxPath, dbPath string) (BuildReport, error) {
	sheets, err := ReadWorkbook(xlsxPath)
	if err != nil {
		return BuildReport{}, err
	}
	return b.BuildSheets(ctx, sheets, dbPath)
}

// BuildSheets writes already-normalized sheets to dbPath.
func (b *Builder) BuildSheets(ctx context.Context, sheets []Sheet, dbPath string) (BuildReport, error) {
	logger := contextutil.LoggerFromContext(ctx)
	for _, s := range sheets {
		if storage.IsReservedTable(s.Name) {
			return BuildReport{}, fmt.Errorf("sheet name %q collides with a reserved table", s.Name)
		}
	}

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return BuildReport{}, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	tmpPath := dbPath + ".building"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return BuildReport{}, fmt.Errorf("failed to clear previous build: %w", err)
	}

	report, err := b.write(ctx, logger, sheets, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return BuildReport{}, err
	}

	if err := os.Rename(tmpPath, dbPath); err != nil {
		_ = os.Remove(tmpPath)
		return BuildReport{}, fmt.Errorf("failed to move catalog into place: %w", err)
	}
	report.Path = dbPath

	logger.InfoContext(ctx, "catalog built",
		"path", dbPath,
		"tables", len(report.Tables),
		"summary_rows", report.SummaryRows,
	)
	return report, nil
}

func (b *Builder) write(ctx context.Context, logger *slog.Logger, sheets []Sheet, path string) (BuildReport, error) {
	db, err := storage.New(path)
	if err != nil {
		return BuildReport{}, fmt.Errorf("failed to create catalog database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return BuildReport{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	w := storage.NewCatalogWriter(tx)
	if err := w.CreateSchema(ctx); err != nil {
		return BuildReport{}, err
	}

	var (
		report  BuildReport
		summary []storage.SummaryRecord
	)
	for _, s := range sheets {
		if err := ctx.Err(); err != nil {
			return BuildReport{}, err
		}
		if len(s.Columns) == 0 {
			logger.WarnContext(ctx, "skipping empty sheet", "sheet", s.Name)
			report.SkippedSheets = append(report.SkippedSheets, s.Name)
			continue
		}

		if err := w.CreateFamilyTable(ctx, s.Name, s.Columns); err != nil {
			return BuildReport{}, err
		}
		if err := w.InsertFamilyRows(ctx, s.Name, s.Columns, s.Rows); err != nil {
			return BuildReport{}, err
		}

		inv := b.resolveColumns(s)
		if err := w.InsertInventory(ctx, inv); err != nil {
			return BuildReport{}, err
		}

		records := summarize(s, inv)
		summary = append(summary, records...)

		tr := TableReport{
			Name:        s.Name,
			Columns:     len(s.Columns),
			Rows:        len(s.Rows),
			SummaryRows: len(records),
			Summarized:  inv.BrandColumn != "" && inv.ModelColumn != "" && inv.ColorColumn != "",
		}
		if !tr.Summarized {
			logger.WarnContext(ctx, "table has no summary columns",
				"table", s.Name,
				"brand_column", inv.BrandColumn,
				"model_column", inv.ModelColumn,
				"color_column", inv.ColorColumn,
			)
		}
		report.Tables = append(report.Tables, tr)
	}

	if err := w.InsertSummary(ctx, summary); err != nil {
		return BuildReport{}, err
	}
	if err := tx.Commit(); err != nil {
		return BuildReport{}, fmt.Errorf("failed to commit catalog: %w", err)
	}
	report.SummaryRows = len(summary)
	return report, nil
}

// resolveColumns fuzzy-matches the sheet header against the concepts.
// The first matching column, in column order, wins.
func (b *Builder) resolveColumns(s Sheet) storage.TableInventory {
	return storage.TableInventory{
		Name:        s.Name,
		BrandColumn: matchColumn(s.Columns, b.concepts.Brand),
		ModelColumn: matchColumn(s.Columns, b.concepts.Model),
		ColorColumn: matchColumn(s.Columns, b.concepts.Color),
		RowCount:    len(s.Rows),
	}
}

func matchColumn(columns, fragments []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, f := range fragments {
			if strings.Contains(lower, strings.ToLower(f)) {
				return col
			}
		}
	}
	return ""
}

// summarize derives one summary record per row with a non-empty model.
// A table without all three concept columns contributes nothing.
func summarize(s Sheet, inv storage.TableInventory) []storage.SummaryRecord {
	if inv.BrandColumn == "" || inv.ModelColumn == "" || inv.ColorColumn == "" {
		return nil
	}
	brandIdx := indexOf(s.Columns, inv.BrandColumn)
	modelIdx := indexOf(s.Columns, inv.ModelColumn)
	colorIdx := indexOf(s.Columns, inv.ColorColumn)

	var out []storage.SummaryRecord
	for _, row := range s.Rows {
		model := row[modelIdx]
		if model == "" {
			continue
		}
		brand, color := row[brandIdx], row[colorIdx]
		out = append(out, storage.SummaryRecord{
			Model:       model,
			Brand:       brand,
			Color:       color,
			Blurb:       Blurb(brand, model, color, s.Name),
			SourceTable: s.Name,
		})
	}
	return out
}

// Blurb renders the free-text match target for one summary row.
func Blurb(brand, model, color, table string) string {
	return fmt.Sprintf("brand: %s, model: %s, color: %s, table: %s", brand, model, color, table)
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ReadWorkbook opens an .xlsx export and normalizes every sheet.
func ReadWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets = append(sheets, NormalizeSheet(name, rows))
	}
	return sheets, nil
}

// NormalizeSheet turns raw cell rows into a Sheet. The first non-blank row is
// the header; blank rows and columns with neither a header nor any value are
// dropped; unnamed columns become column_<n>; repeated header names get a
// numeric suffix; cells are trimmed and short rows padded with empty strings.
func NormalizeSheet(name string, raw [][]string) Sheet {
	s := Sheet{Name: strings.TrimSpace(name)}

	start := -1
	for i, row := range raw {
		if !isBlank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return s
	}
	header := raw[start]

	var data [][]string
	for _, row := range raw[start+1:] {
		if !isBlank(row) {
			data = append(data, row)
		}
	}

	width := len(header)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}

	var keep []int
	for j := 0; j < width; j++ {
		if strings.TrimSpace(cell(header, j)) != "" {
			keep = append(keep, j)
			continue
		}
		for _, row := range data {
			if strings.TrimSpace(cell(row, j)) != "" {
				keep = append(keep, j)
				break
			}
		}
	}

	used := make(map[string]bool)
	for _, j := range keep {
		col := strings.TrimSpace(cell(header, j))
		if col == "" {
			col = fmt.Sprintf("column_%d", j+1)
		}
		name := col
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", col, n)
		}
		used[strings.ToLower(name)] = true
		s.Columns = append(s.Columns, name)
	}

	for _, row := range data {
		out := make([]string, len(keep))
		for k, j := range keep {
			out[k] = strings.TrimSpace(cell(row, j))
		}
		s.Rows = append(s.Rows, out)
	}
	return s
}

func cell(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
