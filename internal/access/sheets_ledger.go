package access

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"monsurface-assistant/internal/storage"
)

const (
	// SheetTimeLayout is the last-access format written to the sheet.
	SheetTimeLayout = "2006-01-02 15:04:05"

	flagYes = "是"
	flagNo  = "否"
)

// SheetsLedger keeps the permission ledger in a Google Sheet. Row 1 is a
// header; columns A to D hold requester id, 是/否 authorization, usage count
// and last access time.
type SheetsLedger struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
	loc           *time.Location
}

// NewSheetsLedger connects to the spreadsheet. Authentication comes from
// opts, typically option.WithCredentialsFile.
func NewSheetsLedger(ctx context.Context, spreadsheetID, sheet string, loc *time.Location, opts ...option.ClientOption) (*SheetsLedger, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	if loc == nil {
		loc = Taipei()
	}

	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &SheetsLedger{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		loc:           loc,
	}, nil
}

// Lookup finds the first row whose column A equals requesterID.
func (l *SheetsLedger) Lookup(ctx context.Context, requesterID string) (storage.AccessRecord, error) {
	rows, err := l.read(ctx, "A:D")
	if err != nil {
		return storage.AccessRecord{}, err
	}

	n := findRow(rows, requesterID)
	if n < 0 {
		return storage.AccessRecord{}, storage.ErrNotFound
	}
	rec, err := l.parseRow(rows[n])
	if err != nil {
		return storage.AccessRecord{}, fmt.Errorf("malformed ledger row %d: %w", n+1, err)
	}
	return rec, nil
}

// Touch rewrites the usage count and last access cells of the requester's row.
func (l *SheetsLedger) Touch(ctx context.Context, requesterID string, usageCount int, lastAccess time.Time) error {
	rows, err := l.read(ctx, "A:A")
	if err != nil {
		return err
	}
	n := findRow(rows, requesterID)
	if n < 0 {
		return storage.ErrNotFound
	}

	row := n + 1
	cells := l.a1(fmt.Sprintf("C%d:D%d", row, row))
	_, err = l.values.Update(l.spreadsheetID, cells, &sheets.ValueRange{
		Values: [][]interface{}{{usageCount, lastAccess.In(l.loc).Format(SheetTimeLayout)}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update ledger row %d: %w", row, err)
	}
	return nil
}

// Append adds a row after the last used row.
func (l *SheetsLedger) Append(ctx context.Context, rec storage.AccessRecord) error {
	flag := flagNo
	if rec.Authorized {
		flag = flagYes
	}
	_, err := l.values.Append(l.spreadsheetID, l.a1("A:D"), &sheets.ValueRange{
		Values: [][]interface{}{{rec.RequesterID, flag, rec.UsageCount, rec.LastAccess.In(l.loc).Format(SheetTimeLayout)}},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	return nil
}

func (l *SheetsLedger) read(ctx context.Context, columns string) ([][]interface{}, error) {
	resp, err := l.values.Get(l.spreadsheetID, l.a1(columns)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return resp.Values, nil
}

// a1 qualifies a cell range with the quoted sheet name.
func (l *SheetsLedger) a1(cells string) string {
	return "'" + strings.ReplaceAll(l.sheet, "'", "''") + "'!" + cells
}

func (l *SheetsLedger) parseRow(row []interface{}) (storage.AccessRecord, error) {
	rec := storage.AccessRecord{
		RequesterID: cellString(row, 0),
		Authorized:  cellString(row, 1) == flagYes,
	}

	if s := cellString(row, 2); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return storage.AccessRecord{}, fmt.Errorf("usage count %q: %w", s, err)
		}
		rec.UsageCount = n
	}
	if s := cellString(row, 3); s != "" {
		ts, err := time.ParseInLocation(SheetTimeLayout, s, l.loc)
		if err != nil {
			return storage.AccessRecord{}, fmt.Errorf("last access %q: %w", s, err)
		}
		rec.LastAccess = ts
	}
	return rec, nil
}

// findRow returns the index of the first data row whose first cell is id.
// Index 0 is the header and is never matched.
func findRow(rows [][]interface{}, id string) int {
	for i := 1; i < len(rows); i++ {
		if cellString(rows[i], 0) == id {
			return i
		}
	}
	return -1
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
