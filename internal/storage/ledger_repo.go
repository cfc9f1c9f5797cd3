package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LedgerRepo is a SQLite-backed permission ledger.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo creates a new LedgerRepo. Run MigrateLedger first.
func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Lookup returns the record for requesterID, or ErrNotFound.
func (r *LedgerRepo) Lookup(ctx context.Context, requesterID string) (AccessRecord, error) {
	var (
		rec        AccessRecord
		authorized int
		lastAccess string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT requester_id, authorized, usage_count, last_access FROM access_records WHERE requester_id = ?",
		requesterID,
	).Scan(&rec.RequesterID, &authorized, &rec.UsageCount, &lastAccess)
	if err == sql.ErrNoRows {
		return AccessRecord{}, ErrNotFound
	}
	if err != nil {
		return AccessRecord{}, fmt.Errorf("failed to query access record: %w", err)
	}

	rec.Authorized = authorized != 0
	if lastAccess != "" {
		rec.LastAccess, err = time.Parse(time.RFC3339, lastAccess)
		if err != nil {
			return AccessRecord{}, fmt.Errorf("malformed last_access %q: %w", lastAccess, err)
		}
	}
	return rec, nil
}

// Touch sets the usage count and last access time of an existing record.
func (r *LedgerRepo) Touch(ctx context.Context, requesterID string, usageCount int, lastAccess time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE access_records SET usage_count = ?, last_access = ? WHERE requester_id = ?",
		usageCount, lastAccess.Format(time.RFC3339), requesterID,
	)
	if err != nil {
		return fmt.Errorf("failed to update access record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update access record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Append inserts a new record. It fails if the requester already exists.
func (r *LedgerRepo) Append(ctx context.Context, rec AccessRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO access_records (requester_id, authorized, usage_count, last_access) VALUES (?, ?, ?, ?)",
		rec.RequesterID, boolToInt(rec.Authorized), rec.UsageCount, rec.LastAccess.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert access record: %w", err)
	}
	return nil
}

// SetAuthorized grants or revokes access, creating the record if needed.
// This is the administrator's operation; the query path never calls it.
func (r *LedgerRepo) SetAuthorized(ctx context.Context, requesterID string, authorized bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_records (requester_id, authorized) VALUES (?, ?)
		ON CONFLICT(requester_id) DO UPDATE SET authorized = excluded.authorized`,
		requesterID, boolToInt(authorized),
	)
	if err != nil {
		return fmt.Errorf("failed to set authorization: %w", err)
	}
	return nil
}

// List returns all records ordered by requester id.
func (r *LedgerRepo) List(ctx context.Context) ([]AccessRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT requester_id, authorized, usage_count, last_access FROM access_records ORDER BY requester_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query access records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []AccessRecord
	for rows.Next() {
		var (
			rec        AccessRecord
			authorized int
			lastAccess string
		)
		if err := rows.Scan(&rec.RequesterID, &authorized, &rec.UsageCount, &lastAccess); err != nil {
			return nil, fmt.Errorf("failed to scan access record: %w", err)
		}
		rec.Authorized = authorized != 0
		if lastAccess != "" {
			// Unparseable timestamps are listed as zero rather than hiding the row.
			rec.LastAccess, _ = time.Parse(time.RFC3339, lastAccess)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
