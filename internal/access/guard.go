// Package access gates requests against the permission ledger.
package access

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ledger.go -package=mocks monsurface-assistant/internal/access Ledger

import (
	"context"
	"errors"
	"time"

	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/metrics"
	"monsurface-assistant/internal/storage"
)

// DefaultTimeout bounds each ledger call.
const DefaultTimeout = 5 * time.Second

// Ledger is the permission store as seen by the guard.
type Ledger interface {
	// Lookup returns the requester's record, or storage.ErrNotFound.
	Lookup(ctx context.Context, requesterID string) (storage.AccessRecord, error)
	// Touch sets the usage count and last access time of an existing record.
	Touch(ctx context.Context, requesterID string, usageCount int, lastAccess time.Time) error
	// Append adds a record for a requester not yet in the ledger.
	Append(ctx context.Context, rec storage.AccessRecord) error
}

// Guard decides whether a requester may query the catalog and keeps the
// ledger's usage bookkeeping.
type Guard struct {
	ledger  Ledger
	now     func() time.Time
	loc     *time.Location
	timeout time.Duration
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLocation sets the timezone last-access stamps are recorded in.
func WithLocation(loc *time.Location) GuardOption {
	return func(g *Guard) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithTimeout bounds each ledger call. Non-positive values are ignored.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGuard creates a Guard over ledger.
func NewGuard(ledger Ledger, opts ...GuardOption) *Guard {
	g := &Guard{
		ledger:  ledger,
		now:     time.Now,
		loc:     Taipei(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reports whether requesterID may query. An authorized requester has
// its usage count incremented and last access stamped on every call. An
// unknown requester is registered as unauthorized. Ledger failures deny.
func (g *Guard) Check(ctx context.Context, requesterID string) bool {
	logger := contextutil.LoggerFromContext(ctx).With("requester_id", requesterID)
	if requesterID == "" {
		logger.WarnContext(ctx, "access check without requester id")
		return false
	}

	now := g.now().In(g.loc)

	rec, err := g.lookup(ctx, requesterID)
	if errors.Is(err, storage.ErrNotFound) {
		err = g.append(ctx, storage.AccessRecord{
			RequesterID: requesterID,
			Authorized:  false,
			UsageCount:  0,
			LastAccess:  now,
		})
		if err != nil {
			metrics.RecordLedgerError("append")
			logger.ErrorContext(ctx, "failed to register requester", "error", err)
			return false
		}
		logger.InfoContext(ctx, "registered new requester without access")
		return false
	}
	if err != nil {
		metrics.RecordLedgerError("lookup")
		logger.ErrorContext(ctx, "failed to read permission ledger", "error", err)
		return false
	}

	if !rec.Authorized {
		logger.InfoContext(ctx, "requester not authorized")
		return false
	}

	// Read-then-write; concurrent requests from one requester may under-count.
	if err := g.touch(ctx, requesterID, rec.UsageCount+1, now); err != nil {
		metrics.RecordLedgerError("touch")
		logger.ErrorContext(ctx, "failed to update usage", "error", err)
		return false
	}

	logger.DebugContext(ctx, "access granted", "usage_count", rec.UsageCount+1)
	return true
}

func (g *Guard) lookup(ctx context.Context, requesterID string) (storage.AccessRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.ledger.Lookup(ctx, requesterID)
}

func (g *Guard) touch(ctx context.Context, requesterID string, usageCount int, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.ledger.Touch(ctx, requesterID, usageCount, at)
}

func (g *Guard) append(ctx context.Context, rec storage.AccessRecord) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.ledger.Append(ctx, rec)
}

// Taipei returns the Asia/Taipei location, or a fixed UTC+8 zone when the
// system has no timezone database.
func Taipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}
