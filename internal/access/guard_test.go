package access_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"monsurface-assistant/internal/access"
	"monsurface-assistant/internal/access/mocks"
	"monsurface-assistant/internal/storage"
)

var fixedNow = time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)

func sameInstant(want time.Time) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		got, ok := x.(time.Time)
		return ok && got.Equal(want) && got.Location().String() == want.Location().String()
	})
}

func newGuard(ledger access.Ledger, loc *time.Location) *access.Guard {
	return access.NewGuard(ledger,
		access.WithClock(func() time.Time { return fixedNow }),
		access.WithLocation(loc),
		access.WithTimeout(time.Second),
	)
}

func TestGuard_Check(t *testing.T) {
	loc := access.Taipei()
	stamped := fixedNow.In(loc)

	tests := []struct {
		name        string
		requesterID string
		setupMock   func(*mocks.MockLedger)
		want        bool
	}{
		{
			name:        "authorized requester is counted",
			requesterID: "U1",
			setupMock: func(m *mocks.MockLedger) {
				m.EXPECT().Lookup(gomock.Any(), "U1").Return(storage.AccessRecord{
					RequesterID: "U1", Authorized: true, UsageCount: 3,
				}, nil)
				m.EXPECT().Touch(gomock.Any(), "U1", 4, sameInstant(stamped)).Return(nil)
			},
			want: true,
		},
		{
			name:        "unauthorized requester is not counted",
			requesterID: "U2",
			setupMock: func(m *mocks.MockLedger) {
				m.EXPECT().Lookup(gomock.Any(), "U2").Return(storage.AccessRecord{
					RequesterID: "U2", Authorized: false, UsageCount: 9,
				}, nil)
			},
			want: false,
		},
		{
			name:        "unknown requester is registered without access",
			requesterID: "U3",
			setupMock: func(m *mocks.MockLedger) {
				m.EXPECT().Lookup(gomock.Any(), "U3").Return(storage.AccessRecord{}, storage.ErrNotFound)
				m.EXPECT().Append(gomock.Any(), gomock.Cond(func(x any) bool {
					rec, ok := x.(storage.AccessRecord)
					return ok && rec.RequesterID == "U3" && !rec.Authorized &&
						rec.UsageCount == 0 && rec.LastAccess.Equal(stamped)
				})).Return(nil).Times(1)
			},
			want: false,
		},
		{
			name:        "registration failure denies",
			requesterID: "U4",
			setupMock: func(m *mocks.MockLedger) {
				m.EXPECT().Lookup(gomock.Any(), "U4").Return(storage.AccessRecord{}, storage.ErrNotFound)
				m.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded"))
			},
			want: false,
		},
		{
			name:        "lookup failure denies",
			requesterID: "U5",
			setupMock: func(m *mocks.MockLedger) {
				m.EXPECT().Lookup(gomock.Any(), "U5").Return(storage.AccessRecord{}, errors.New("network unreachable"))
			},
			want: false,
		},
		{
			name:        "usage update failure denies",
			requesterID: "U6",
			setupMock: func(m *mocks.MockLedger) {
				m.EXPECT().Lookup(gomock.Any(), "U6").Return(storage.AccessRecord{RequesterID: "U6", Authorized: true}, nil)
				m.EXPECT().Touch(gomock.Any(), "U6", 1, gomock.Any()).Return(errors.New("permission denied"))
			},
			want: false,
		},
		{
			name:        "empty requester id denies without ledger calls",
			requesterID: "",
			setupMock:   func(m *mocks.MockLedger) {},
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedger(ctrl)
			tt.setupMock(ledger)

			got := newGuard(ledger, loc).Check(context.Background(), tt.requesterID)
			if got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.requesterID, got, tt.want)
			}
		})
	}
}

func TestGuard_LedgerCallsHaveDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	ledger.EXPECT().Lookup(gomock.Any(), "U1").DoAndReturn(
		func(ctx context.Context, _ string) (storage.AccessRecord, error) {
			deadline, ok := ctx.Deadline()
			if !ok {
				t.Error("Lookup() called without a deadline")
			} else if time.Until(deadline) > time.Second {
				t.Errorf("Lookup() deadline too far: %v", time.Until(deadline))
			}
			return storage.AccessRecord{}, context.DeadlineExceeded
		})

	if newGuard(ledger, time.UTC).Check(context.Background(), "U1") {
		t.Error("Check() = true after ledger timeout, want false")
	}
}

func TestGuard_SQLiteBookkeeping(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.MigrateLedger(db); err != nil {
		t.Fatalf("MigrateLedger() error = %v", err)
	}

	ctx := context.Background()
	repo := storage.NewLedgerRepo(db)
	guard := newGuard(repo, access.Taipei())

	if guard.Check(ctx, "U1") {
		t.Fatal("first contact should be denied")
	}
	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].Authorized || records[0].UsageCount != 0 {
		t.Fatalf("after first contact records = %+v, want one unauthorized row", records)
	}

	if guard.Check(ctx, "U1") {
		t.Fatal("second contact should still be denied")
	}
	if records, _ = repo.List(ctx); len(records) != 1 {
		t.Fatalf("repeat contact added rows: %+v", records)
	}

	if err := repo.SetAuthorized(ctx, "U1", true); err != nil {
		t.Fatalf("SetAuthorized() error = %v", err)
	}
	for i := 1; i <= 3; i++ {
		if !guard.Check(ctx, "U1") {
			t.Fatalf("Check() #%d = false, want true", i)
		}
		rec, err := repo.Lookup(ctx, "U1")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if rec.UsageCount != i {
			t.Errorf("usage_count after %d checks = %d", i, rec.UsageCount)
		}
		if !rec.LastAccess.Equal(fixedNow) {
			t.Errorf("last_access = %v, want %v", rec.LastAccess, fixedNow)
		}
	}
}
