package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/service"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

func logInput(memberID int64, status types.ValidationStatus, et types.EntranceType, at time.Time) types.EntranceLogInput {
	return types.EntranceLogInput{
		MemberID:          &memberID,
		ValidationStatus:  status,
		ValidationMessage: "m",
		Outcome:           types.OutcomeActive,
		EntranceType:      et,
		Timestamp:         at,
	}
}

// ── Write path ───────────────────────────────────────────────────────────────

func TestAuditLogger_Record_Durable(t *testing.T) {
	durable := newFlakyLogStore(false)
	fallback := memory.NewEntranceLogStore(0)
	audit := service.NewAuditLogger(durable, fallback, nil)

	audit.Record(context.Background(), logInput(7, types.ValidationValid, types.EntranceQRScan, time.Time{}))

	if n := countLogs(t, durable); n != 1 {
		t.Fatalf("expected 1 durable log, got %d", n)
	}
	if fallback.Len() != 0 {
		t.Fatalf("expected empty fallback, got %d", fallback.Len())
	}
}

func TestAuditLogger_Record_FallbackAssignsPendingIDs(t *testing.T) {
	fallback := memory.NewEntranceLogStore(0)
	audit := service.NewAuditLogger(newFlakyLogStore(true), fallback, nil)

	a := audit.Record(context.Background(), logInput(7, types.ValidationValid, types.EntranceQRScan, time.Time{}))
	b := audit.Record(context.Background(), logInput(8, types.ValidationValid, types.EntranceQRScan, time.Time{}))

	if a.ID != -1 || b.ID != -2 {
		t.Fatalf("expected ids -1,-2 got %d,%d", a.ID, b.ID)
	}
	if !a.Pending || !b.Pending {
		t.Error("expected fallback records to be marked pending")
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if fallback.Len() != 2 {
		t.Fatalf("expected 2 fallback records, got %d", fallback.Len())
	}
}

func TestAuditLogger_Record_CancelledRequestStillWritesDurably(t *testing.T) {
	durable := newFlakyLogStore(false)
	fallback := memory.NewEntranceLogStore(0)
	audit := service.NewAuditLogger(durable, fallback, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := audit.Record(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, time.Time{}))

	if rec.Pending || rec.ID <= 0 {
		t.Fatalf("expected a durable record, got %+v", rec)
	}
	if n := countLogs(t, durable); n != 1 {
		t.Fatalf("expected 1 durable log, got %d", n)
	}
	if fallback.Len() != 0 {
		t.Fatalf("record must not also be parked in the fallback, got %d", fallback.Len())
	}
}

func TestAuditLogger_FallbackOnlyMode(t *testing.T) {
	audit := service.NewAuditLogger(nil, nil, nil)

	audit.Record(context.Background(), logInput(7, types.ValidationValid, types.EntranceManual, time.Time{}))

	got, err := audit.ListByType(context.Background(), types.EntranceManual)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

// ── Read path ────────────────────────────────────────────────────────────────

func TestAuditLogger_ReadsFallBackSymmetrically(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(true)
	audit := service.NewAuditLogger(durable, nil, nil)

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	audit.Record(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, base))
	audit.Record(ctx, logInput(9, types.ValidationInvalid, types.EntranceManual, base.Add(time.Minute)))
	audit.Record(ctx, logInput(7, types.ValidationExpiringSoon, types.EntranceManual, base.Add(2*time.Minute)))

	byMember, _ := audit.ListByMember(ctx, 7)
	if len(byMember) != 2 {
		t.Errorf("ListByMember: expected 2, got %d", len(byMember))
	}
	byStatus, _ := audit.ListByStatus(ctx, types.ValidationInvalid)
	if len(byStatus) != 1 {
		t.Errorf("ListByStatus: expected 1, got %d", len(byStatus))
	}
	byType, _ := audit.ListByType(ctx, types.EntranceManual)
	if len(byType) != 2 {
		t.Errorf("ListByType: expected 2, got %d", len(byType))
	}
	recent, _ := audit.ListRecent(ctx, 2)
	if len(recent) != 2 || recent[0].ValidationStatus != types.ValidationExpiringSoon {
		t.Errorf("ListRecent: unexpected %+v", recent)
	}
}

func TestAuditLogger_MergesPendingIntoDurableReads(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(false)
	audit := service.NewAuditLogger(durable, nil, nil)

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	audit.Record(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, base))

	// Writes fail for a moment, then reads recover before any flush.
	durable.setDown(true)
	audit.Record(ctx, logInput(8, types.ValidationValid, types.EntranceQRScan, base.Add(time.Minute)))
	durable.setDown(false)

	recent, err := audit.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if *recent[0].MemberID != 8 || *recent[1].MemberID != 7 {
		t.Errorf("expected newest-first merge, got %d then %d", *recent[0].MemberID, *recent[1].MemberID)
	}

	limited, _ := audit.ListRecent(ctx, 1)
	if len(limited) != 1 || *limited[0].MemberID != 8 {
		t.Errorf("limit not applied after merge: %+v", limited)
	}
}

func TestAuditLogger_MergedReadHasUniqueIDs(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(false)
	audit := service.NewAuditLogger(durable, nil, nil)

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	// Both stores number from 1, so the first record of each would share an id.
	audit.Record(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, base))
	audit.Record(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, base.Add(time.Minute)))
	durable.setDown(true)
	audit.Record(ctx, logInput(8, types.ValidationValid, types.EntranceQRScan, base.Add(2*time.Minute)))
	audit.Record(ctx, logInput(8, types.ValidationValid, types.EntranceQRScan, base.Add(3*time.Minute)))
	durable.setDown(false)

	recent, err := audit.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recent))
	}
	ids := make(map[int64]bool)
	for _, l := range recent {
		if ids[l.ID] {
			t.Fatalf("duplicate id %d in merged read: %+v", l.ID, recent)
		}
		ids[l.ID] = true
		if l.Pending != (l.ID < 0) {
			t.Errorf("pending flag and id sign disagree: %+v", l)
		}
	}
}

func TestAuditLogger_FlushedRecordNotListedTwice(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(true)
	fallback := memory.NewEntranceLogStore(0)
	audit := service.NewAuditLogger(durable, fallback, nil)

	in := logInput(7, types.ValidationValid, types.EntranceQRScan, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC))
	in.ScanID = "scan-1"
	audit.Record(ctx, in)
	durable.setDown(false)

	// The durable copy lands before the fallback copy is removed.
	if _, err := durable.Append(ctx, in); err != nil {
		t.Fatalf("Append: %v", err)
	}

	recent, err := audit.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(recent), recent)
	}
	if recent[0].Pending || recent[0].ID != 1 {
		t.Errorf("expected the durable copy, got %+v", recent[0])
	}
}
