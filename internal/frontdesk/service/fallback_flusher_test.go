package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/service"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

func TestFallbackFlusher_DisabledWhenIntervalZero(t *testing.T) {
	f := service.NewFallbackFlusher(newFlakyLogStore(false), memory.NewEntranceLogStore(0), 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.Start(ctx)
	// Stop should return immediately.
	f.Stop()
}

func TestFallbackFlusher_Flush_PreservesOrderAndTimestamps(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(false)
	fallback := memory.NewEntranceLogStore(0)

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		if _, err := fallback.Append(ctx, logInput(i, types.ValidationValid, types.EntranceQRScan, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	f := service.NewFallbackFlusher(durable, fallback, time.Hour, nil)
	n, err := f.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 flushed, got %d", n)
	}
	if fallback.Len() != 0 {
		t.Fatalf("expected empty fallback, got %d", fallback.Len())
	}

	got, _ := durable.ListRecent(ctx, 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 durable records, got %d", len(got))
	}
	// Oldest was appended first, so it has the lowest durable id.
	if *got[2].MemberID != 1 || got[2].ID != 1 {
		t.Errorf("expected oldest record flushed first, got %+v", got[2])
	}
	if !got[0].Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("timestamp not preserved: %v", got[0].Timestamp)
	}
}

func TestFallbackFlusher_Flush_StopsOnDurableError(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(true)
	fallback := memory.NewEntranceLogStore(0)
	_, _ = fallback.Append(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, time.Time{}))

	f := service.NewFallbackFlusher(durable, fallback, time.Hour, nil)
	n, err := f.Flush(ctx)
	if err == nil {
		t.Fatal("expected error while durable store is down")
	}
	if n != 0 || fallback.Len() != 1 {
		t.Fatalf("record must stay in fallback: flushed=%d pending=%d", n, fallback.Len())
	}
}

func TestFallbackFlusher_LoopDrainsAfterRecovery(t *testing.T) {
	ctx := context.Background()
	durable := newFlakyLogStore(true)
	audit := service.NewAuditLogger(durable, nil, nil)
	audit.Record(ctx, logInput(7, types.ValidationValid, types.EntranceQRScan, time.Time{}))

	f := service.NewFallbackFlusher(durable, audit.Fallback(), 10*time.Millisecond, nil)
	f.Start(ctx)
	defer f.Stop()

	time.Sleep(30 * time.Millisecond)
	durable.setDown(false)

	deadline := time.Now().Add(2 * time.Second)
	for audit.Fallback().Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("fallback was not drained after the durable store recovered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := countLogs(t, durable); n != 1 {
		t.Fatalf("expected 1 durable record, got %d", n)
	}
}
