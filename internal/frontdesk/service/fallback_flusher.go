package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/metrics"
)

// FallbackFlusher periodically replays in-process entrance logs into the
// durable store, oldest first, keeping their original timestamps.  It
// runs as a background goroutine and is stopped via its context or Stop.
//
// An interval of 0 disables flushing entirely.
type FallbackFlusher struct {
	durable  store.EntranceLogStore
	fallback *memory.EntranceLogStore
	interval time.Duration
	log      *zap.SugaredLogger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewFallbackFlusher creates a flusher but does not start it.
func NewFallbackFlusher(durable store.EntranceLogStore, fallback *memory.EntranceLogStore, interval time.Duration, log *zap.SugaredLogger) *FallbackFlusher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FallbackFlusher{
		durable:  durable,
		fallback: fallback,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start begins the background loop.  The loop exits when ctx is cancelled
// or Stop is called.
func (f *FallbackFlusher) Start(ctx context.Context) {
	if f.interval <= 0 || f.durable == nil {
		f.log.Infow("audit fallback flusher disabled", "interval", f.interval, "durable", f.durable != nil)
		close(f.done)
		return
	}

	ctx, f.cancel = context.WithCancel(ctx)
	go f.loop(ctx)

	f.log.Infow("audit fallback flusher started", "interval", f.interval)
}

// Stop signals the flusher to exit and waits for it to finish.
func (f *FallbackFlusher) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	<-f.done
}

func (f *FallbackFlusher) loop(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := f.Flush(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				f.log.Warnw("audit fallback flush stopped early", "flushed", n, "pending", f.fallback.Len(), "err", err)
				continue
			}
			if n > 0 {
				f.log.Infow("audit fallback flushed", "flushed", n)
			}
		}
	}
}

// Flush moves pending records into the durable store until none remain or
// an append fails.  It returns how many records were moved.
func (f *FallbackFlusher) Flush(ctx context.Context) (int, error) {
	if f.durable == nil {
		return 0, nil
	}
	n := 0
	defer func() { metrics.AuditFallbackPending.Set(float64(f.fallback.Len())) }()

	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, ok := f.fallback.Oldest()
		if !ok {
			return n, nil
		}
		if _, err := f.durable.Append(ctx, rec.EntranceLogInput); err != nil {
			return n, err
		}
		f.fallback.Remove(rec.ID)
		metrics.AuditFlushed.Inc()
		n++
	}
}
