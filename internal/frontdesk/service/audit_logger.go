package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/metrics"
)

// durableAppendTimeout bounds a durable write that is detached from the
// caller's context.
const durableAppendTimeout = 5 * time.Second

// AuditLogger appends one EntranceLog per check-in attempt.  Writes go to
// the durable store; if that fails the record is kept in an in-process
// store instead.  Records held in process are lost on restart until the
// FallbackFlusher replays them.
type AuditLogger struct {
	durable  store.EntranceLogStore
	fallback *memory.EntranceLogStore
	log      *zap.SugaredLogger
}

// NewAuditLogger wires the two stores.  durable may be nil, in which case
// every record lives only in process memory.
func NewAuditLogger(durable store.EntranceLogStore, fallback *memory.EntranceLogStore, log *zap.SugaredLogger) *AuditLogger {
	if fallback == nil {
		fallback = memory.NewEntranceLogStore(0)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AuditLogger{durable: durable, fallback: fallback, log: log}
}

// Fallback exposes the in-process store for the flusher.
func (a *AuditLogger) Fallback() *memory.EntranceLogStore { return a.fallback }

// Durable returns the durable store, or nil in fallback-only mode.
func (a *AuditLogger) Durable() store.EntranceLogStore { return a.durable }

// Record never fails: audit logging must not block a check-in.  The durable
// append outlives a cancelled request so that a write the store commits is
// never also parked in the fallback.  A fallback record is returned with a
// negative id and Pending set; it gets its durable id when flushed.
func (a *AuditLogger) Record(ctx context.Context, in types.EntranceLogInput) types.EntranceLog {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	if a.durable != nil {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), durableAppendTimeout)
		rec, err := a.durable.Append(actx, in)
		cancel()
		if err == nil {
			return rec
		}
		a.log.Warnw("durable audit append failed; using in-process fallback",
			"err", err,
			"scan_id", in.ScanID,
			"outcome", in.Outcome,
		)
	}

	metrics.AuditFallback.Inc()
	rec, _ := a.fallback.Append(ctx, in)
	metrics.AuditFallbackPending.Set(float64(a.fallback.Len()))
	return pendingView(rec)
}

// pendingView negates the in-process id so it cannot collide with a durable
// id in a merged read.
func pendingView(rec types.EntranceLog) types.EntranceLog {
	rec.ID = -rec.ID
	rec.Pending = true
	return rec
}

func (a *AuditLogger) ListRecent(ctx context.Context, limit int) ([]types.EntranceLog, error) {
	return a.read(ctx, limit, func(s store.EntranceLogStore) ([]types.EntranceLog, error) {
		return s.ListRecent(ctx, limit)
	})
}

func (a *AuditLogger) ListByMember(ctx context.Context, memberID int64) ([]types.EntranceLog, error) {
	return a.read(ctx, 0, func(s store.EntranceLogStore) ([]types.EntranceLog, error) {
		return s.ListByMember(ctx, memberID)
	})
}

func (a *AuditLogger) ListByStatus(ctx context.Context, status types.ValidationStatus) ([]types.EntranceLog, error) {
	return a.read(ctx, 0, func(s store.EntranceLogStore) ([]types.EntranceLog, error) {
		return s.ListByStatus(ctx, status)
	})
}

func (a *AuditLogger) ListByType(ctx context.Context, entranceType types.EntranceType) ([]types.EntranceLog, error) {
	return a.read(ctx, 0, func(s store.EntranceLogStore) ([]types.EntranceLog, error) {
		return s.ListByType(ctx, entranceType)
	})
}

// read queries the durable store first and falls back to the in-process
// store when it fails.  Records still waiting for a flush are merged into
// a successful durable result so a just-written fallback record is never
// invisible.  A pending record whose scan id the durable store already holds
// was flushed between the two queries and is dropped.
func (a *AuditLogger) read(ctx context.Context, limit int, q func(store.EntranceLogStore) ([]types.EntranceLog, error)) ([]types.EntranceLog, error) {
	pending, _ := q(a.fallback)
	for i := range pending {
		pending[i] = pendingView(pending[i])
	}
	if a.durable == nil {
		return pending, nil
	}

	durable, err := q(a.durable)
	if err != nil {
		a.log.Warnw("durable audit read failed; serving in-process records", "err", err)
		return pending, nil
	}
	if len(pending) == 0 {
		return durable, nil
	}

	seen := make(map[string]struct{}, len(durable))
	for _, rec := range durable {
		if rec.ScanID != "" {
			seen[rec.ScanID] = struct{}{}
		}
	}
	out := durable
	for _, rec := range pending {
		if _, dup := seen[rec.ScanID]; dup && rec.ScanID != "" {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
