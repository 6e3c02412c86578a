package memory

import (
	"context"
	"sync"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// EntranceLogStore is an in-process append-only log of check-in attempts.
// It serves as the audit fallback when the durable store is unreachable and
// as the primary store in tests.  Records are lost when the process exits.
//
// A capacity of 0 keeps every record; otherwise the oldest record is dropped
// once the log is full.
type EntranceLogStore struct {
	mu       sync.Mutex
	logs     []types.EntranceLog // oldest first
	nextID   int64
	capacity int
}

func NewEntranceLogStore(capacity int) *EntranceLogStore {
	if capacity < 0 {
		capacity = 0
	}
	return &EntranceLogStore{nextID: 1, capacity: capacity}
}

func (s *EntranceLogStore) Append(_ context.Context, in types.EntranceLogInput) (types.EntranceLog, error) {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := types.EntranceLog{ID: s.nextID, EntranceLogInput: in}
	s.nextID++
	s.logs = append(s.logs, rec)
	if s.capacity > 0 && len(s.logs) > s.capacity {
		s.logs = append(s.logs[:0:0], s.logs[len(s.logs)-s.capacity:]...)
	}
	return rec, nil
}

func (s *EntranceLogStore) ListRecent(_ context.Context, limit int) ([]types.EntranceLog, error) {
	return s.filter(limit, func(types.EntranceLog) bool { return true }), nil
}

func (s *EntranceLogStore) ListByMember(_ context.Context, memberID int64) ([]types.EntranceLog, error) {
	return s.filter(0, func(l types.EntranceLog) bool {
		return l.MemberID != nil && *l.MemberID == memberID
	}), nil
}

func (s *EntranceLogStore) ListByStatus(_ context.Context, status types.ValidationStatus) ([]types.EntranceLog, error) {
	return s.filter(0, func(l types.EntranceLog) bool { return l.ValidationStatus == status }), nil
}

func (s *EntranceLogStore) ListByType(_ context.Context, entranceType types.EntranceType) ([]types.EntranceLog, error) {
	return s.filter(0, func(l types.EntranceLog) bool { return l.EntranceType == entranceType }), nil
}

// Oldest returns the oldest record still held.
func (s *EntranceLogStore) Oldest() (types.EntranceLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return types.EntranceLog{}, false
	}
	return s.logs[0], true
}

// Remove drops the record with the given id, if present.
func (s *EntranceLogStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.logs {
		if l.ID == id {
			s.logs = append(s.logs[:i], s.logs[i+1:]...)
			return
		}
	}
}

func (s *EntranceLogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// filter walks newest-first and stops after limit matches (0 = no limit).
func (s *EntranceLogStore) filter(limit int, keep func(types.EntranceLog) bool) []types.EntranceLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.EntranceLog, 0)
	for i := len(s.logs) - 1; i >= 0; i-- {
		if !keep(s.logs[i]) {
			continue
		}
		out = append(out, s.logs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
