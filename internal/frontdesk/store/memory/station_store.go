package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
)

type StationStore struct {
	mu         sync.RWMutex
	known      map[string]struct{}
	seen       map[string]time.Time
	heartbeats map[string]store.StationRecord
}

func NewStationStore(knownStations []string) *StationStore {
	k := make(map[string]struct{}, len(knownStations))
	for _, st := range knownStations {
		st = strings.TrimSpace(st)
		if st != "" {
			k[st] = struct{}{}
		}
	}
	return &StationStore{
		known:      k,
		seen:       make(map[string]time.Time),
		heartbeats: make(map[string]store.StationRecord),
	}
}

func (s *StationStore) IsKnown(_ context.Context, stationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.known[stationID]
	return ok, nil
}

func (s *StationStore) MarkSeen(_ context.Context, stationID string, _ bool, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[stationID] = t
	return nil
}

func (s *StationStore) UpsertHeartbeat(_ context.Context, stationID string, rec store.StationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.heartbeats[stationID] = rec
	return nil
}

// Heartbeat returns the latest snapshot for a station.  Test-only helper.
func (s *StationStore) Heartbeat(stationID string) (store.StationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.heartbeats[stationID]
	return rec, ok
}
