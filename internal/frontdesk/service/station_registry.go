package service

import (
	"context"
	"strings"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
)

// StationRegistry answers whether a front-desk station is registered and
// tracks when each was last seen.
type StationRegistry struct {
	store store.StationStore
}

func NewStationRegistry(st store.StationStore) *StationRegistry {
	return &StationRegistry{store: st}
}

func (r *StationRegistry) IsKnown(ctx context.Context, stationID string) (bool, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return false, nil
	}
	return r.store.IsKnown(ctx, stationID)
}

func (r *StationRegistry) NoteSeen(ctx context.Context, stationID string, known bool) error {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil
	}
	return r.store.MarkSeen(ctx, stationID, known, time.Now().UTC())
}
