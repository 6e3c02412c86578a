package store

import (
	"context"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

type StationRecord struct {
	ReceivedAt time.Time
	Request    types.HeartbeatRequest
}

type StationStore interface {
	IsKnown(ctx context.Context, stationID string) (bool, error)
	MarkSeen(ctx context.Context, stationID string, known bool, t time.Time) error
	UpsertHeartbeat(ctx context.Context, stationID string, rec StationRecord) error
}
