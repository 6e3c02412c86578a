package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/metrics"
)

var ErrInvalidStationID = errors.New("station_id is required")

// HeartbeatService records the capture-device snapshot each station
// reports, so operators can see a station stuck on a failed camera.
type HeartbeatService struct {
	stations store.StationStore
	registry *StationRegistry
	log      *zap.SugaredLogger
}

func NewHeartbeatService(st store.StationStore, reg *StationRegistry, log *zap.SugaredLogger) *HeartbeatService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HeartbeatService{stations: st, registry: reg, log: log}
}

func (s *HeartbeatService) Record(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	stationID := strings.TrimSpace(req.StationID)
	if stationID == "" {
		return types.HeartbeatResponse{}, ErrInvalidStationID
	}

	known, err := s.registry.IsKnown(ctx, stationID)
	if err != nil {
		return types.HeartbeatResponse{}, err
	}
	_ = s.registry.NoteSeen(ctx, stationID, known)

	rec := store.StationRecord{
		ReceivedAt: time.Now().UTC(),
		Request:    req,
	}
	if err := s.stations.UpsertHeartbeat(ctx, stationID, rec); err != nil {
		return types.HeartbeatResponse{}, err
	}

	metrics.StationCaptureOK.WithLabelValues(stationID).Set(captureOK(req.CameraState))
	if req.LastError != "" {
		s.log.Warnw("station capture error", "station", stationID, "camera_state", req.CameraState, "err", req.LastError)
	}

	return types.HeartbeatResponse{
		OK:         true,
		Known:      known,
		StationID:  stationID,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// captureOK treats a switched-off camera as healthy: keyboard-only
// stations never start one.
func captureOK(state types.CameraState) float64 {
	switch state {
	case "", types.CameraOK, types.CameraOff:
		return 1
	}
	return 0
}
