package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/service"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/metrics"
)

func newTestHeartbeatService(known ...string) (*service.HeartbeatService, *memory.StationStore) {
	st := memory.NewStationStore(known)
	return service.NewHeartbeatService(st, service.NewStationRegistry(st), nil), st
}

func TestHeartbeat_KnownStation(t *testing.T) {
	svc, st := newTestHeartbeatService("desk-1")

	resp, err := svc.Record(context.Background(), types.HeartbeatRequest{
		StationID:   " desk-1 ",
		CaptureMode: "both",
		CameraState: types.CameraOK,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !resp.OK || !resp.Known || resp.StationID != "desk-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, ok := st.Heartbeat("desk-1"); !ok {
		t.Fatal("heartbeat not stored")
	}
	if v := testutil.ToFloat64(metrics.StationCaptureOK.WithLabelValues("desk-1")); v != 1 {
		t.Errorf("expected capture_ok=1, got %v", v)
	}
}

func TestHeartbeat_UnknownStationStillRecorded(t *testing.T) {
	svc, st := newTestHeartbeatService("desk-1")

	resp, err := svc.Record(context.Background(), types.HeartbeatRequest{
		StationID:   "desk-9",
		CameraState: types.CameraPermissionDenied,
		LastError:   "camera permission denied",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if resp.Known {
		t.Error("expected known=false")
	}
	rec, ok := st.Heartbeat("desk-9")
	if !ok || rec.Request.CameraState != types.CameraPermissionDenied {
		t.Fatalf("unexpected snapshot %+v", rec)
	}
	if v := testutil.ToFloat64(metrics.StationCaptureOK.WithLabelValues("desk-9")); v != 0 {
		t.Errorf("expected capture_ok=0, got %v", v)
	}
}

func TestHeartbeat_RequiresStationID(t *testing.T) {
	svc, _ := newTestHeartbeatService()

	_, err := svc.Record(context.Background(), types.HeartbeatRequest{StationID: "  "})
	if !errors.Is(err, service.ErrInvalidStationID) {
		t.Fatalf("expected ErrInvalidStationID, got %v", err)
	}
}
