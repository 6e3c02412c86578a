package types

// CameraState is the capture-device condition a station reports.
type CameraState string

const (
	CameraOff              CameraState = "off"
	CameraOK               CameraState = "ok"
	CameraPermissionDenied CameraState = "permission_denied"
	CameraBusy             CameraState = "busy"
	CameraNotFound         CameraState = "not_found"
	CameraInsecureContext  CameraState = "insecure_context"
	CameraError            CameraState = "error"
)

type HeartbeatRequest struct {
	StationID     string      `json:"station_id"`
	Version       string      `json:"version,omitempty"`
	UptimeSeconds uint64      `json:"uptime_s,omitempty"`
	CaptureMode   string      `json:"capture_mode,omitempty"` // "keyboard" | "camera" | "both"
	CameraState   CameraState `json:"camera_state,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
}

type HeartbeatResponse struct {
	OK         bool   `json:"ok"`
	Known      bool   `json:"known"`
	StationID  string `json:"station_id"`
	ServerTime string `json:"server_time"`
}
