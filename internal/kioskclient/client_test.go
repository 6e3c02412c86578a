package kioskclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
	"github.com/frontdesk-gym/frontdesk/internal/kioskclient"
)

func TestScan_PostsTokenAndDecodesResult(t *testing.T) {
	var got types.ScanRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkin/scan" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(types.CheckInResponse{
			Result: types.ValidationResult{Valid: true, Message: "Active Subscription", Outcome: types.OutcomeActive},
		})
	}))
	defer ts.Close()

	c := kioskclient.New(ts.URL+"/", nil)
	resp, err := c.Scan(context.Background(), types.ScanRequest{Token: `{"id":7}`, ScanID: "s-1", Source: "keyboard"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !resp.Result.Valid || resp.Result.Outcome != types.OutcomeActive {
		t.Errorf("unexpected result %+v", resp.Result)
	}
	if got.Token != `{"id":7}` || got.ScanID != "s-1" || got.Source != "keyboard" {
		t.Errorf("server saw %+v", got)
	}
}

func TestManual_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_member_id","message":"member_id must be a positive integer"}`))
	}))
	defer ts.Close()

	_, err := kioskclient.New(ts.URL, nil).Manual(context.Background(), 0)
	var apiErr *kioskclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "invalid_member_id" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestHeartbeat_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := kioskclient.New(url, nil).Heartbeat(context.Background(), types.HeartbeatRequest{StationID: "desk-1"})
	if !errors.Is(err, kioskclient.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
