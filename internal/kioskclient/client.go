// Package kioskclient is the station side of the check-in HTTP API.
package kioskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

const DefaultTimeout = 5 * time.Second

// ErrUnreachable wraps transport failures so callers can show
// "Connection Error" without inspecting net errors.
var ErrUnreachable = errors.New("check-in server unreachable")

// APIError is a non-2xx reply carrying the server's error body.
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL.  A nil httpClient gets one with
// DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Scan(ctx context.Context, req types.ScanRequest) (types.CheckInResponse, error) {
	var resp types.CheckInResponse
	err := c.post(ctx, "/v1/checkin/scan", req, &resp)
	return resp, err
}

func (c *Client) Manual(ctx context.Context, memberID int64) (types.CheckInResponse, error) {
	var resp types.CheckInResponse
	err := c.post(ctx, "/v1/checkin/manual", types.ManualRequest{MemberID: memberID}, &resp)
	return resp, err
}

func (c *Client) Heartbeat(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	var resp types.HeartbeatResponse
	err := c.post(ctx, "/v1/heartbeat", req, &resp)
	return resp, err
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrUnreachable, path, err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
