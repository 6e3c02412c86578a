package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/frontdesk-gym/frontdesk/internal/db"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
)

type StationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewStationStore(db *sql.DB, writer *dbpkg.Worker) *StationStore {
	return &StationStore{db: db, writer: writer}
}

// IsKnown: a station is known once an operator (or the dev seeder) registers it.
func (s *StationStore) IsKnown(ctx context.Context, stationID string) (bool, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return false, nil
	}

	var known int
	err := s.db.QueryRowContext(ctx, `SELECT known FROM stations WHERE station_id = ?;`, stationID).Scan(&known)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsKnown query: %w", err)
	}
	return known == 1, nil
}

// MarkSeen ensures the station row exists (unknown stations start unregistered)
// and bumps last_seen.
func (s *StationStore) MarkSeen(ctx context.Context, stationID string, _ bool, t time.Time) error {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureStation(ctx, tx, stationID, ms); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE stations SET last_seen_at_ms = ?, updated_at_ms = ? WHERE station_id = ?;
`, ms, ms, stationID); err != nil {
			return fmt.Errorf("MarkSeen update station: %w", err)
		}
		return nil
	})
}

// UpsertHeartbeat overwrites the station's capture snapshot.
func (s *StationStore) UpsertHeartbeat(ctx context.Context, stationID string, rec store.StationRecord) error {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	ms := rec.ReceivedAt.UTC().UnixMilli()

	var lastErr any
	if e := strings.TrimSpace(rec.Request.LastError); e != "" {
		lastErr = e
	}
	var uptime any
	if rec.Request.UptimeSeconds != 0 {
		uptime = int64(rec.Request.UptimeSeconds)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureStation(ctx, tx, stationID, ms); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE stations
SET last_seen_at_ms   = ?,
    last_version      = ?,
    last_capture_mode = ?,
    last_camera_state = ?,
    last_error        = ?,
    last_uptime_s     = ?,
    updated_at_ms     = ?
WHERE station_id = ?;
`, ms, rec.Request.Version, rec.Request.CaptureMode, string(rec.Request.CameraState),
			lastErr, uptime, ms, stationID); err != nil {
			return fmt.Errorf("UpsertHeartbeat update station: %w", err)
		}
		return nil
	})
}

// ensureStation must run inside the caller's transaction.
func ensureStation(ctx context.Context, tx *sql.Tx, stationID string, nowMs int64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO stations(station_id, known, created_at_ms, updated_at_ms)
VALUES (?, 0, ?, ?);
`, stationID, nowMs, nowMs); err != nil {
		return fmt.Errorf("ensureStation %s: %w", stationID, err)
	}
	return nil
}
