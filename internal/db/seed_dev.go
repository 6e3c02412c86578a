package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// KnownStations are pre-registered so their heartbeats report known=true.
	KnownStations []string
}

// SeedDev installs a handful of members covering every subscription status,
// so a fresh dev database can exercise the whole decision table.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	members := []struct {
		id     int64
		name   string
		phone  string
		status string
		expiry time.Time
		pkg    string
	}{
		{1, "Dev Active", "6900000001", "active", now.AddDate(0, 3, 0), "Monthly"},
		{2, "Dev Expiring", "6900000002", "expiring_soon", now.AddDate(0, 0, 3), "Monthly"},
		{3, "Dev Expired", "6900000003", "expired", now.AddDate(0, 0, -10), "Monthly"},
		{4, "Dev Suspended", "6900000004", "suspended", now.AddDate(0, 1, 0), "Annual"},
	}

	for _, m := range members {
		if _, err := db.ExecContext(ctx, `
INSERT INTO members(id, name, phone, status, expiry, package, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status = excluded.status,
  expiry = excluded.expiry,
  updated_at_ms = excluded.updated_at_ms;
`, m.id, m.name, m.phone, m.status, m.expiry.Format("2006-01-02"), m.pkg, nowMs, nowMs); err != nil {
			return fmt.Errorf("seed member %d: %w", m.id, err)
		}
	}

	for _, st := range opt.KnownStations {
		if _, err := db.ExecContext(ctx, `
INSERT INTO stations(station_id, known, created_at_ms, updated_at_ms)
VALUES (?, 1, ?, ?)
ON CONFLICT(station_id) DO UPDATE SET known = 1, updated_at_ms = excluded.updated_at_ms;
`, st, nowMs, nowMs); err != nil {
			return fmt.Errorf("seed station %s: %w", st, err)
		}
	}

	return nil
}
