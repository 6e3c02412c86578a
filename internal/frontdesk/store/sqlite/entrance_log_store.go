package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	dbpkg "github.com/frontdesk-gym/frontdesk/internal/db"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// EntranceLogStore is the durable audit log.  Writes go through the
// single-writer worker; reads use the shared connection.
type EntranceLogStore struct {
	db     *sqlx.DB
	writer *dbpkg.Worker
}

func NewEntranceLogStore(db *sql.DB, writer *dbpkg.Worker) *EntranceLogStore {
	return &EntranceLogStore{db: sqlx.NewDb(db, "sqlite"), writer: writer}
}

// entranceLogRow mirrors the entrance_logs columns.
type entranceLogRow struct {
	ID                int64          `db:"id"`
	ScanID            sql.NullString `db:"scan_id"`
	MemberID          sql.NullInt64  `db:"member_id"`
	MemberName        string         `db:"member_name"`
	MemberPhone       string         `db:"member_phone"`
	MemberStatus      string         `db:"member_status"`
	ValidationStatus  string         `db:"validation_status"`
	ValidationMessage string         `db:"validation_message"`
	Outcome           string         `db:"outcome"`
	EntranceType      string         `db:"entrance_type"`
	TimestampMs       int64          `db:"timestamp_ms"`
	Notes             sql.NullString `db:"notes"`
}

func (r entranceLogRow) toLog() types.EntranceLog {
	l := types.EntranceLog{
		ID: r.ID,
		EntranceLogInput: types.EntranceLogInput{
			ScanID:            r.ScanID.String,
			MemberName:        r.MemberName,
			MemberPhone:       r.MemberPhone,
			MemberStatus:      r.MemberStatus,
			ValidationStatus:  types.ValidationStatus(r.ValidationStatus),
			ValidationMessage: r.ValidationMessage,
			Outcome:           types.Outcome(r.Outcome),
			EntranceType:      types.EntranceType(r.EntranceType),
			Timestamp:         time.UnixMilli(r.TimestampMs).UTC(),
			Notes:             r.Notes.String,
		},
	}
	if r.MemberID.Valid {
		id := r.MemberID.Int64
		l.MemberID = &id
	}
	return l
}

const selectEntranceLogs = `
SELECT id, scan_id, member_id, member_name, member_phone, member_status,
       validation_status, validation_message, outcome, entrance_type,
       timestamp_ms, notes
FROM entrance_logs`

func (s *EntranceLogStore) Append(ctx context.Context, in types.EntranceLogInput) (types.EntranceLog, error) {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	in.Timestamp = in.Timestamp.UTC().Truncate(time.Millisecond)

	var memberID any
	if in.MemberID != nil {
		memberID = *in.MemberID
	}
	var scanID any
	if in.ScanID != "" {
		scanID = in.ScanID
	}
	var notes any
	if in.Notes != "" {
		notes = in.Notes
	}

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO entrance_logs(
  scan_id, member_id, member_name, member_phone, member_status,
  validation_status, validation_message, outcome, entrance_type,
  timestamp_ms, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			scanID, memberID, in.MemberName, in.MemberPhone, in.MemberStatus,
			string(in.ValidationStatus), in.ValidationMessage, string(in.Outcome), string(in.EntranceType),
			in.Timestamp.UnixMilli(), notes,
		)
		if err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Append last id: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.EntranceLog{}, err
	}

	return types.EntranceLog{ID: id, EntranceLogInput: in}, nil
}

func (s *EntranceLogStore) ListRecent(ctx context.Context, limit int) ([]types.EntranceLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, "ListRecent", selectEntranceLogs+`
ORDER BY timestamp_ms DESC, id DESC
LIMIT ?;`, limit)
}

func (s *EntranceLogStore) ListByMember(ctx context.Context, memberID int64) ([]types.EntranceLog, error) {
	return s.list(ctx, "ListByMember", selectEntranceLogs+`
WHERE member_id = ?
ORDER BY timestamp_ms DESC, id DESC;`, memberID)
}

func (s *EntranceLogStore) ListByStatus(ctx context.Context, status types.ValidationStatus) ([]types.EntranceLog, error) {
	return s.list(ctx, "ListByStatus", selectEntranceLogs+`
WHERE validation_status = ?
ORDER BY timestamp_ms DESC, id DESC;`, string(status))
}

func (s *EntranceLogStore) ListByType(ctx context.Context, entranceType types.EntranceType) ([]types.EntranceLog, error) {
	return s.list(ctx, "ListByType", selectEntranceLogs+`
WHERE entrance_type = ?
ORDER BY timestamp_ms DESC, id DESC;`, string(entranceType))
}

func (s *EntranceLogStore) list(ctx context.Context, op, q string, args ...any) ([]types.EntranceLog, error) {
	var rows []entranceLogRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	out := make([]types.EntranceLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toLog())
	}
	return out, nil
}
