package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// MemberStore reads the members table.  The same query runs against the
// local SQLite file or an external MySQL member database.
type MemberStore struct {
	db *sqlx.DB
}

func NewMemberStore(db *sqlx.DB) *MemberStore {
	return &MemberStore{db: db}
}

const selectMemberByID = `SELECT id, name, phone, status, expiry, package FROM members WHERE id = ?`

func (s *MemberStore) MemberByID(ctx context.Context, id int64) (types.Member, error) {
	var m types.Member
	err := s.db.GetContext(ctx, &m, selectMemberByID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Member{}, store.ErrMemberNotFound
	}
	if err != nil {
		return types.Member{}, fmt.Errorf("MemberByID query: %w", err)
	}
	return m, nil
}

// Ping reports whether the member database is reachable.
func (s *MemberStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
