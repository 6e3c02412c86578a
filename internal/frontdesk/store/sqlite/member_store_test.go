package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	sqlitestore "github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/sqlite"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

const memberQuery = `SELECT id, name, phone, status, expiry, package FROM members WHERE id = ?`

func TestMemberStore_MemberByID_Found(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(memberQuery)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "status", "expiry", "package"}).
			AddRow(7, "X", "6900000000", "active", "2026-12-31", "Monthly"))

	ms := sqlitestore.NewMemberStore(sqlx.NewDb(conn, "mysql"))
	m, err := ms.MemberByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("MemberByID: %v", err)
	}
	if m.ID != 7 || m.Status != types.StatusActive || m.Expiry != "2026-12-31" {
		t.Errorf("unexpected member %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMemberStore_MemberByID_NotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(memberQuery)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "status", "expiry", "package"}))

	ms := sqlitestore.NewMemberStore(sqlx.NewDb(conn, "mysql"))
	_, err = ms.MemberByID(context.Background(), 99)
	if !errors.Is(err, store.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestMemberStore_MemberByID_ConnectionError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(memberQuery)).
		WithArgs(int64(7)).
		WillReturnError(errors.New("dial tcp: connection refused"))

	ms := sqlitestore.NewMemberStore(sqlx.NewDb(conn, "mysql"))
	_, err = ms.MemberByID(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, store.ErrMemberNotFound) {
		t.Fatal("connection failure must not read as not-found")
	}
}

func TestMemberStore_MemberByID_LocalSQLite(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	if _, err := conn.ExecContext(ctx, `
INSERT INTO members(id, name, phone, status, expiry, package, created_at_ms, updated_at_ms)
VALUES (3, 'Y', '6911111111', 'expired', '2026-01-01', 'Annual', 0, 0);`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ms := sqlitestore.NewMemberStore(sqlx.NewDb(conn, "sqlite"))
	m, err := ms.MemberByID(ctx, 3)
	if err != nil {
		t.Fatalf("MemberByID: %v", err)
	}
	if m.Status != types.StatusExpired || m.Package != "Annual" {
		t.Errorf("unexpected member %+v", m)
	}
}
