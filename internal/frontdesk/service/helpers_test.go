package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/service"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store/memory"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

var errStoreDown = errors.New("database is locked")

// flakyLogStore wraps an in-memory store and fails every call while down.
type flakyLogStore struct {
	mu    sync.Mutex
	down  bool
	inner *memory.EntranceLogStore
}

func newFlakyLogStore(down bool) *flakyLogStore {
	return &flakyLogStore{down: down, inner: memory.NewEntranceLogStore(0)}
}

func (s *flakyLogStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *flakyLogStore) isDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

func (s *flakyLogStore) Append(ctx context.Context, in types.EntranceLogInput) (types.EntranceLog, error) {
	if s.isDown() {
		return types.EntranceLog{}, errStoreDown
	}
	if err := ctx.Err(); err != nil {
		return types.EntranceLog{}, err
	}
	return s.inner.Append(ctx, in)
}

func (s *flakyLogStore) ListRecent(ctx context.Context, limit int) ([]types.EntranceLog, error) {
	if s.isDown() {
		return nil, errStoreDown
	}
	return s.inner.ListRecent(ctx, limit)
}

func (s *flakyLogStore) ListByMember(ctx context.Context, id int64) ([]types.EntranceLog, error) {
	if s.isDown() {
		return nil, errStoreDown
	}
	return s.inner.ListByMember(ctx, id)
}

func (s *flakyLogStore) ListByStatus(ctx context.Context, st types.ValidationStatus) ([]types.EntranceLog, error) {
	if s.isDown() {
		return nil, errStoreDown
	}
	return s.inner.ListByStatus(ctx, st)
}

func (s *flakyLogStore) ListByType(ctx context.Context, et types.EntranceType) ([]types.EntranceLog, error) {
	if s.isDown() {
		return nil, errStoreDown
	}
	return s.inner.ListByType(ctx, et)
}

// brokenMemberStore fails every lookup as a connectivity problem would.
type brokenMemberStore struct{}

func (brokenMemberStore) MemberByID(context.Context, int64) (types.Member, error) {
	return types.Member{}, errors.New("dial tcp 10.0.0.9:3306: connect: connection refused")
}

// slowMemberStore blocks until the lookup context ends.
type slowMemberStore struct{}

func (slowMemberStore) MemberByID(ctx context.Context, _ int64) (types.Member, error) {
	<-ctx.Done()
	return types.Member{}, ctx.Err()
}

func testMembers() *memory.MemberStore {
	return memory.NewMemberStore(
		types.Member{ID: 7, Name: "X", Phone: "6900000000", Status: types.StatusActive, Expiry: "2026-12-31", Package: "Monthly"},
		types.Member{ID: 8, Name: "Y", Phone: "6911111111", Status: types.StatusExpiringSoon, Expiry: "2026-02-20", Package: "Monthly"},
		types.Member{ID: 9, Name: "Z", Phone: "6922222222", Status: types.StatusExpired, Expiry: "2026-01-01", Package: "Annual"},
		types.Member{ID: 10, Name: "W", Phone: "6933333333", Status: "suspended", Expiry: "2026-06-01", Package: "Annual"},
	)
}

// newTestCheckIn builds the pipeline over in-memory stores and returns the
// durable log store so tests can count records.
func newTestCheckIn() (*service.CheckInService, *memory.EntranceLogStore) {
	durable := memory.NewEntranceLogStore(0)
	audit := service.NewAuditLogger(durable, nil, nil)
	eval := service.NewEvaluator(testMembers(), 0)
	return service.NewCheckInService(nil, eval, audit, nil), durable
}
