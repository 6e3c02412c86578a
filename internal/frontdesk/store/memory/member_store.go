package memory

import (
	"context"
	"sync"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// MemberStore is a map-backed member directory for tests and dev.
type MemberStore struct {
	mu      sync.RWMutex
	members map[int64]types.Member
}

func NewMemberStore(members ...types.Member) *MemberStore {
	m := make(map[int64]types.Member, len(members))
	for _, mem := range members {
		m[mem.ID] = mem
	}
	return &MemberStore{members: m}
}

func (s *MemberStore) MemberByID(_ context.Context, id int64) (types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return types.Member{}, store.ErrMemberNotFound
	}
	return m, nil
}

// Put inserts or replaces a member.  Status changes between scans are picked
// up on the next lookup.
func (s *MemberStore) Put(m types.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}
