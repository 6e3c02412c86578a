package store

import (
	"context"
	"errors"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// ErrMemberNotFound means the lookup ran and found no such member.  Any other
// error from MemberByID means the lookup itself could not be performed.
var ErrMemberNotFound = errors.New("member not found")

// MemberStore is the read-only contract onto the external member database.
type MemberStore interface {
	MemberByID(ctx context.Context, id int64) (types.Member, error)
}
