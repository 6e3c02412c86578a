package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/store"
	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// User-facing messages.  MsgInvalidCode and MsgUnrecognizedCode must stay
// distinct: one is a real code with no member, the other is not a code.
const (
	MsgActive           = "Active Subscription"
	MsgExpiringSoon     = "Active Subscription (Expiring Soon)"
	MsgExpired          = "Expired Subscription"
	MsgInvalidStatus    = "Invalid Status"
	MsgInvalidCode      = "Invalid QR Code"
	MsgConnectionError  = "Connection Error"
	MsgUnrecognizedCode = "Unrecognized Code"
)

// DefaultLookupTimeout bounds a single member lookup so a slow member
// database cannot stall the scan loop.
const DefaultLookupTimeout = 3 * time.Second

// Evaluator classifies a check-in attempt from the member's current record.
// It never caches: status can change between two scans.
type Evaluator struct {
	members store.MemberStore
	timeout time.Duration
}

// NewEvaluator returns an evaluator over members.  A nil store means no
// member database is configured; every lookup reports a connection error.
func NewEvaluator(members store.MemberStore, lookupTimeout time.Duration) *Evaluator {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Evaluator{members: members, timeout: lookupTimeout}
}

func (e *Evaluator) Evaluate(ctx context.Context, memberID int64) types.ValidationResult {
	if e.members == nil {
		return types.ValidationResult{
			Message: MsgConnectionError,
			Reason:  "no member store configured",
			Outcome: types.OutcomeConnectionError,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	m, err := e.members.MemberByID(ctx, memberID)
	if errors.Is(err, store.ErrMemberNotFound) {
		return types.ValidationResult{
			Message: MsgInvalidCode,
			Reason:  fmt.Sprintf("no member with id %d", memberID),
			Outcome: types.OutcomeNotFound,
		}
	}
	if err != nil {
		return types.ValidationResult{
			Message: MsgConnectionError,
			Reason:  "member lookup failed",
			Outcome: types.OutcomeConnectionError,
		}
	}

	switch m.Status {
	case types.StatusActive:
		return types.ValidationResult{
			Valid:   true,
			Member:  &m,
			Message: MsgActive,
			Outcome: types.OutcomeActive,
		}
	case types.StatusExpiringSoon:
		return types.ValidationResult{
			Valid:   true,
			Member:  &m,
			Message: MsgExpiringSoon,
			Reason:  "subscription expires on " + m.Expiry,
			Outcome: types.OutcomeExpiringSoon,
		}
	case types.StatusExpired:
		return types.ValidationResult{
			Member:  &m,
			Message: MsgExpired,
			Reason:  "subscription expired on " + m.Expiry,
			Outcome: types.OutcomeExpired,
		}
	}
	return types.ValidationResult{
		Member:  &m,
		Message: MsgInvalidStatus,
		Reason:  fmt.Sprintf("unexpected member status %q", m.Status),
		Outcome: types.OutcomeInvalidStatus,
	}
}
