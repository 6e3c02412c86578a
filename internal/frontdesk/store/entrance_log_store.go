package store

import (
	"context"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/types"
)

// EntranceLogStore persists check-in attempts as an append-only audit log.
// All list methods return records newest-first.
type EntranceLogStore interface {
	Append(ctx context.Context, in types.EntranceLogInput) (types.EntranceLog, error)
	ListRecent(ctx context.Context, limit int) ([]types.EntranceLog, error)
	ListByMember(ctx context.Context, memberID int64) ([]types.EntranceLog, error)
	ListByStatus(ctx context.Context, status types.ValidationStatus) ([]types.EntranceLog, error)
	ListByType(ctx context.Context, entranceType types.EntranceType) ([]types.EntranceLog, error)
}
