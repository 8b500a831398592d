package actionlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActionLog is one mutating API request recorded after the response was
// served. Status carries the response code so the audit trail distinguishes
// accepted writes from rejected ones. Rows are append-only.
type ActionLog struct {
	ID        uint
	TenantID  uuid.UUID
	UserID    *uuid.UUID
	Method    string
	Path      string
	Status    int
	UserAgent string
	IP        string
	CreatedAt time.Time
}

type FindParams struct {
	UserID    *uuid.UUID
	Method    string
	Path      string
	Status    *int
	IP        string
	UserAgent string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*ActionLog, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, log *ActionLog) error
}
