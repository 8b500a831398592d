package authenticationlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event kinds recorded in the trail. Session expiry is not recorded; only
// explicit user actions are.
const (
	EventLogin  = "login"
	EventLogout = "logout"
)

// AuthenticationLog is one login or logout. Rows are written by the session
// event subscribers, never updated.
type AuthenticationLog struct {
	ID        uint
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Event     string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

type FindParams struct {
	UserID    *uuid.UUID
	Event     string
	IP        string
	UserAgent string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*AuthenticationLog, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, log *AuthenticationLog) error
}
