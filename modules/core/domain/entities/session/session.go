package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer credential resolved by the auth middleware.
// Token issuance happens outside this platform; rows are written by the
// identity integration and by test seeds.
type Session struct {
	Token     string
	UserID    uuid.UUID
	TenantID  uuid.UUID
	IP        string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(time.Now())
}

type Repository interface {
	GetByToken(ctx context.Context, token string) (*Session, error)
	Create(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, token string) error
}
