package property

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Property is a physical site (hotel) belonging to a tenant. Schedule periods
// and shifts are always scoped to exactly one property.
type Property struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	timezone  string
	isActive  bool
	createdAt time.Time
}

type Option func(*Property)

func WithID(id uuid.UUID) Option {
	return func(p *Property) {
		p.id = id
	}
}

func WithTimezone(tz string) Option {
	return func(p *Property) {
		p.timezone = tz
	}
}

func WithIsActive(isActive bool) Option {
	return func(p *Property) {
		p.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(p *Property) {
		p.createdAt = createdAt
	}
}

func New(tenantID uuid.UUID, name string, opts ...Option) *Property {
	p := &Property{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		timezone:  "UTC",
		isActive:  true,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Property) ID() uuid.UUID {
	return p.id
}

func (p *Property) TenantID() uuid.UUID {
	return p.tenantID
}

func (p *Property) Name() string {
	return p.name
}

func (p *Property) Timezone() string {
	return p.timezone
}

func (p *Property) IsActive() bool {
	return p.isActive
}

func (p *Property) CreatedAt() time.Time {
	return p.createdAt
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Property, error)
	GetAll(ctx context.Context) ([]*Property, error)
	Create(ctx context.Context, p *Property) error
}
