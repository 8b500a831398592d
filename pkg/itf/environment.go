package itf

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

// TestEnvironment is the live fixture a suite runs against: a dedicated
// database, the wired application and one seeded tenant. Ctx carries the
// suite transaction, so services called through it see each other's writes
// while the database stays clean for the next suite.
type TestEnvironment struct {
	Ctx    context.Context
	Pool   *pgxpool.Pool
	Tx     pgx.Tx
	App    application.Application
	Tenant *Tenant
	User   user.User
}

// GetService retrieves a registered service by its concrete type.
func GetService[T any](te *TestEnvironment) *T {
	var zero T
	return te.App.Service(zero).(*T)
}

// TenantID returns the seeded tenant id.
func (te *TestEnvironment) TenantID() uuid.UUID {
	return te.Tenant.ID
}
