package itf

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

// Option configures a Setup call.
type Option func(*setupConfig)

type setupConfig struct {
	modules []application.Module
	user    user.User
	dbName  string
}

// WithModules loads the given modules into the environment's application.
func WithModules(mods ...application.Module) Option {
	return func(cfg *setupConfig) {
		cfg.modules = append(cfg.modules, mods...)
	}
}

// WithUser places the given user into the environment context.
func WithUser(u user.User) Option {
	return func(cfg *setupConfig) {
		cfg.user = u
	}
}

// WithDBName overrides the database name derived from the test name. Subtests
// sharing a database pass the parent name here.
func WithDBName(name string) Option {
	return func(cfg *setupConfig) {
		cfg.dbName = name
	}
}

// Setup provisions a dedicated database named after the test, loads the
// requested modules, applies their migrations and seeds one tenant. The whole
// suite then runs inside a single transaction that is rolled back on cleanup,
// so assertions never leak rows into the next test. The test is skipped when
// postgres cannot be reached.
func Setup(tb testing.TB, opts ...Option) *TestEnvironment {
	tb.Helper()

	var cfg setupConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dbName == "" {
		cfg.dbName = tb.Name()
	}

	if err := CreateDB(cfg.dbName); err != nil {
		tb.Skipf("postgres is not reachable; skipping integration test: %v", err)
	}
	pool := NewPool(DbOpts(cfg.dbName))
	tb.Cleanup(pool.Close)

	app, err := SetupApplication(pool, cfg.modules...)
	if err != nil {
		tb.Fatal(err)
	}

	tenant, err := CreateTestTenant(context.Background(), pool)
	if err != nil {
		tb.Fatal(err)
	}

	tx, err := pool.Begin(context.Background())
	if err != nil {
		tb.Fatal(err)
	}
	// Registered after the pool cleanup, so the rollback runs first.
	tb.Cleanup(func() {
		if err := tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			tb.Logf("rollback suite transaction: %v", err)
		}
	})

	env := &TestEnvironment{
		Pool:   pool,
		Tx:     tx,
		App:    app,
		Tenant: tenant,
		User:   cfg.user,
	}
	env.Ctx = suiteContext(env, cfg.user)
	return env
}

// suiteContext assembles the context every suite call runs under: pool, suite
// transaction, tenant scope, request params and a session for the acting user.
func suiteContext(env *TestEnvironment, u user.User) context.Context {
	sess := MockSession()
	sess.TenantID = env.Tenant.ID

	ctx := composables.WithPool(context.Background(), env.Pool)
	ctx = composables.WithTx(ctx, env.Tx)
	ctx = composables.WithTenantID(ctx, env.Tenant.ID)
	ctx = composables.WithParams(ctx, DefaultParams())
	if u != nil {
		ctx = composables.WithUser(ctx, u)
		sess.UserID = u.ID()
	}
	return composables.WithSession(ctx, sess)
}
