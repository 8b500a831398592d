package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/lodgecrew/lodgecrew/modules"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

// Tenant is the row CreateTestTenant seeds for a suite.
type Tenant struct {
	ID     uuid.UUID
	Name   string
	Domain string
}

// MockSession returns a session suitable for contexts in tests. Callers fill
// in UserID and TenantID when the test cares about them.
func MockSession() *session.Session {
	return &session.Session{
		Token:     "itf-" + uuid.NewString(),
		UserID:    uuid.Nil,
		TenantID:  uuid.Nil,
		IP:        "127.0.0.1",
		UserAgent: "itf",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
}

func NewPool(dbOpts string) *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(dbOpts)
	if err != nil {
		panic(err)
	}
	// Each suite owns its database, so the pool stays small.
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(fmt.Errorf("create test pool: %w", err))
	}
	return pool
}

func DefaultParams() *composables.Params {
	return &composables.Params{
		IP:            "",
		UserAgent:     "",
		Authenticated: true,
		Request:       nil,
		Writer:        nil,
	}
}

const testTenantInsertQuery = `
	INSERT INTO tenants (id, name, domain, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	ON CONFLICT (id) DO NOTHING`

// CreateTestTenant inserts a tenant row for the suite to scope its data under.
func CreateTestTenant(ctx context.Context, pool *pgxpool.Pool) (*Tenant, error) {
	id := uuid.New()
	tenant := &Tenant{
		ID:     id,
		Name:   "Test Tenant " + id.String()[:8],
		Domain: id.String()[:8] + ".test.com",
	}
	if _, err := pool.Exec(ctx, testTenantInsertQuery, tenant.ID, tenant.Name, tenant.Domain); err != nil {
		return nil, fmt.Errorf("create test tenant: %w", err)
	}
	return tenant, nil
}

const (
	// PostgreSQL identifiers are limited to 63 bytes.
	maxDBNameLength = 63
	// "_" plus eight hash characters.
	hashSuffixLength = 9
)

// sanitizeDBName turns a test name into a valid postgres database name.
// Names over the limit keep a hash suffix so parallel suites never collide.
func sanitizeDBName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	sum := sha256.Sum256([]byte(name))
	hash := fmt.Sprintf("%x", sum)[:8]
	return sanitized[:maxDBNameLength-hashSuffixLength] + "_" + hash
}

// testDSN builds a DSN against the configured postgres server for dbname.
func testDSN(dbname string) string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, dbname, c.Database.Password,
	)
}

// CreateDB drops and recreates the database for a suite. It reports an error
// instead of failing hard so callers can skip when postgres is unavailable.
func CreateDB(name string) error {
	dbName := sanitizeDBName(name)

	db, err := sql.Open("postgres", testDSN("postgres"))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("closing admin connection: %v", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("postgres is not reachable: %w", err)
	}

	for _, stmt := range []string{
		fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName),
		fmt.Sprintf("CREATE DATABASE %s", dbName),
	} {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("recreate database %s: %w", dbName, err)
		}
	}
	return nil
}

func DbOpts(name string) string {
	return testDSN(sanitizeDBName(name))
}

// SetupApplication wires the given modules onto a fresh application and
// applies every registered migration schema.
func SetupApplication(pool *pgxpool.Pool, mods ...application.Module) (application.Application, error) {
	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, mods...); err != nil {
		return nil, err
	}
	if err := app.Migrations().Run(context.Background()); err != nil {
		return nil, err
	}
	return app, nil
}
