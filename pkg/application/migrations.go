package application

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// MigrationManager collects per-module migration directories (relative to the
// configured migrations root) and applies them with goose.
type MigrationManager interface {
	RegisterSchema(dirs ...string)
	SchemaDirs() []string
	Run(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool *pgxpool.Pool
	dirs []string
}

func (m *migrationManager) RegisterSchema(dirs ...string) {
	m.dirs = append(m.dirs, dirs...)
}

func (m *migrationManager) SchemaDirs() []string {
	return m.dirs
}

func (m *migrationManager) Run(ctx context.Context) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() {
		_ = db.Close()
	}()
	base := configuration.Use().MigrationsDir
	for _, dir := range m.dirs {
		goose.SetTableName(fmt.Sprintf("goose_db_version_%s", filepath.Base(dir)))
		if err := goose.UpContext(ctx, db, filepath.Join(base, dir)); err != nil {
			return fmt.Errorf("migrations for %s: %w", dir, err)
		}
	}
	return nil
}

func (m *migrationManager) Rollback(ctx context.Context) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() {
		_ = db.Close()
	}()
	base := configuration.Use().MigrationsDir
	for i := len(m.dirs) - 1; i >= 0; i-- {
		dir := m.dirs[i]
		goose.SetTableName(fmt.Sprintf("goose_db_version_%s", filepath.Base(dir)))
		if err := goose.DownContext(ctx, db, filepath.Join(base, dir)); err != nil {
			return fmt.Errorf("rollback for %s: %w", dir, err)
		}
	}
	return nil
}
