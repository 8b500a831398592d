package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

// ResetService wipes all data tables between e2e runs. Migration bookkeeping
// tables survive so the schema stays in place.
type ResetService struct {
	app application.Application
}

func NewResetService(app application.Application) *ResetService {
	return &ResetService{app: app}
}

// Serializes resets across parallel e2e workers.
const resetAdvisoryLockID int64 = 574201113

func (s *ResetService) TruncateAllTables(ctx context.Context) error {
	logger := composables.UseLogger(ctx)
	db := s.app.DB()

	if _, err := db.Exec(ctx, "SELECT pg_advisory_lock($1)", resetAdvisoryLockID); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	defer func() {
		if _, err := db.Exec(ctx, "SELECT pg_advisory_unlock($1)", resetAdvisoryLockID); err != nil {
			logger.WithError(err).Error("failed to release advisory lock")
		}
	}()

	tables, err := s.dataTables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		logger.Info("no tables found to truncate")
		return nil
	}

	if err := s.truncate(ctx, tables); err != nil {
		logger.WithError(err).Error("failed to truncate tables")
		return err
	}

	logger.WithField("tableCount", len(tables)).Info("truncated all tables")
	return nil
}

// dataTables lists every public base table except goose bookkeeping.
func (s *ResetService) dataTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		AND table_name NOT LIKE '%migration%'
		AND table_name NOT LIKE 'schema_%'
	`
	rows, err := s.app.DB().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

func (s *ResetService) truncate(ctx context.Context, tables []string) error {
	tx, err := s.app.DB().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// replica mode suspends FK checks so truncation order does not matter.
	if _, err := tx.Exec(ctx, "SET session_replication_role = replica;"); err != nil {
		return fmt.Errorf("failed to disable foreign key checks: %w", err)
	}

	// One statement for all tables; truncating one by one can deadlock
	// against concurrent seeds.
	quoted := make([]string, len(tables))
	for i, table := range tables {
		quoted[i] = fmt.Sprintf(`"%s"`, table)
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", strings.Join(quoted, ", "))
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	if _, err := tx.Exec(ctx, "SET session_replication_role = DEFAULT;"); err != nil {
		return fmt.Errorf("failed to re-enable foreign key checks: %w", err)
	}

	return tx.Commit(ctx)
}
