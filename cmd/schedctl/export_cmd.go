package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	tenantID   uuid.UUID
	propertyID uuid.UUID
	outputDir  string
	from       *time.Time
	to         *time.Time
}

func newExportCmd() *cobra.Command {
	var opts exportOptions
	var tenant, property, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export schedule periods, shifts and assignments into CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&property, "property", "", "Restrict to one property UUID")
	cmd.Flags().StringVar(&opts.outputDir, "output", "", "Output directory (required)")
	cmd.Flags().StringVar(&from, "from", "", "Only periods ending on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Only periods starting on or before this date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("output")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(strings.TrimSpace(tenant))
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --tenant: %w", err))
		}
		opts.tenantID = id
		if strings.TrimSpace(property) != "" {
			pid, err := uuid.Parse(strings.TrimSpace(property))
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --property: %w", err))
			}
			opts.propertyID = pid
		}
		if strings.TrimSpace(from) != "" {
			d, err := time.Parse(time.DateOnly, strings.TrimSpace(from))
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --from: %w", err))
			}
			opts.from = &d
		}
		if strings.TrimSpace(to) != "" {
			d, err := time.Parse(time.DateOnly, strings.TrimSpace(to))
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --to: %w", err))
			}
			opts.to = &d
		}
		return nil
	}

	return cmd
}

func runExport(ctx context.Context, opts exportOptions) error {
	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	if err := ensureTenantExists(ctx, pool, opts.tenantID); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return withCode(exitDB, err)
	}

	where, args := periodFilters(opts)

	periods, err := exportPeriods(ctx, pool, opts.outputDir, where, args)
	if err != nil {
		return err
	}
	plans, err := exportShiftPlans(ctx, pool, opts.outputDir, where, args)
	if err != nil {
		return err
	}
	assignments, err := exportAssignments(ctx, pool, opts.outputDir, where, args)
	if err != nil {
		return err
	}

	type exportSummary struct {
		Status      string `json:"status"`
		TenantID    string `json:"tenant_id"`
		Periods     int    `json:"periods"`
		ShiftPlans  int    `json:"shift_plans"`
		Assignments int    `json:"assignments"`
	}
	return writeJSONLine(exportSummary{
		Status:      "exported",
		TenantID:    opts.tenantID.String(),
		Periods:     periods,
		ShiftPlans:  plans,
		Assignments: assignments,
	})
}

func ensureTenantExists(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID) error {
	var dummy int
	if err := pool.QueryRow(ctx, `SELECT 1 FROM tenants WHERE id=$1`, tenantID).Scan(&dummy); err != nil {
		if err == pgx.ErrNoRows {
			return withCode(exitValidation, fmt.Errorf("unknown tenant: %s", tenantID))
		}
		return withCode(exitDB, fmt.Errorf("check tenant existence: %w", err))
	}
	return nil
}

// periodFilters builds the WHERE clause shared by all three files. The alias
// p always refers to schedule_periods.
func periodFilters(opts exportOptions) (string, []any) {
	where := []string{"p.tenant_id = $1"}
	args := []any{opts.tenantID}
	if opts.propertyID != uuid.Nil {
		args = append(args, opts.propertyID)
		where = append(where, fmt.Sprintf("p.property_id = $%d", len(args)))
	}
	if opts.from != nil {
		args = append(args, *opts.from)
		where = append(where, fmt.Sprintf("p.end_date >= $%d", len(args)))
	}
	if opts.to != nil {
		args = append(args, *opts.to)
		where = append(where, fmt.Sprintf("p.start_date <= $%d", len(args)))
	}
	return strings.Join(where, " AND "), args
}

func exportPeriods(ctx context.Context, pool *pgxpool.Pool, dir, where string, args []any) (int, error) {
	f, err := os.Create(filepath.Join(dir, "schedule_periods.csv"))
	if err != nil {
		return 0, withCode(exitDB, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{"id", "property_id", "name", "start_date", "end_date", "status", "version", "published_at", "locked_at"}
	if err := w.Write(header); err != nil {
		return 0, withCode(exitDB, err)
	}

	rows, err := pool.Query(ctx, `
		SELECT
			p.id::text,
			p.property_id::text,
			p.name,
			p.start_date,
			p.end_date,
			p.status,
			p.version,
			p.published_at,
			p.locked_at
		FROM schedule_periods p
		WHERE `+where+`
		ORDER BY p.property_id, p.start_date
	`, args...)
	if err != nil {
		return 0, withCode(exitDB, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id, propertyID, name, status string
			startDate, endDate           time.Time
			version                      int
			publishedAt, lockedAt        *time.Time
		)
		if err := rows.Scan(&id, &propertyID, &name, &startDate, &endDate, &status, &version, &publishedAt, &lockedAt); err != nil {
			return 0, withCode(exitDB, err)
		}
		record := []string{
			id, propertyID, name,
			startDate.Format(time.DateOnly),
			endDate.Format(time.DateOnly),
			status,
			fmt.Sprintf("%d", version),
			formatTimePtr(publishedAt),
			formatTimePtr(lockedAt),
		}
		if err := w.Write(record); err != nil {
			return 0, withCode(exitDB, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, withCode(exitDB, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, withCode(exitDB, err)
	}
	return count, nil
}

func exportShiftPlans(ctx context.Context, pool *pgxpool.Pool, dir, where string, args []any) (int, error) {
	f, err := os.Create(filepath.Join(dir, "shift_plans.csv"))
	if err != nil {
		return 0, withCode(exitDB, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{"id", "schedule_period_id", "property_id", "job_role", "start_at", "end_at", "break_minutes", "is_open_shift"}
	if err := w.Write(header); err != nil {
		return 0, withCode(exitDB, err)
	}

	rows, err := pool.Query(ctx, `
		SELECT
			sp.id::text,
			sp.schedule_period_id::text,
			sp.property_id::text,
			COALESCE(jr.name, ''),
			sp.start_at,
			sp.end_at,
			sp.break_minutes,
			sp.is_open_shift
		FROM shift_plans sp
		JOIN schedule_periods p ON p.id = sp.schedule_period_id AND p.tenant_id = sp.tenant_id
		LEFT JOIN job_roles jr ON jr.id = sp.job_role_id AND jr.tenant_id = sp.tenant_id
		WHERE `+where+`
		ORDER BY sp.start_at, sp.id
	`, args...)
	if err != nil {
		return 0, withCode(exitDB, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id, periodID, propertyID, jobRole string
			startAt, endAt                    time.Time
			breakMinutes                      int
			isOpenShift                       bool
		)
		if err := rows.Scan(&id, &periodID, &propertyID, &jobRole, &startAt, &endAt, &breakMinutes, &isOpenShift); err != nil {
			return 0, withCode(exitDB, err)
		}
		record := []string{
			id, periodID, propertyID, jobRole,
			startAt.UTC().Format(time.RFC3339),
			endAt.UTC().Format(time.RFC3339),
			fmt.Sprintf("%d", breakMinutes),
			fmt.Sprintf("%t", isOpenShift),
		}
		if err := w.Write(record); err != nil {
			return 0, withCode(exitDB, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, withCode(exitDB, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, withCode(exitDB, err)
	}
	return count, nil
}

func exportAssignments(ctx context.Context, pool *pgxpool.Pool, dir, where string, args []any) (int, error) {
	f, err := os.Create(filepath.Join(dir, "shift_assignments.csv"))
	if err != nil {
		return 0, withCode(exitDB, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{"id", "shift_plan_id", "employee_email", "employee_name", "assigned_at"}
	if err := w.Write(header); err != nil {
		return 0, withCode(exitDB, err)
	}

	rows, err := pool.Query(ctx, `
		SELECT
			sa.id::text,
			sa.shift_plan_id::text,
			COALESCE(e.email, ''),
			COALESCE(e.first_name || ' ' || e.last_name, ''),
			sa.assigned_at
		FROM shift_assignments sa
		JOIN shift_plans sp ON sp.id = sa.shift_plan_id AND sp.tenant_id = sa.tenant_id
		JOIN schedule_periods p ON p.id = sp.schedule_period_id AND p.tenant_id = sp.tenant_id
		LEFT JOIN employees e ON e.id = sa.employee_id AND e.tenant_id = sa.tenant_id
		WHERE `+where+`
		ORDER BY sa.assigned_at, sa.id
	`, args...)
	if err != nil {
		return 0, withCode(exitDB, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id, planID, email, name string
			assignedAt              time.Time
		)
		if err := rows.Scan(&id, &planID, &email, &name, &assignedAt); err != nil {
			return 0, withCode(exitDB, err)
		}
		record := []string{id, planID, email, name, assignedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(record); err != nil {
			return 0, withCode(exitDB, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, withCode(exitDB, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, withCode(exitDB, err)
	}
	return count, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
