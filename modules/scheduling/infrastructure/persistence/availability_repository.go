package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/entities/availability"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	availabilityFindQuery = `
		SELECT id, tenant_id, property_id, employee_id, day, start_time, end_time, kind, recurrence_rule, created_at
		FROM employee_availability`

	availabilityInsertQuery = `
		INSERT INTO employee_availability (
			id, tenant_id, property_id, employee_id, day, start_time, end_time, kind, recurrence_rule, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`

	availabilityDeleteQuery = `DELETE FROM employee_availability WHERE id = $1 AND tenant_id = $2`
)

type PgAvailabilityRepository struct{}

func NewAvailabilityRepository() availability.Repository {
	return &PgAvailabilityRepository{}
}

func (g *PgAvailabilityRepository) Create(ctx context.Context, data availability.Entry) (availability.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to get transaction")
	}

	_, err = tx.Exec(
		ctx,
		availabilityInsertQuery,
		data.ID,
		data.TenantID,
		data.PropertyID,
		data.EmployeeID,
		data.Day,
		data.StartTime,
		data.EndTime,
		string(data.Kind),
		data.RecurrenceRule,
	)
	if err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to insert availability entry")
	}
	return g.GetByID(ctx, data.ID)
}

func (g *PgAvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (availability.Entry, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to get transaction")
	}

	e, err := scanAvailability(tx.QueryRow(ctx, availabilityFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return availability.Entry{}, availability.ErrNotFound
		}
		return availability.Entry{}, err
	}
	return e, nil
}

func (g *PgAvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, availabilityDeleteQuery, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete availability entry")
	}
	if tag.RowsAffected() == 0 {
		return availability.ErrNotFound
	}
	return nil
}

func (g *PgAvailabilityRepository) List(ctx context.Context, filter availability.ListFilter) ([]availability.Entry, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	query := availabilityFindQuery + " WHERE property_id = $1 AND tenant_id = $2"
	args := []interface{}{filter.PropertyID, tenantID}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += fmt.Sprintf(" AND day >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += fmt.Sprintf(" AND day <= $%d", len(args))
	}
	query += " ORDER BY day, start_time"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query availability entries")
	}
	defer rows.Close()

	entries := make([]availability.Entry, 0)
	for rows.Next() {
		e, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (g *PgAvailabilityRepository) EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND tenant_id = $2)`, employeeID, tenantID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check employee")
	}
	return exists, nil
}

func scanAvailability(row pgx.Row) (availability.Entry, error) {
	var (
		e                                          availability.Entry
		idStr, tenantStr, propertyStr, employeeStr string
		kind                                       string
	)

	err := row.Scan(
		&idStr, &tenantStr, &propertyStr, &employeeStr,
		&e.Day, &e.StartTime, &e.EndTime, &kind, &e.RecurrenceRule, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return availability.Entry{}, err
		}
		return availability.Entry{}, errors.Wrap(err, "failed to scan availability entry")
	}

	if e.ID, err = uuid.Parse(idStr); err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to parse availability id")
	}
	if e.TenantID, err = uuid.Parse(tenantStr); err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to parse tenant id")
	}
	if e.PropertyID, err = uuid.Parse(propertyStr); err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to parse property id")
	}
	if e.EmployeeID, err = uuid.Parse(employeeStr); err != nil {
		return availability.Entry{}, errors.Wrap(err, "failed to parse employee id")
	}
	e.Kind = availability.Kind(kind)
	return e, nil
}
