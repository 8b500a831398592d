package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	swapFindQuery = `
		SELECT id, tenant_id, property_id, shift_plan_id, requestor_employee_id, target_employee_id,
			status, decided_by, decided_at, created_at, updated_at
		FROM shift_swap_requests`

	swapInsertQuery = `
		INSERT INTO shift_swap_requests (
			id, tenant_id, property_id, shift_plan_id, requestor_employee_id, target_employee_id,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	swapUpdateQuery = `
		UPDATE shift_swap_requests
		SET status = $1, decided_by = $2, decided_at = $3, updated_at = $4
		WHERE id = $5 AND tenant_id = $6`
)

type PgSwapRepository struct{}

func NewSwapRepository() swap.Repository {
	return &PgSwapRepository{}
}

func (g *PgSwapRepository) Create(ctx context.Context, data swap.Request) (swap.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to get transaction")
	}

	_, err = tx.Exec(
		ctx,
		swapInsertQuery,
		data.ID(),
		data.TenantID(),
		data.PropertyID(),
		data.ShiftPlanID(),
		data.RequestorEmployeeID(),
		data.TargetEmployeeID(),
		string(data.Status()),
		data.CreatedAt(),
		data.UpdatedAt(),
	)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to insert swap request")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgSwapRepository) GetByID(ctx context.Context, id uuid.UUID) (swap.Request, error) {
	return g.getOne(ctx, swapFindQuery+" WHERE id = $1 AND tenant_id = $2", id)
}

func (g *PgSwapRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (swap.Request, error) {
	return g.getOne(ctx, swapFindQuery+" WHERE id = $1 AND tenant_id = $2 FOR UPDATE", id)
}

func (g *PgSwapRepository) getOne(ctx context.Context, query string, id uuid.UUID) (swap.Request, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to get transaction")
	}

	r, err := scanSwapRequest(tx.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return swap.Request{}, swap.ErrNotFound
		}
		return swap.Request{}, err
	}
	return r, nil
}

func (g *PgSwapRepository) FindPending(ctx context.Context, shiftPlanID, requestorEmployeeID, targetEmployeeID uuid.UUID) (swap.Request, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to get transaction")
	}

	r, err := scanSwapRequest(tx.QueryRow(
		ctx,
		swapFindQuery+` WHERE shift_plan_id = $1 AND requestor_employee_id = $2 AND target_employee_id = $3
			AND status = $4 AND tenant_id = $5`,
		shiftPlanID, requestorEmployeeID, targetEmployeeID, string(swap.StatusPending), tenantID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return swap.Request{}, swap.ErrNotFound
		}
		return swap.Request{}, err
	}
	return r, nil
}

func (g *PgSwapRepository) Update(ctx context.Context, data swap.Request) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(
		ctx,
		swapUpdateQuery,
		string(data.Status()),
		nullUUIDParam(data.DecidedBy()),
		nullTimeParam(data.DecidedAt()),
		data.UpdatedAt(),
		data.ID(),
		data.TenantID(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update swap request")
	}
	if tag.RowsAffected() == 0 {
		return swap.ErrNotFound
	}
	return nil
}

func (g *PgSwapRepository) List(ctx context.Context, filter swap.ListFilter) ([]swap.Request, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	query := swapFindQuery + " WHERE property_id = $1 AND tenant_id = $2"
	args := []interface{}{filter.PropertyID, tenantID}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		query += fmt.Sprintf(" AND (requestor_employee_id = $%d OR target_employee_id = $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query swap requests")
	}
	defer rows.Close()

	requests := make([]swap.Request, 0)
	for rows.Next() {
		r, err := scanSwapRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (g *PgSwapRepository) CountPending(ctx context.Context, propertyID uuid.UUID) (int, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	var count int
	err = tx.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM shift_swap_requests WHERE property_id = $1 AND tenant_id = $2 AND status = $3`,
		propertyID, tenantID, string(swap.StatusPending),
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pending swap requests")
	}
	return count, nil
}

func scanSwapRequest(row pgx.Row) (swap.Request, error) {
	var (
		idStr, tenantStr, propertyStr, planStr string
		requestorStr, targetStr, status        string
		decidedBy                              sql.NullString
		decidedAt                              sql.NullTime
		createdAt, updatedAt                   time.Time
	)

	err := row.Scan(
		&idStr, &tenantStr, &propertyStr, &planStr, &requestorStr, &targetStr,
		&status, &decidedBy, &decidedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return swap.Request{}, err
		}
		return swap.Request{}, errors.Wrap(err, "failed to scan swap request")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to parse swap request id")
	}
	tenantID, err := uuid.Parse(tenantStr)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to parse tenant id")
	}
	propertyID, err := uuid.Parse(propertyStr)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to parse property id")
	}
	planID, err := uuid.Parse(planStr)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to parse shift plan id")
	}
	requestorID, err := uuid.Parse(requestorStr)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to parse requestor employee id")
	}
	targetID, err := uuid.Parse(targetStr)
	if err != nil {
		return swap.Request{}, errors.Wrap(err, "failed to parse target employee id")
	}
	decidedByID, err := nullableUUID(decidedBy)
	if err != nil {
		return swap.Request{}, err
	}

	return swap.Hydrate(
		id, tenantID, propertyID, planID, requestorID, targetID,
		swap.Status(status),
		decidedByID,
		nullableTime(decidedAt),
		createdAt, updatedAt,
	), nil
}
