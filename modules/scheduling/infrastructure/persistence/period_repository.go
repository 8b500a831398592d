package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

const (
	periodFindQuery = `
		SELECT id, tenant_id, property_id, start_date, end_date, status, version, name,
			planning_template_id, created_by, created_at,
			published_by, published_at, publish_notes, locked_by, locked_at
		FROM schedule_periods`

	periodInsertQuery = `
		INSERT INTO schedule_periods (
			id, tenant_id, property_id, start_date, end_date, status, version, name,
			planning_template_id, created_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`

	periodUpdateQuery = `
		UPDATE schedule_periods
		SET status = $1, version = $2, name = $3,
			published_by = $4, published_at = $5, publish_notes = $6,
			locked_by = $7, locked_at = $8
		WHERE id = $9 AND tenant_id = $10`

	publishEventInsertQuery = `
		INSERT INTO schedule_publish_events (id, tenant_id, period_id, published_by, published_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`

	publishEventFindQuery = `
		SELECT id, tenant_id, period_id, published_by, published_at, notes
		FROM schedule_publish_events`
)

type PgPeriodRepository struct{}

func NewPeriodRepository() period.Repository {
	return &PgPeriodRepository{}
}

func (g *PgPeriodRepository) Create(ctx context.Context, data period.SchedulePeriod) (period.SchedulePeriod, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to get transaction")
	}

	_, err = tx.Exec(
		ctx,
		periodInsertQuery,
		data.ID(),
		data.TenantID(),
		data.PropertyID(),
		data.StartDate(),
		data.EndDate(),
		string(data.Status()),
		data.Version(),
		data.Name(),
		nullUUIDParam(data.PlanningTemplateID()),
		data.CreatedBy(),
	)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to insert schedule period")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgPeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (period.SchedulePeriod, error) {
	return g.getOne(ctx, periodFindQuery+" WHERE id = $1 AND tenant_id = $2", id)
}

func (g *PgPeriodRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (period.SchedulePeriod, error) {
	return g.getOne(ctx, periodFindQuery+" WHERE id = $1 AND tenant_id = $2 FOR UPDATE", id)
}

func (g *PgPeriodRepository) getOne(ctx context.Context, query string, id uuid.UUID) (period.SchedulePeriod, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to get transaction")
	}

	p, err := scanPeriod(tx.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return period.SchedulePeriod{}, period.ErrNotFound
		}
		return period.SchedulePeriod{}, err
	}
	return p, nil
}

func (g *PgPeriodRepository) Update(ctx context.Context, data period.SchedulePeriod) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(
		ctx,
		periodUpdateQuery,
		string(data.Status()),
		data.Version(),
		data.Name(),
		nullUUIDParam(data.PublishedBy()),
		nullTimeParam(data.PublishedAt()),
		data.PublishNotes(),
		nullUUIDParam(data.LockedBy()),
		nullTimeParam(data.LockedAt()),
		data.ID(),
		data.TenantID(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update schedule period")
	}
	if tag.RowsAffected() == 0 {
		return period.ErrNotFound
	}
	return nil
}

func (g *PgPeriodRepository) List(ctx context.Context, filter period.ListFilter) ([]period.SchedulePeriod, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	query := periodFindQuery + " WHERE property_id = $1 AND tenant_id = $2"
	args := []interface{}{filter.PropertyID, tenantID}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += fmt.Sprintf(" AND end_date >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += fmt.Sprintf(" AND start_date <= $%d", len(args))
	}
	query += " ORDER BY start_date"

	return g.queryPeriods(ctx, query, args...)
}

func (g *PgPeriodRepository) FindCovering(ctx context.Context, propertyID uuid.UUID, day time.Time) (period.SchedulePeriod, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to get tenant from context")
	}

	matches, err := g.queryPeriods(
		ctx,
		periodFindQuery+" WHERE property_id = $1 AND tenant_id = $2 AND start_date <= $3 AND end_date >= $3 ORDER BY start_date LIMIT 1",
		propertyID, tenantID, day,
	)
	if err != nil {
		return period.SchedulePeriod{}, err
	}
	if len(matches) == 0 {
		return period.SchedulePeriod{}, period.ErrNotFound
	}
	return matches[0], nil
}

func (g *PgPeriodRepository) CreatePublishEvent(ctx context.Context, event period.PublishEvent) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	_, err = tx.Exec(
		ctx,
		publishEventInsertQuery,
		event.ID,
		event.TenantID,
		event.PeriodID,
		event.PublishedBy,
		event.PublishedAt,
		event.Notes,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert publish event")
	}
	return nil
}

func (g *PgPeriodRepository) ListPublishEvents(ctx context.Context, periodID uuid.UUID) ([]period.PublishEvent, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, publishEventFindQuery+" WHERE period_id = $1 AND tenant_id = $2 ORDER BY published_at", periodID, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query publish events")
	}
	defer rows.Close()

	events := make([]period.PublishEvent, 0)
	for rows.Next() {
		var (
			ev                          period.PublishEvent
			idStr, tenantStr, periodStr string
			publishedByStr              string
		)
		if err := rows.Scan(&idStr, &tenantStr, &periodStr, &publishedByStr, &ev.PublishedAt, &ev.Notes); err != nil {
			return nil, errors.Wrap(err, "failed to scan publish event")
		}
		if ev.ID, err = uuid.Parse(idStr); err != nil {
			return nil, errors.Wrap(err, "failed to parse publish event id")
		}
		if ev.TenantID, err = uuid.Parse(tenantStr); err != nil {
			return nil, errors.Wrap(err, "failed to parse tenant id")
		}
		if ev.PeriodID, err = uuid.Parse(periodStr); err != nil {
			return nil, errors.Wrap(err, "failed to parse period id")
		}
		if ev.PublishedBy, err = uuid.Parse(publishedByStr); err != nil {
			return nil, errors.Wrap(err, "failed to parse published_by")
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (g *PgPeriodRepository) queryPeriods(ctx context.Context, query string, args ...interface{}) ([]period.SchedulePeriod, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query schedule periods")
	}
	defer rows.Close()

	periods := make([]period.SchedulePeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func scanPeriod(row pgx.Row) (period.SchedulePeriod, error) {
	var (
		idStr, tenantStr, propertyStr, createdByStr string
		startDate, endDate, createdAt               time.Time
		status, name, publishNotes                  string
		version                                     int
		planningTemplateID                          sql.NullString
		publishedBy, lockedBy                       sql.NullString
		publishedAt, lockedAt                       sql.NullTime
	)

	err := row.Scan(
		&idStr, &tenantStr, &propertyStr, &startDate, &endDate, &status, &version, &name,
		&planningTemplateID, &createdByStr, &createdAt,
		&publishedBy, &publishedAt, &publishNotes, &lockedBy, &lockedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return period.SchedulePeriod{}, err
		}
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to scan schedule period")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to parse period id")
	}
	tenantID, err := uuid.Parse(tenantStr)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to parse tenant id")
	}
	propertyID, err := uuid.Parse(propertyStr)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to parse property id")
	}
	createdBy, err := uuid.Parse(createdByStr)
	if err != nil {
		return period.SchedulePeriod{}, errors.Wrap(err, "failed to parse created_by")
	}
	templateID, err := nullableUUID(planningTemplateID)
	if err != nil {
		return period.SchedulePeriod{}, err
	}
	publishedByID, err := nullableUUID(publishedBy)
	if err != nil {
		return period.SchedulePeriod{}, err
	}
	lockedByID, err := nullableUUID(lockedBy)
	if err != nil {
		return period.SchedulePeriod{}, err
	}

	return period.Hydrate(
		id, tenantID, propertyID,
		startDate, endDate,
		period.Status(status),
		version,
		name,
		templateID,
		createdBy,
		createdAt,
		publishedByID,
		nullableTime(publishedAt),
		publishNotes,
		lockedByID,
		nullableTime(lockedAt),
	), nil
}
