package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/actionlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/infrastructure/persistence/models"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/repo"
)

const (
	actionLogFindQuery = `
		SELECT id, tenant_id, user_id, method, path, status, user_agent, ip, created_at
		FROM action_logs`

	actionLogCountQuery = `SELECT COUNT(*) FROM action_logs`

	actionLogInsertQuery = `
		INSERT INTO action_logs (tenant_id, method, path, status, user_id, user_agent, ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
)

type PgActionLogRepository struct{}

func NewActionLogRepository() actionlog.Repository {
	return &PgActionLogRepository{}
}

func (g *PgActionLogRepository) List(ctx context.Context, params *actionlog.FindParams) ([]*actionlog.ActionLog, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	where, args := actionLogFilters(params, tenantID)
	query := actionLogFindQuery + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"
	if params != nil {
		query = repo.Join(query, repo.FormatLimitOffset(params.Limit, params.Offset))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query action logs")
	}
	defer rows.Close()

	out := make([]*actionlog.ActionLog, 0)
	for rows.Next() {
		var row models.ActionLog
		if err := rows.Scan(
			&row.ID, &row.TenantID, &row.UserID, &row.Method, &row.Path,
			&row.Status, &row.UserAgent, &row.IP, &row.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan action log")
		}
		out = append(out, toDomainActionLog(&row))
	}
	return out, rows.Err()
}

func (g *PgActionLogRepository) Count(ctx context.Context, params *actionlog.FindParams) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := actionLogFilters(params, tenantID)
	var count int64
	if err := tx.QueryRow(ctx, actionLogCountQuery+" WHERE "+strings.Join(where, " AND "), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count action logs")
	}
	return count, nil
}

// Create stamps the tenant and timestamp when the caller left them empty.
func (g *PgActionLogRepository) Create(ctx context.Context, log *actionlog.ActionLog) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	if log.TenantID == uuid.Nil {
		log.TenantID = tenantID
	}
	dbRow := toDBActionLog(log)
	if dbRow.CreatedAt.IsZero() {
		dbRow.CreatedAt = time.Now()
	}

	if err := tx.QueryRow(
		ctx,
		actionLogInsertQuery,
		dbRow.TenantID, dbRow.Method, dbRow.Path, dbRow.Status,
		dbRow.UserID, dbRow.UserAgent, dbRow.IP, dbRow.CreatedAt,
	).Scan(&log.ID, &log.CreatedAt); err != nil {
		return errors.Wrap(err, "failed to insert action log")
	}
	return nil
}

func actionLogFilters(params *actionlog.FindParams, tenantID uuid.UUID) ([]string, []interface{}) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	if params == nil {
		return where, args
	}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if params.UserID != nil {
		add("user_id = $%d", *params.UserID)
	}
	if v := strings.TrimSpace(params.Method); v != "" {
		add("LOWER(method) = LOWER($%d)", v)
	}
	if v := strings.TrimSpace(params.Path); v != "" {
		add("path ILIKE $%d", "%"+v+"%")
	}
	if params.Status != nil {
		add("status = $%d", *params.Status)
	}
	if v := strings.TrimSpace(params.IP); v != "" {
		add("ip ILIKE $%d", "%"+v+"%")
	}
	if v := strings.TrimSpace(params.UserAgent); v != "" {
		add("user_agent ILIKE $%d", "%"+v+"%")
	}
	if params.From != nil && !params.From.IsZero() {
		add("created_at >= $%d", *params.From)
	}
	if params.To != nil && !params.To.IsZero() {
		add("created_at <= $%d", *params.To)
	}
	return where, args
}
