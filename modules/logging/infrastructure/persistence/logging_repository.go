package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/infrastructure/persistence/models"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/repo"
)

const (
	authLogFindQuery = `
		SELECT id, tenant_id, user_id, event, ip, user_agent, created_at
		FROM authentication_logs`

	authLogCountQuery = `SELECT COUNT(*) FROM authentication_logs`

	authLogInsertQuery = `
		INSERT INTO authentication_logs (tenant_id, user_id, event, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
)

type PgAuthenticationLogRepository struct{}

func NewAuthenticationLogRepository() authenticationlog.Repository {
	return &PgAuthenticationLogRepository{}
}

func (g *PgAuthenticationLogRepository) List(
	ctx context.Context,
	params *authenticationlog.FindParams,
) ([]*authenticationlog.AuthenticationLog, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	where, args := authLogFilters(params, tenantID)
	query := authLogFindQuery + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"
	if params != nil {
		query = repo.Join(query, repo.FormatLimitOffset(params.Limit, params.Offset))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query authentication logs")
	}
	defer rows.Close()

	out := make([]*authenticationlog.AuthenticationLog, 0)
	for rows.Next() {
		var row models.AuthenticationLog
		if err := rows.Scan(
			&row.ID, &row.TenantID, &row.UserID, &row.Event,
			&row.IP, &row.UserAgent, &row.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan authentication log")
		}
		out = append(out, toDomainAuthenticationLog(&row))
	}
	return out, rows.Err()
}

func (g *PgAuthenticationLogRepository) Count(ctx context.Context, params *authenticationlog.FindParams) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := authLogFilters(params, tenantID)
	var count int64
	if err := tx.QueryRow(ctx, authLogCountQuery+" WHERE "+strings.Join(where, " AND "), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count authentication logs")
	}
	return count, nil
}

// Create stamps the tenant, timestamp, and event kind when the caller left
// them empty. The event defaults to login; only the logout subscriber sets
// anything else.
func (g *PgAuthenticationLogRepository) Create(ctx context.Context, log *authenticationlog.AuthenticationLog) error {
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
	dbRow := toDBAuthenticationLog(log)
	if dbRow.CreatedAt.IsZero() {
		dbRow.CreatedAt = time.Now()
	}
	if dbRow.Event == "" {
		dbRow.Event = authenticationlog.EventLogin
	}

	if err := tx.QueryRow(
		ctx,
		authLogInsertQuery,
		dbRow.TenantID, dbRow.UserID, dbRow.Event, dbRow.IP, dbRow.UserAgent, dbRow.CreatedAt,
	).Scan(&log.ID, &log.CreatedAt); err != nil {
		return errors.Wrap(err, "failed to insert authentication log")
	}
	return nil
}

func authLogFilters(params *authenticationlog.FindParams, tenantID uuid.UUID) ([]string, []interface{}) {
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
	if v := strings.TrimSpace(params.Event); v != "" {
		add("event = $%d", v)
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
