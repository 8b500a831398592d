package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence/models"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const (
	userFindQuery = `
        SELECT
            u.id,
            u.tenant_id,
            u.email,
            u.first_name,
            u.last_name,
            u.role,
            u.employee_id,
            u.is_active,
            u.created_at,
            u.updated_at
        FROM users u`

	userPropertiesQuery = `SELECT property_id FROM user_properties WHERE user_id = $1 ORDER BY created_at`

	userInsertQuery = `
		INSERT INTO users (id, tenant_id, email, first_name, last_name, role, employee_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	userPropertyInsertQuery = `INSERT INTO user_properties (user_id, property_id) VALUES ($1, $2)`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return g.findOne(ctx, " WHERE u.id = $1 AND u.tenant_id = $2", id)
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return g.findOne(ctx, " WHERE u.email = $1 AND u.tenant_id = $2", email)
}

func (g *PgUserRepository) findOne(ctx context.Context, cond string, arg interface{}) (user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	users, err := g.queryUsers(ctx, userFindQuery+cond, arg, tenantID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

func (g *PgUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	dbUser := toDBUser(data)
	if _, err := tx.Exec(
		ctx,
		userInsertQuery,
		dbUser.ID,
		dbUser.TenantID,
		dbUser.Email,
		dbUser.FirstName,
		dbUser.LastName,
		dbUser.Role,
		dbUser.EmployeeID,
		dbUser.IsActive,
		dbUser.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}

	for _, propertyID := range data.PropertyIDs() {
		if _, err := tx.Exec(ctx, userPropertyInsertQuery, dbUser.ID, propertyID.String()); err != nil {
			return nil, errors.Wrap(err, "failed to insert user property")
		}
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	// Rows must be drained before the property lookups run; the tx serves
	// one query at a time.
	var dbUsers []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.TenantID,
			&u.Email,
			&u.FirstName,
			&u.LastName,
			&u.Role,
			&u.EmployeeID,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		dbUsers = append(dbUsers, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	users := make([]user.User, 0, len(dbUsers))
	for _, dbUser := range dbUsers {
		propertyIDs, err := g.queryUserProperties(ctx, dbUser.ID)
		if err != nil {
			return nil, err
		}
		entity, err := ToDomainUser(dbUser, propertyIDs)
		if err != nil {
			return nil, err
		}
		users = append(users, entity)
	}
	return users, nil
}

func (g *PgUserRepository) queryUserProperties(ctx context.Context, userID string) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, userPropertiesQuery, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user properties")
	}
	defer rows.Close()

	var propertyIDs []uuid.UUID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, errors.Wrap(err, "failed to scan user property row")
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, errors.Wrap(err, "invalid property id")
		}
		propertyIDs = append(propertyIDs, id)
	}
	return propertyIDs, rows.Err()
}
