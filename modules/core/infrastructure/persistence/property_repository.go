package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/property"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence/models"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var (
	ErrPropertyNotFound = errors.New("property not found")
)

const (
	propertyFindQuery = `
		SELECT id, tenant_id, name, timezone, is_active, created_at
		FROM properties`

	propertyInsertQuery = `
		INSERT INTO properties (id, tenant_id, name, timezone, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

type PropertyRepository struct{}

func NewPropertyRepository() property.Repository {
	return &PropertyRepository{}
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	properties, err := r.queryProperties(ctx, propertyFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, ErrPropertyNotFound
	}
	return properties[0], nil
}

func (r *PropertyRepository) GetAll(ctx context.Context) ([]*property.Property, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return r.queryProperties(ctx, propertyFindQuery+" WHERE tenant_id = $1 ORDER BY name", tenantID)
}

func (r *PropertyRepository) Create(ctx context.Context, p *property.Property) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbProperty := toDBProperty(p)
	if _, err := tx.Exec(
		ctx,
		propertyInsertQuery,
		dbProperty.ID,
		dbProperty.TenantID,
		dbProperty.Name,
		dbProperty.Timezone,
		dbProperty.IsActive,
		dbProperty.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "failed to insert property")
	}
	return nil
}

func (r *PropertyRepository) queryProperties(ctx context.Context, query string, args ...interface{}) ([]*property.Property, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var properties []*property.Property
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(
			&p.ID,
			&p.TenantID,
			&p.Name,
			&p.Timezone,
			&p.IsActive,
			&p.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan property row")
		}
		entity, err := ToDomainProperty(&p)
		if err != nil {
			return nil, err
		}
		properties = append(properties, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return properties, nil
}
