package persistence

import (
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/property"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/tenant"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence/models"
)

func ToDomainTenant(dbTenant *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(dbTenant.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tenant id")
	}

	return tenant.New(
		dbTenant.Name,
		tenant.WithID(id),
		tenant.WithDomain(dbTenant.Domain.String),
		tenant.WithIsActive(dbTenant.IsActive),
		tenant.WithCreatedAt(dbTenant.CreatedAt),
		tenant.WithUpdatedAt(dbTenant.UpdatedAt),
	), nil
}

func toDBTenant(entity *tenant.Tenant) *models.Tenant {
	var domain sql.NullString
	if entity.Domain() != "" {
		domain = sql.NullString{String: entity.Domain(), Valid: true}
	}
	return &models.Tenant{
		ID:        entity.ID().String(),
		Name:      entity.Name(),
		Domain:    domain,
		IsActive:  entity.IsActive(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

func ToDomainUser(dbUser *models.User, propertyIDs []uuid.UUID) (user.User, error) {
	id, err := uuid.Parse(dbUser.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user id")
	}
	tenantID, err := uuid.Parse(dbUser.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user tenant id")
	}

	options := []user.Option{
		user.WithID(id),
		user.WithName(dbUser.FirstName, dbUser.LastName),
		user.WithPropertyIDs(propertyIDs),
		user.WithIsActive(dbUser.IsActive),
		user.WithCreatedAt(dbUser.CreatedAt),
	}

	if dbUser.EmployeeID.Valid {
		employeeID, err := uuid.Parse(dbUser.EmployeeID.String)
		if err != nil {
			return nil, errors.Wrap(err, "invalid user employee id")
		}
		options = append(options, user.WithEmployeeID(employeeID))
	}

	return user.New(tenantID, dbUser.Email, user.Role(dbUser.Role), options...), nil
}

func toDBUser(entity user.User) *models.User {
	var employeeID sql.NullString
	if entity.EmployeeID() != uuid.Nil {
		employeeID = sql.NullString{String: entity.EmployeeID().String(), Valid: true}
	}
	return &models.User{
		ID:         entity.ID().String(),
		TenantID:   entity.TenantID().String(),
		Email:      entity.Email(),
		FirstName:  entity.FirstName(),
		LastName:   entity.LastName(),
		Role:       string(entity.Role()),
		EmployeeID: employeeID,
		IsActive:   entity.IsActive(),
		CreatedAt:  entity.CreatedAt(),
	}
}

func ToDomainSession(dbSession *models.Session) (*session.Session, error) {
	userID, err := uuid.Parse(dbSession.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid session user id")
	}
	tenantID, err := uuid.Parse(dbSession.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid session tenant id")
	}

	return &session.Session{
		Token:     dbSession.Token,
		UserID:    userID,
		TenantID:  tenantID,
		IP:        dbSession.IP,
		UserAgent: dbSession.UserAgent,
		ExpiresAt: dbSession.ExpiresAt,
		CreatedAt: dbSession.CreatedAt,
	}, nil
}

func toDBSession(entity *session.Session) *models.Session {
	return &models.Session{
		Token:     entity.Token,
		TenantID:  entity.TenantID.String(),
		UserID:    entity.UserID.String(),
		ExpiresAt: entity.ExpiresAt,
		IP:        entity.IP,
		UserAgent: entity.UserAgent,
		CreatedAt: entity.CreatedAt,
	}
}

func ToDomainProperty(dbProperty *models.Property) (*property.Property, error) {
	id, err := uuid.Parse(dbProperty.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid property id")
	}
	tenantID, err := uuid.Parse(dbProperty.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid property tenant id")
	}

	return property.New(
		tenantID,
		dbProperty.Name,
		property.WithID(id),
		property.WithTimezone(dbProperty.Timezone),
		property.WithIsActive(dbProperty.IsActive),
		property.WithCreatedAt(dbProperty.CreatedAt),
	), nil
}

func toDBProperty(entity *property.Property) *models.Property {
	return &models.Property{
		ID:        entity.ID().String(),
		TenantID:  entity.TenantID().String(),
		Name:      entity.Name(),
		Timezone:  entity.Timezone(),
		IsActive:  entity.IsActive(),
		CreatedAt: entity.CreatedAt(),
	}
}
