package seed

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/tenant"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// DefaultTenantID is the fixed id the development seed binds everything to.
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func CreateDefaultTenant(ctx context.Context, app application.Application) error {
	logger := configuration.Use().Logger()
	tenantRepository := persistence.NewTenantRepository()

	if existing, err := tenantRepository.GetByID(ctx, DefaultTenantID); err == nil && existing != nil {
		logger.Infof("Default tenant already exists")
		return nil
	}

	logger.Infof("Creating default tenant")
	defaultTenant := tenant.New(
		"Default",
		tenant.WithID(DefaultTenantID),
		tenant.WithDomain("default.localhost"),
	)
	if _, err := tenantRepository.Create(ctx, defaultTenant); err != nil {
		logger.Errorf("Failed to create default tenant: %v", err)
		return err
	}
	return nil
}
