package core

import (
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/core/presentation/controllers"
	"github.com/lodgecrew/lodgecrew/modules/core/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("core")

	userRepo := persistence.NewUserRepository()
	tenantRepo := persistence.NewTenantRepository()
	sessionRepo := persistence.NewSessionRepository()
	propertyRepo := persistence.NewPropertyRepository()

	app.RegisterServices(
		services.NewUserService(userRepo, app.EventPublisher()),
		services.NewSessionService(sessionRepo, app.EventPublisher()),
		services.NewTenantService(tenantRepo),
		services.NewPropertyService(propertyRepo),
	)

	app.RegisterControllers(
		controllers.NewHealthController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
