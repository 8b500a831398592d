package logging

import (
	"github.com/lodgecrew/lodgecrew/modules/logging/handlers"
	"github.com/lodgecrew/lodgecrew/modules/logging/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/logging/presentation/controllers"
	"github.com/lodgecrew/lodgecrew/modules/logging/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("logging")
	app.RegisterServices(
		services.NewLogsService(
			persistence.NewAuthenticationLogRepository(),
			persistence.NewActionLogRepository(),
		),
	)
	app.RegisterControllers(
		controllers.NewLogsController(app),
	)
	handlers.RegisterSessionEventHandlers(app)
	app.RegisterMiddleware(handlers.ActionLogMiddleware(app))
	return nil
}

func (m *Module) Name() string {
	return "logging"
}
