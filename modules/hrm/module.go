package hrm

import (
	"github.com/lodgecrew/lodgecrew/modules/hrm/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/hrm/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("hrm")

	app.RegisterServices(
		services.NewEmployeeService(
			persistence.NewEmployeeRepository(),
			persistence.NewJobAssignmentRepository(),
			app.EventPublisher(),
		),
		services.NewJobRoleService(
			persistence.NewJobRoleRepository(),
			app.EventPublisher(),
		),
	)
	return nil
}

func (m *Module) Name() string {
	return "hrm"
}
