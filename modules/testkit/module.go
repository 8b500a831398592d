package testkit

import (
	"github.com/lodgecrew/lodgecrew/modules/testkit/presentation/controllers"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterControllers(
		controllers.NewTestEndpointsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "testkit"
}
