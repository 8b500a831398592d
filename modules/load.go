package modules

import (
	"github.com/lodgecrew/lodgecrew/modules/core"
	"github.com/lodgecrew/lodgecrew/modules/hrm"
	"github.com/lodgecrew/lodgecrew/modules/logging"
	"github.com/lodgecrew/lodgecrew/modules/scheduling"
	"github.com/lodgecrew/lodgecrew/modules/testkit"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

var BuiltInModules = []application.Module{
	core.NewModule(),
	hrm.NewModule(),
	scheduling.NewModule(),
	logging.NewModule(),
	testkit.NewModule(), // Test endpoints - only active when ENABLE_TEST_ENDPOINTS=true
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
