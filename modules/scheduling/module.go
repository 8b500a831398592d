package scheduling

import (
	"github.com/lodgecrew/lodgecrew/modules/scheduling/handlers"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/infrastructure/persistence"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/presentation/controllers"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("scheduling")

	periodRepo := persistence.NewPeriodRepository()
	shiftRepo := persistence.NewShiftRepository()
	eligibilityRepo := persistence.NewEligibilityRepository()
	swapRepo := persistence.NewSwapRepository()
	availabilityRepo := persistence.NewAvailabilityRepository()

	app.RegisterServices(
		services.NewSchedulePeriodService(periodRepo, app.EventPublisher()),
		services.NewShiftService(shiftRepo, eligibilityRepo, periodRepo),
		services.NewSwapRequestService(swapRepo, shiftRepo, eligibilityRepo, app.EventPublisher()),
		services.NewAvailabilityService(availabilityRepo),
		services.NewSignalsService(periodRepo, shiftRepo, swapRepo),
	)

	app.RegisterControllers(
		controllers.NewSchedulingAPIController(app),
	)

	handlers.RegisterScheduleEventHandlers(app)
	return nil
}

func (m *Module) Name() string {
	return "scheduling"
}
