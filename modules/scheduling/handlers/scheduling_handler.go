package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/swap"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// ScheduleEventsHandler turns scheduling domain events into operational log
// lines. The durable audit trail for publishes lives in the publish-event
// table; this is for operators tailing the service.
type ScheduleEventsHandler struct {
	app    application.Application
	logger *logrus.Logger
}

func RegisterScheduleEventHandlers(app application.Application) {
	handler := &ScheduleEventsHandler{
		app:    app,
		logger: configuration.Use().Logger(),
	}
	app.EventPublisher().Subscribe(handler.onPeriodPublished)
	app.EventPublisher().Subscribe(handler.onPeriodLocked)
	app.EventPublisher().Subscribe(handler.onSwapDecided)
}

func (h *ScheduleEventsHandler) onPeriodPublished(event *period.PublishedEvent) {
	h.logger.WithFields(logrus.Fields{
		"tenant_id":   event.Result.TenantID().String(),
		"property_id": event.Result.PropertyID().String(),
		"period_id":   event.Result.ID().String(),
		"version":     event.Result.Version(),
	}).Info("schedule period published")
}

func (h *ScheduleEventsHandler) onPeriodLocked(event *period.LockedEvent) {
	h.logger.WithFields(logrus.Fields{
		"tenant_id":   event.Result.TenantID().String(),
		"property_id": event.Result.PropertyID().String(),
		"period_id":   event.Result.ID().String(),
	}).Info("schedule period locked")
}

func (h *ScheduleEventsHandler) onSwapDecided(event *swap.DecidedEvent) {
	h.logger.WithFields(logrus.Fields{
		"tenant_id":     event.Result.TenantID().String(),
		"property_id":   event.Result.PropertyID().String(),
		"request_id":    event.Result.ID().String(),
		"shift_plan_id": event.Result.ShiftPlanID().String(),
		"status":        string(event.Result.Status()),
	}).Info("swap request decided")
}
