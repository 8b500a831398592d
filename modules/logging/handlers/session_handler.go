package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

type authenticationLogWriter interface {
	CreateAuthenticationLog(ctx context.Context, log *authenticationlog.AuthenticationLog) error
}

// SessionEventsHandler mirrors session issuance and explicit logout into the
// authentication audit trail.
type SessionEventsHandler struct {
	app    application.Application
	writer authenticationLogWriter
	logger *logrus.Logger
}

func NewSessionEventsHandler(app application.Application, writer authenticationLogWriter) *SessionEventsHandler {
	return &SessionEventsHandler{
		app:    app,
		writer: writer,
		logger: configuration.Use().Logger(),
	}
}

func RegisterSessionEventHandlers(app application.Application) {
	handler := NewSessionEventsHandler(app, app.Service(services.LogsService{}).(*services.LogsService))
	app.EventPublisher().Subscribe(handler.onSessionCreated)
	app.EventPublisher().Subscribe(handler.onSessionDeleted)
}

func (h *SessionEventsHandler) onSessionCreated(event *session.CreatedEvent) {
	h.record(event.Result, authenticationlog.EventLogin, event.Result.CreatedAt)
}

func (h *SessionEventsHandler) onSessionDeleted(event *session.DeletedEvent) {
	// Zero time: the repository stamps the logout moment, not the session start.
	h.record(event.Result, authenticationlog.EventLogout, time.Time{})
}

func (h *SessionEventsHandler) record(sess session.Session, kind string, at time.Time) {
	if h.writer == nil || h.app == nil {
		return
	}

	ctx := composables.WithPool(context.Background(), h.app.DB())
	ctx = composables.WithTenantID(ctx, sess.TenantID)

	logEntry := &authenticationlog.AuthenticationLog{
		UserID:    sess.UserID,
		Event:     kind,
		IP:        sess.IP,
		UserAgent: sess.UserAgent,
		CreatedAt: at,
		TenantID:  sess.TenantID,
	}

	if err := h.writer.CreateAuthenticationLog(ctx, logEntry); err != nil {
		h.logger.WithError(err).
			WithField("user_id", sess.UserID).
			WithField("event", kind).
			Warn("failed to persist authentication log")
	}
}
