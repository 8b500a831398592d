package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type stubLogWriter struct {
	created []*authenticationlog.AuthenticationLog
}

func (s *stubLogWriter) CreateAuthenticationLog(ctx context.Context, log *authenticationlog.AuthenticationLog) error {
	s.created = append(s.created, log)
	return nil
}

func TestSessionEventsHandler_RecordsLogin(t *testing.T) {
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(nil),
	})

	writer := &stubLogWriter{}
	handler := NewSessionEventsHandler(app, writer)
	app.EventPublisher().Subscribe(handler.onSessionCreated)

	tenantID := uuid.New()
	userID := uuid.New()
	issuedAt := time.Now()
	app.EventPublisher().Publish(session.NewCreatedEvent(session.Session{
		Token:     "tok-1",
		UserID:    userID,
		TenantID:  tenantID,
		IP:        "10.0.0.1",
		UserAgent: "agent",
		CreatedAt: issuedAt,
	}))

	require.Len(t, writer.created, 1)
	created := writer.created[0]
	require.Equal(t, tenantID, created.TenantID)
	require.Equal(t, userID, created.UserID)
	require.Equal(t, authenticationlog.EventLogin, created.Event)
	require.Equal(t, "10.0.0.1", created.IP)
	require.Equal(t, "agent", created.UserAgent)
	require.Equal(t, issuedAt, created.CreatedAt)
}

func TestSessionEventsHandler_RecordsLogoutWithFreshTimestamp(t *testing.T) {
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(nil),
	})

	writer := &stubLogWriter{}
	handler := NewSessionEventsHandler(app, writer)
	app.EventPublisher().Subscribe(handler.onSessionDeleted)

	tenantID := uuid.New()
	userID := uuid.New()
	app.EventPublisher().Publish(session.NewDeletedEvent(session.Session{
		Token:     "tok-2",
		UserID:    userID,
		TenantID:  tenantID,
		IP:        "10.0.0.2",
		UserAgent: "agent",
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}))

	require.Len(t, writer.created, 1)
	created := writer.created[0]
	require.Equal(t, authenticationlog.EventLogout, created.Event)
	require.Equal(t, userID, created.UserID)
	// The repository stamps the row when CreatedAt is zero; logout rows must
	// not inherit the session start time.
	require.True(t, created.CreatedAt.IsZero())
}
