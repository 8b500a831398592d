package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	coreuser "github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/domain/aggregates/period"
	"github.com/lodgecrew/lodgecrew/modules/scheduling/permissions"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seededDraftPeriod(t *testing.T, repo *mockPeriodRepo, propertyID uuid.UUID) period.SchedulePeriod {
	t.Helper()
	p, err := period.New(testTenantID, propertyID, date(2026, 11, 1), date(2026, 11, 7), "Week 45", uuid.New())
	require.NoError(t, err)
	repo.seed(p)
	return p
}

func TestSchedulePeriodService_Create(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})
	manager := testUser(coreuser.RoleScheduler, uuid.Nil)
	propertyID := uuid.New()

	created, err := svc.Create(testCtx(manager), CreatePeriodInput{
		PropertyID: propertyID,
		StartDate:  date(2026, 11, 1),
		EndDate:    date(2026, 11, 7),
		Name:       "Week 45",
	})
	require.NoError(t, err)
	require.Equal(t, period.StatusDraft, created.Status())
	require.Equal(t, 1, created.Version())
	require.Equal(t, testTenantID, created.TenantID())
	require.Equal(t, propertyID, created.PropertyID())
	require.Equal(t, manager.ID(), created.CreatedBy())
	require.True(t, repo.createCalled)
}

func TestSchedulePeriodService_CreateRejectsDateOrder(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})

	_, err := svc.Create(testCtx(testUser(coreuser.RoleScheduler, uuid.Nil)), CreatePeriodInput{
		PropertyID: uuid.New(),
		StartDate:  date(2026, 11, 7),
		EndDate:    date(2026, 11, 1),
	})
	svcErr := requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_BODY")
	require.Contains(t, svcErr.Message, "startDate")
	require.False(t, repo.createCalled)
}

func TestSchedulePeriodService_CreateRejectsEqualDates(t *testing.T) {
	svc := NewSchedulePeriodService(newMockPeriodRepo(), &recordingPublisher{})

	_, err := svc.Create(testCtx(testUser(coreuser.RoleScheduler, uuid.Nil)), CreatePeriodInput{
		PropertyID: uuid.New(),
		StartDate:  date(2026, 11, 1),
		EndDate:    date(2026, 11, 1),
	})
	requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_BODY")
}

func TestSchedulePeriodService_CreateDeniedForEmployee(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})

	_, err := svc.Create(testCtx(testUser(coreuser.RoleEmployee, uuid.New())), CreatePeriodInput{
		PropertyID: uuid.New(),
		StartDate:  date(2026, 11, 1),
		EndDate:    date(2026, 11, 7),
	})
	requireServiceError(t, err, http.StatusForbidden, "SCHED_FORBIDDEN")
	require.False(t, repo.createCalled)
}

func TestSchedulePeriodService_CreateDeniedOutsideAssignedProperties(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})
	manager := testUser(coreuser.RolePropertyManager, uuid.Nil, uuid.New())

	_, err := svc.Create(testCtx(manager), CreatePeriodInput{
		PropertyID: uuid.New(),
		StartDate:  date(2026, 11, 1),
		EndDate:    date(2026, 11, 7),
	})
	requireServiceError(t, err, http.StatusForbidden, "SCHED_FORBIDDEN")
	require.False(t, repo.createCalled)
}

func TestSchedulePeriodService_AuthorizeGuardShortCircuits(t *testing.T) {
	t.Cleanup(func() { authorizeSchedulingFn = defaultAuthorizeScheduling })

	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})

	authorizeSchedulingFn = func(ctx context.Context, scope string) error {
		require.Equal(t, permissions.PeriodsManage, scope)
		return errors.New("forbidden")
	}

	_, err := svc.Publish(context.Background(), uuid.New(), "")
	require.Error(t, err)
	require.Empty(t, repo.events)
}

func TestSchedulePeriodService_PublishRecordsExactlyOneEvent(t *testing.T) {
	repo := newMockPeriodRepo()
	bus := &recordingPublisher{}
	svc := NewSchedulePeriodService(repo, bus)
	manager := testUser(coreuser.RoleScheduler, uuid.Nil)
	draft := seededDraftPeriod(t, repo, uuid.New())

	first, err := svc.Publish(testCtx(manager), draft.ID(), "initial publish")
	require.NoError(t, err)
	require.Equal(t, period.StatusPublished, first.Status())
	require.NotNil(t, first.PublishedAt())
	require.Equal(t, manager.ID(), *first.PublishedBy())
	require.Equal(t, "initial publish", first.PublishNotes())
	require.Len(t, repo.events, 1)
	require.Len(t, bus.events, 1)
	require.IsType(t, &period.PublishedEvent{}, bus.events[0])

	// Replaying publish succeeds but restamps nothing and fires nothing.
	second, err := svc.Publish(testCtx(manager), draft.ID(), "second attempt")
	require.NoError(t, err)
	require.Equal(t, period.StatusPublished, second.Status())
	require.True(t, second.PublishedAt().Equal(*first.PublishedAt()))
	require.Equal(t, *first.PublishedBy(), *second.PublishedBy())
	require.Equal(t, "initial publish", second.PublishNotes())
	require.Len(t, repo.events, 1)
	require.Len(t, bus.events, 1)
}

func TestSchedulePeriodService_PublishLockedRejected(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})
	manager := testUser(coreuser.RoleScheduler, uuid.Nil)
	draft := seededDraftPeriod(t, repo, uuid.New())

	locked, changed, err := draft.Lock(manager.ID(), time.Now())
	require.NoError(t, err)
	require.True(t, changed)
	repo.seed(locked)

	_, err = svc.Publish(testCtx(manager), draft.ID(), "")
	svcErr := requireServiceError(t, err, http.StatusBadRequest, "SCHED_LOCKED")
	require.Contains(t, svcErr.Message, "locked")
	require.Empty(t, repo.events)
}

func TestSchedulePeriodService_PublishNotFound(t *testing.T) {
	svc := NewSchedulePeriodService(newMockPeriodRepo(), &recordingPublisher{})

	_, err := svc.Publish(testCtx(testUser(coreuser.RoleScheduler, uuid.Nil)), uuid.New(), "")
	requireServiceError(t, err, http.StatusNotFound, "SCHED_NOT_FOUND")
}

func TestSchedulePeriodService_LockIdempotent(t *testing.T) {
	repo := newMockPeriodRepo()
	bus := &recordingPublisher{}
	svc := NewSchedulePeriodService(repo, bus)
	manager := testUser(coreuser.RoleScheduler, uuid.Nil)
	draft := seededDraftPeriod(t, repo, uuid.New())

	first, err := svc.Lock(testCtx(manager), draft.ID())
	require.NoError(t, err)
	require.Equal(t, period.StatusLocked, first.Status())
	require.True(t, first.IsLocked())
	require.Equal(t, manager.ID(), *first.LockedBy())
	require.Len(t, bus.events, 1)
	require.IsType(t, &period.LockedEvent{}, bus.events[0])

	second, err := svc.Lock(testCtx(manager), draft.ID())
	require.NoError(t, err)
	require.Equal(t, period.StatusLocked, second.Status())
	require.True(t, second.LockedAt().Equal(*first.LockedAt()))
	require.Len(t, bus.events, 1)
}

func TestSchedulePeriodService_LockFromPublished(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})
	manager := testUser(coreuser.RoleScheduler, uuid.Nil)
	draft := seededDraftPeriod(t, repo, uuid.New())

	_, err := svc.Publish(testCtx(manager), draft.ID(), "")
	require.NoError(t, err)

	locked, err := svc.Lock(testCtx(manager), draft.ID())
	require.NoError(t, err)
	require.Equal(t, period.StatusLocked, locked.Status())
	// The publish stamp survives locking.
	require.NotNil(t, locked.PublishedAt())
}

func TestSchedulePeriodService_ListRequiresProperty(t *testing.T) {
	svc := NewSchedulePeriodService(newMockPeriodRepo(), &recordingPublisher{})

	_, err := svc.List(testCtx(testUser(coreuser.RoleEmployee, uuid.New())), period.ListFilter{})
	requireServiceError(t, err, http.StatusBadRequest, "SCHED_INVALID_QUERY")
}

func TestSchedulePeriodService_ListPublishEventsUnknownPeriod(t *testing.T) {
	svc := NewSchedulePeriodService(newMockPeriodRepo(), &recordingPublisher{})

	_, err := svc.ListPublishEvents(testCtx(testUser(coreuser.RoleEmployee, uuid.New())), uuid.New())
	requireServiceError(t, err, http.StatusNotFound, "SCHED_NOT_FOUND")
}

func TestSchedulePeriodService_ListPublishEventsAfterPublish(t *testing.T) {
	repo := newMockPeriodRepo()
	svc := NewSchedulePeriodService(repo, &recordingPublisher{})
	manager := testUser(coreuser.RoleScheduler, uuid.Nil)
	draft := seededDraftPeriod(t, repo, uuid.New())

	published, err := svc.Publish(testCtx(manager), draft.ID(), "go live")
	require.NoError(t, err)

	events, err := svc.ListPublishEvents(testCtx(manager), draft.ID())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, draft.ID(), events[0].PeriodID)
	require.Equal(t, manager.ID(), events[0].PublishedBy)
	require.Equal(t, "go live", events[0].Notes)
	require.True(t, events[0].PublishedAt.Equal(*published.PublishedAt()))
}
