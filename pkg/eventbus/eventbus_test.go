package eventbus

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/pkg/logging"
)

type periodPublished struct {
	PeriodID uuid.UUID
}

type shiftAssigned struct {
	EmployeeID uuid.UUID
}

type auditable interface {
	AuditAction() string
}

func (e *periodPublished) AuditAction() string { return "period.published" }

func newCapturingLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestBus_DeliversToMatchingSubscriber(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))

	var received *periodPublished
	bus.Subscribe(func(e *periodPublished) {
		received = e
	})

	want := uuid.New()
	bus.Publish(&periodPublished{PeriodID: want})

	require.NotNil(t, received)
	require.Equal(t, want, received.PeriodID)
}

func TestBus_IgnoresNonMatchingShapes(t *testing.T) {
	log, buf := newCapturingLogger(logrus.WarnLevel)
	bus := NewEventPublisher(log)

	bus.Subscribe(func(e *periodPublished) {
		t.Error("handler for a different event shape must not run")
	})

	bus.Publish(&shiftAssigned{EmployeeID: uuid.New()})

	require.Contains(t, buf.String(), "no subscriber matched")
	require.Contains(t, buf.String(), "shiftAssigned")
}

func TestBus_InterfaceParameterReceivesImplementors(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))

	var actions []string
	bus.Subscribe(func(e auditable) {
		actions = append(actions, e.AuditAction())
	})

	bus.Publish(&periodPublished{PeriodID: uuid.New()})

	require.Equal(t, []string{"period.published"}, actions)
}

func TestBus_AllMatchingSubscribersRun(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))

	calls := 0
	bus.Subscribe(func(e *shiftAssigned) { calls++ })
	bus.Subscribe(func(e *shiftAssigned) { calls++ })

	bus.Publish(&shiftAssigned{EmployeeID: uuid.New()})

	require.Equal(t, 2, calls)
}

func TestBus_PanickingSubscriberIsIsolated(t *testing.T) {
	log, buf := newCapturingLogger(logrus.ErrorLevel)
	bus := NewEventPublisher(log)

	secondRan := false
	bus.Subscribe(func(e *periodPublished) {
		panic("subscriber blew up")
	})
	bus.Subscribe(func(e *periodPublished) {
		secondRan = true
	})

	require.NotPanics(t, func() {
		bus.Publish(&periodPublished{PeriodID: uuid.New()})
	})
	require.True(t, secondRan)
	require.Contains(t, buf.String(), "panicked")
}

func TestBus_NilArgumentMatchesPointerParameter(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))

	called := false
	bus.Subscribe(func(e *periodPublished) {
		called = true
		require.Nil(t, e)
	})

	require.NotPanics(t, func() {
		bus.Publish(nil)
	})
	require.True(t, called)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))

	handler := func(e *periodPublished) {
		t.Error("unsubscribed handler must not run")
	}
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Equal(t, 0, bus.SubscribersCount())

	bus.Publish(&periodPublished{PeriodID: uuid.New()})
}

func TestBus_ClearRemovesAllSubscribers(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))

	bus.Subscribe(func(e *periodPublished) {})
	bus.Subscribe(func(e *shiftAssigned) {})
	require.Equal(t, 2, bus.SubscribersCount())

	bus.Clear()
	require.Equal(t, 0, bus.SubscribersCount())
}

func TestBus_SubscribeRejectsNonFunction(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))

	require.Panics(t, func() {
		bus.Subscribe("not a function")
	})
}

func TestBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))

	var mu sync.Mutex
	delivered := 0
	bus.Subscribe(func(e *shiftAssigned) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	const publishers = 8
	const perPublisher = 50

	var wg sync.WaitGroup
	wg.Add(publishers + 1)
	go func() {
		defer wg.Done()
		for i := 0; i < perPublisher; i++ {
			bus.Subscribe(func(e *periodPublished) {})
		}
	}()
	for p := 0; p < publishers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				bus.Publish(&shiftAssigned{EmployeeID: uuid.New()})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, publishers*perPublisher, delivered)
}
