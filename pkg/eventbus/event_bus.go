package eventbus

import (
	"reflect"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus delivers in-process domain events to subscribers matched by
// handler signature. Publishing is synchronous: every matching handler runs
// before Publish returns, so callers can rely on side effects such as audit
// rows being written within the same request.
type EventBus interface {
	Publish(args ...interface{})
	Subscribe(handler interface{})
	Unsubscribe(handler interface{})
	Clear()
	SubscribersCount() int
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &signatureBus{log: log}
}

// signatureBus dispatches on reflected handler signatures. A handler taking
// (*period.PublishedEvent) only sees events of that exact shape; a handler
// taking an interface sees every event implementing it.
type signatureBus struct {
	log *logrus.Logger

	mu       sync.RWMutex
	handlers []reflect.Value
}

func (b *signatureBus) Subscribe(handler interface{}) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		panic("eventbus: handler must be a function")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, v)
}

func (b *signatureBus) Unsubscribe(handler interface{}) {
	target := reflect.ValueOf(handler)
	if target.Kind() != reflect.Func {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.Pointer() == target.Pointer() {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

func (b *signatureBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = nil
}

func (b *signatureBus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

func (b *signatureBus) Publish(args ...interface{}) {
	argTypes := make([]reflect.Type, len(args))
	for i, arg := range args {
		if arg != nil {
			argTypes[i] = reflect.TypeOf(arg)
		}
	}

	b.mu.RLock()
	matched := make([]reflect.Value, 0, len(b.handlers))
	for _, h := range b.handlers {
		if signatureAccepts(h.Type(), argTypes) {
			matched = append(matched, h)
		}
	}
	b.mu.RUnlock()

	if len(matched) == 0 {
		if b.log != nil {
			b.log.Warnf("eventbus: no subscriber matched event %s", describeArgs(argTypes))
		}
		return
	}

	for _, h := range matched {
		b.call(h, callArgs(h.Type(), args))
	}
}

// call isolates handler panics so one failing subscriber cannot take down
// the publishing request or starve later subscribers.
func (b *signatureBus) call(h reflect.Value, in []reflect.Value) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Errorf("eventbus: handler %s panicked: %v", h.Type(), r)
			}
		}
	}()
	h.Call(in)
}

// signatureAccepts reports whether a handler of type fn can receive the
// published argument types. A nil argument matches any pointer or interface
// parameter.
func signatureAccepts(fn reflect.Type, argTypes []reflect.Type) bool {
	if fn.NumIn() != len(argTypes) {
		return false
	}

	for i, argType := range argTypes {
		param := fn.In(i)
		if argType == nil {
			if param.Kind() != reflect.Ptr && param.Kind() != reflect.Interface {
				return false
			}
			continue
		}
		if param.Kind() == reflect.Interface {
			if !argType.Implements(param) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(param) {
			return false
		}
	}

	return true
}

// callArgs builds the reflect arguments for one handler. Nil arguments take
// the zero value of the handler's parameter type, since reflect.ValueOf(nil)
// is not callable.
func callArgs(fn reflect.Type, args []interface{}) []reflect.Value {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(fn.In(i))
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	return in
}

func describeArgs(argTypes []reflect.Type) string {
	names := make([]string, len(argTypes))
	for i, t := range argTypes {
		if t == nil {
			names[i] = "<nil>"
			continue
		}
		names[i] = t.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
