package swap

func NewDecidedEvent(result Request) *DecidedEvent {
	return &DecidedEvent{Result: result}
}

// DecidedEvent fires when a request reaches a terminal state through a
// manager decision (approve or reject); Result carries the final status.
type DecidedEvent struct {
	Result Request
}
