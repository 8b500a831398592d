package session

func NewCreatedEvent(data Session) *CreatedEvent {
	return &CreatedEvent{Result: data}
}

// CreatedEvent fires after a session row is written. The logging module
// subscribes to it for the authentication audit trail.
type CreatedEvent struct {
	Result Session
}

func NewDeletedEvent(data Session) *DeletedEvent {
	return &DeletedEvent{Result: data}
}

// DeletedEvent fires after an explicit logout. Expired sessions are reaped
// without an event.
type DeletedEvent struct {
	Result Session
}
