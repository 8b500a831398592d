package user

func NewCreatedEvent(data User) *CreatedEvent {
	return &CreatedEvent{Data: data}
}

type CreatedEvent struct {
	Data User
}
