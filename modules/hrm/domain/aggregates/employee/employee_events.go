package employee

import (
	"context"

	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

type CreatedEvent struct {
	Data      CreateDTO
	Result    Employee
	ActorID   string
	SessionIP string
}

func NewCreatedEvent(ctx context.Context, data CreateDTO, result Employee) (*CreatedEvent, error) {
	ev := &CreatedEvent{
		Data:   data,
		Result: result,
	}
	if u, err := composables.UseUser(ctx); err == nil {
		ev.ActorID = u.ID().String()
	}
	if params, ok := composables.UseParams(ctx); ok {
		ev.SessionIP = params.IP
	}
	return ev, nil
}

type UpdatedEvent struct {
	Result Employee
}

func NewUpdatedEvent(ctx context.Context, result Employee) (*UpdatedEvent, error) {
	return &UpdatedEvent{Result: result}, nil
}

type DeletedEvent struct {
	Result Employee
}

func NewDeletedEvent(ctx context.Context, result Employee) (*DeletedEvent, error) {
	return &DeletedEvent{Result: result}, nil
}
