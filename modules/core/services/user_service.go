package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
}

func NewUserService(repo user.Repository, publisher eventbus.EventBus) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, data user.User) (user.User, error) {
	var created user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.Create(txCtx, data)
		if err != nil {
			return err
		}
		created = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(user.NewCreatedEvent(created))
	return created, nil
}
