package services

import (
	"context"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type SessionService struct {
	repo      session.Repository
	publisher eventbus.EventBus
}

func NewSessionService(repo session.Repository, publisher eventbus.EventBus) *SessionService {
	return &SessionService{repo: repo, publisher: publisher}
}

func (s *SessionService) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	return s.repo.GetByToken(ctx, token)
}

func (s *SessionService) Create(ctx context.Context, sess *session.Session) error {
	if err := s.repo.Create(ctx, sess); err != nil {
		return err
	}
	s.publisher.Publish(session.NewCreatedEvent(*sess))
	return nil
}

func (s *SessionService) Delete(ctx context.Context, token string) error {
	sess, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, token); err != nil {
		return err
	}
	s.publisher.Publish(session.NewDeletedEvent(*sess))
	return nil
}
