package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/hrm/domain/entities/jobrole"
	"github.com/lodgecrew/lodgecrew/modules/hrm/permissions"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

type JobRoleService struct {
	repo      jobrole.Repository
	publisher eventbus.EventBus
}

func NewJobRoleService(repo jobrole.Repository, publisher eventbus.EventBus) *JobRoleService {
	return &JobRoleService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *JobRoleService) GetAll(ctx context.Context) ([]*jobrole.JobRole, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*jobrole.JobRole, error) {
		return s.repo.GetAll(txCtx)
	})
}

func (s *JobRoleService) GetByID(ctx context.Context, id uuid.UUID) (*jobrole.JobRole, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*jobrole.JobRole, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *JobRoleService) Create(ctx context.Context, role *jobrole.JobRole) error {
	if err := authorizeHRM(ctx, permissions.JobRolesManage); err != nil {
		return err
	}
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, role); err != nil {
			return err
		}
		s.publisher.Publish("jobrole.created", role)
		return nil
	})
}
