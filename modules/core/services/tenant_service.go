package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/tenant"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

type TenantService struct {
	repo tenant.Repository
}

func NewTenantService(repo tenant.Repository) *TenantService {
	return &TenantService{repo: repo}
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TenantService) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return s.repo.GetByDomain(ctx, domain)
}

func (s *TenantService) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.repo.List(ctx)
}

func (s *TenantService) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	var created *tenant.Tenant
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.Create(txCtx, t)
		if err != nil {
			return err
		}
		created = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
