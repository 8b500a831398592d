package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/property"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

type PropertyService struct {
	repo property.Repository
}

func NewPropertyService(repo property.Repository) *PropertyService {
	return &PropertyService{repo: repo}
}

func (s *PropertyService) GetByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PropertyService) GetAll(ctx context.Context) ([]*property.Property, error) {
	return s.repo.GetAll(ctx)
}

func (s *PropertyService) Create(ctx context.Context, p *property.Property) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, p)
	})
}
