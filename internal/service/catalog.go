package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/willjrcristo/refresh-api/internal/domain"
	"github.com/willjrcristo/refresh-api/internal/repository"
)

// PlanCatalog expõe os planos que podem ser assinados.
type PlanCatalog struct {
	plans repository.PlanRepository
}

// NewPlanCatalog cria o catálogo sobre o repositório de planos.
func NewPlanCatalog(plans repository.PlanRepository) *PlanCatalog {
	return &PlanCatalog{plans: plans}
}

// ListActivePlans devolve só os planos ativos, do mais barato ao mais caro.
func (c *PlanCatalog) ListActivePlans(ctx context.Context) ([]domain.Plan, error) {
	plans, err := c.plans.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// GetPlan resolve um plano pelo id, ativo ou não.
func (c *PlanCatalog) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPlanNotFound
	}

	plan, err := c.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("resolver plano: %w", err)
	}
	return plan, nil
}
