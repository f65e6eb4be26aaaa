package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/willjrcristo/refresh-api/internal/domain"
)

// PlanRepository define a leitura do catálogo de planos.
type PlanRepository interface {
	ListActive(ctx context.Context) ([]domain.Plan, error)
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
}

// PlanStore implementa PlanRepository sobre SQL.
type PlanStore struct {
	db *sqlx.DB
}

var _ PlanRepository = (*PlanStore)(nil)

// NewPlanStore cria o repositório de planos.
func NewPlanStore(db *sqlx.DB) *PlanStore {
	return &PlanStore{db: db}
}

const planColumns = `id, name, description, price, currency, "interval", features, active, created_at`

// ListActive devolve os planos ativos do mais barato ao mais caro.
func (s *PlanStore) ListActive(ctx context.Context) ([]domain.Plan, error) {
	query := s.db.Rebind(`SELECT ` + planColumns + ` FROM plans WHERE active = ? ORDER BY price ASC, name ASC`)

	plans := []domain.Plan{}
	if err := s.db.SelectContext(ctx, &plans, query, true); err != nil {
		return nil, fmt.Errorf("listar planos ativos: %w", err)
	}
	return plans, nil
}

// GetByID busca um plano, ativo ou não.
func (s *PlanStore) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	query := s.db.Rebind(`SELECT ` + planColumns + ` FROM plans WHERE id = ?`)

	var p domain.Plan
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("buscar plano %s: %w", id, err)
	}
	return &p, nil
}

// Create grava um plano.
func (s *PlanStore) Create(ctx context.Context, p domain.Plan) error {
	query := s.db.Rebind(`INSERT INTO plans (` + planColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.Interval, p.Features, p.Active, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plano %s: %w", p.ID, ErrUniqueViolation)
		}
		return fmt.Errorf("gravar plano %s: %w", p.ID, err)
	}
	return nil
}
