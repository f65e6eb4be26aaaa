package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/willjrcristo/refresh-api/internal/domain"
)

// SubscriptionRepository define a persistência de assinaturas. Toda leitura
// devolve a assinatura com os atributos do plano.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub domain.Subscription) error
	FindActive(ctx context.Context, userID string) (*domain.Subscription, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	MarkCancelAtPeriodEnd(ctx context.Context, id, userID string, now time.Time) error
	MarkExpired(ctx context.Context, id, userID string, now time.Time) error
	ExpireLapsed(ctx context.Context, userID string, now time.Time) (int64, error)
}

// SubscriptionStore implementa SubscriptionRepository sobre SQL. A regra de
// uma assinatura ativa por conta é garantida pelo índice único parcial
// subscriptions_one_active_per_user.
type SubscriptionStore struct {
	db *sqlx.DB
}

var _ SubscriptionRepository = (*SubscriptionStore)(nil)

// NewSubscriptionStore cria o repositório de assinaturas.
func NewSubscriptionStore(db *sqlx.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionSelect = `SELECT
	s.id, s.user_id, s.plan_id, s.status, s.current_period_start, s.current_period_end,
	s.cancel_at_period_end, s.created_at, s.updated_at,
	p.name AS plan_name, p.price AS plan_price, p."interval" AS plan_interval, p.features AS plan_features
FROM subscriptions s
JOIN plans p ON p.id = s.plan_id`

type subscriptionRow struct {
	domain.Subscription
	PlanName     string          `db:"plan_name"`
	PlanPrice    decimal.Decimal `db:"plan_price"`
	PlanInterval domain.Interval `db:"plan_interval"`
	PlanFeatures domain.Features `db:"plan_features"`
}

func (r subscriptionRow) toDomain() domain.Subscription {
	sub := r.Subscription
	sub.Plan = &domain.PlanSummary{
		Name:     r.PlanName,
		Price:    r.PlanPrice,
		Interval: r.PlanInterval,
		Features: r.PlanFeatures,
	}
	return sub
}

// Create grava uma nova assinatura. Se a conta já tiver uma assinatura
// ativa, o índice único rejeita a escrita e o erro envolve ErrUniqueViolation.
func (s *SubscriptionStore) Create(ctx context.Context, sub domain.Subscription) error {
	query := s.db.Rebind(`INSERT INTO subscriptions
		(id, user_id, plan_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assinatura da conta %s: %w", sub.UserID, ErrUniqueViolation)
		}
		return fmt.Errorf("gravar assinatura: %w", err)
	}
	return nil
}

// FindActive devolve a assinatura com status active da conta.
func (s *SubscriptionStore) FindActive(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := s.db.Rebind(subscriptionSelect + ` WHERE s.user_id = ? AND s.status = ?`)
	return s.getOne(ctx, query, userID, domain.StatusActive)
}

// GetForUser busca a assinatura id somente entre as da conta userID.
func (s *SubscriptionStore) GetForUser(ctx context.Context, id, userID string) (*domain.Subscription, error) {
	query := s.db.Rebind(subscriptionSelect + ` WHERE s.id = ? AND s.user_id = ?`)
	return s.getOne(ctx, query, id, userID)
}

// ListByUser devolve as assinaturas da conta, da mais recente para a mais antiga.
func (s *SubscriptionStore) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	query := s.db.Rebind(subscriptionSelect + ` WHERE s.user_id = ? ORDER BY s.created_at DESC, s.id DESC`)

	var rows []subscriptionRow
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("listar assinaturas: %w", err)
	}

	subs := make([]domain.Subscription, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toDomain())
	}
	return subs, nil
}

// MarkCancelAtPeriodEnd liga cancel_at_period_end sem mexer no status.
// Repetir a chamada não altera nada, nem updated_at.
func (s *SubscriptionStore) MarkCancelAtPeriodEnd(ctx context.Context, id, userID string, now time.Time) error {
	query := s.db.Rebind(`UPDATE subscriptions
		SET updated_at = CASE WHEN cancel_at_period_end THEN updated_at ELSE ? END,
		    cancel_at_period_end = ?
		WHERE id = ? AND user_id = ?`)

	res, err := s.db.ExecContext(ctx, query, now, true, id, userID)
	if err != nil {
		return fmt.Errorf("cancelar assinatura %s: %w", id, err)
	}
	return requireAffected(res)
}

// MarkExpired encerra a assinatura id da conta userID. Assinaturas que não
// estão active ficam como estão.
func (s *SubscriptionStore) MarkExpired(ctx context.Context, id, userID string, now time.Time) error {
	query := s.db.Rebind(`UPDATE subscriptions
		SET updated_at = CASE WHEN status = ? THEN ? ELSE updated_at END,
		    status = CASE WHEN status = ? THEN ? ELSE status END
		WHERE id = ? AND user_id = ?`)

	res, err := s.db.ExecContext(ctx, query,
		domain.StatusActive, now,
		domain.StatusActive, domain.StatusExpired,
		id, userID)
	if err != nil {
		return fmt.Errorf("expirar assinatura %s: %w", id, err)
	}
	return requireAffected(res)
}

// ExpireLapsed passa para expired as assinaturas active cujo período acabou
// até now. Com userID vazio, vale para todas as contas.
func (s *SubscriptionStore) ExpireLapsed(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `UPDATE subscriptions SET status = ?, updated_at = ?
		WHERE status = ? AND current_period_end <= ?`
	args := []any{domain.StatusExpired, now, domain.StatusActive, now}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("expirar assinaturas vencidas: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expirar assinaturas vencidas: %w", err)
	}
	return n, nil
}

func (s *SubscriptionStore) getOne(ctx context.Context, query string, args ...any) (*domain.Subscription, error) {
	var row subscriptionRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("buscar assinatura: %w", err)
	}
	sub := row.toDomain()
	return &sub, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
