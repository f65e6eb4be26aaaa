package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/willjrcristo/refresh-api/internal/domain"
	"github.com/willjrcristo/refresh-api/internal/repository"
)

// Clock devolve o instante atual. Os testes trocam por um relógio fixo.
type Clock func() time.Time

// SubscriptionService controla o ciclo de vida das subscrições: criação com
// cálculo do período, cancelamento ao fim do período e listagem.
type SubscriptionService struct {
	catalog *PlanCatalog
	subs    repository.SubscriptionRepository
	now     Clock
}

// NewSubscriptionService cria o serviço. Com clock nil usa time.Now.
func NewSubscriptionService(catalog *PlanCatalog, subs repository.SubscriptionRepository, clock Clock) *SubscriptionService {
	if clock == nil {
		clock = time.Now
	}
	return &SubscriptionService{
		catalog: catalog,
		subs:    subs,
		now:     clock,
	}
}

// timestamp normaliza o relógio para UTC com precisão de microssegundos, a
// mesma que o Postgres guarda.
func (s *SubscriptionService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create assina planID para a conta userID.
//
// A checagem de subscrição ativa serve para devolver um erro claro; quem
// garante a regra é o índice único do banco, cuja violação também vira
// ErrDuplicateActiveSubscription.
func (s *SubscriptionService) Create(ctx context.Context, userID, planID string) (*domain.Subscription, error) {
	now := s.timestamp()

	// Um período que já terminou não pode bloquear uma nova compra.
	if n, err := s.subs.ExpireLapsed(ctx, userID, now); err != nil {
		return nil, err
	} else if n > 0 {
		subscriptionsExpired.WithLabelValues("lazy").Add(float64(n))
		slog.Info("Subscrições vencidas expiradas antes da compra", "user_id", userID, "count", n)
	}

	_, err := s.subs.FindActive(ctx, userID)
	switch {
	case err == nil:
		subscriptionConflicts.Inc()
		return nil, ErrDuplicateActiveSubscription
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	sub, err := domain.NewSubscription(uuid.NewString(), userID, *plan, now)
	if err != nil {
		return nil, fmt.Errorf("plano %s: %w", plan.ID, err)
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			subscriptionConflicts.Inc()
			return nil, ErrDuplicateActiveSubscription
		}
		return nil, err
	}

	subscriptionsCreated.WithLabelValues(string(plan.Interval)).Inc()
	slog.Info("Subscrição criada",
		"subscription_id", sub.ID,
		"user_id", userID,
		"plan_id", plan.ID,
		"period_end", sub.CurrentPeriodEnd)
	return &sub, nil
}

// Cancel marca a subscrição para terminar no fim do período. O status não
// muda e repetir o pedido não tem efeito. Subscrições de outra conta são
// tratadas como inexistentes.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error) {
	if _, err := uuid.Parse(subscriptionID); err != nil {
		return nil, ErrSubscriptionNotFound
	}

	if err := s.subs.MarkCancelAtPeriodEnd(ctx, subscriptionID, userID, s.timestamp()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	sub, err := s.subs.GetForUser(ctx, subscriptionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	subscriptionsCanceled.Inc()
	slog.Info("Cancelamento agendado para o fim do período",
		"subscription_id", sub.ID,
		"user_id", userID,
		"period_end", sub.CurrentPeriodEnd)
	return sub, nil
}

// List devolve as subscrições da conta, da mais recente para a mais antiga,
// com o status efetivo no momento da leitura.
func (s *SubscriptionService) List(ctx context.Context, userID string) ([]domain.Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	for i := range subs {
		subs[i].Status = subs[i].EffectiveStatus(now)
	}
	return subs, nil
}

// Expire encerra a subscrição imediatamente. É usado quando o provedor de
// pagamentos avisa que a subscrição terminou.
func (s *SubscriptionService) Expire(ctx context.Context, userID, subscriptionID string) error {
	if _, err := uuid.Parse(subscriptionID); err != nil {
		return ErrSubscriptionNotFound
	}

	if err := s.subs.MarkExpired(ctx, subscriptionID, userID, s.timestamp()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubscriptionNotFound
		}
		return err
	}

	subscriptionsExpired.WithLabelValues("provider").Inc()
	slog.Info("Subscrição encerrada pelo provedor", "subscription_id", subscriptionID, "user_id", userID)
	return nil
}

// ExpireLapsed grava expired em todas as subscrições active cujo período já
// terminou. Devolve quantas mudaram.
func (s *SubscriptionService) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := s.subs.ExpireLapsed(ctx, "", s.timestamp())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		subscriptionsExpired.WithLabelValues("sweep").Add(float64(n))
	}
	return n, nil
}
