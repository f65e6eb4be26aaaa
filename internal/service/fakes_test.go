package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/willjrcristo/refresh-api/internal/domain"
	"github.com/willjrcristo/refresh-api/internal/repository"
)

// --- Repositórios em memória ---

type fakePlans struct {
	plans   map[string]domain.Plan
	listErr error
}

func (f *fakePlans) ListActive(ctx context.Context) ([]domain.Plan, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Plan
	for _, p := range f.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

func (f *fakePlans) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

// fakeSubs imita o índice único parcial do banco.
type fakeSubs struct {
	mu    sync.Mutex
	plans *fakePlans
	rows  []domain.Subscription

	// skipFindActive simula a corrida em que duas requisições passam pela
	// checagem antes de qualquer uma gravar.
	skipFindActive bool
	err            error
}

func (f *fakeSubs) withPlan(s domain.Subscription) domain.Subscription {
	if p, ok := f.plans.plans[s.PlanID]; ok {
		summary := p.Summary()
		s.Plan = &summary
	}
	return s
}

func (f *fakeSubs) Create(ctx context.Context, sub domain.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if sub.Status == domain.StatusActive {
		for _, r := range f.rows {
			if r.UserID == sub.UserID && r.Status == domain.StatusActive {
				return repository.ErrUniqueViolation
			}
		}
	}
	sub.Plan = nil
	f.rows = append(f.rows, sub)
	return nil
}

func (f *fakeSubs) FindActive(ctx context.Context, userID string) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.skipFindActive {
		return nil, repository.ErrNotFound
	}
	for _, r := range f.rows {
		if r.UserID == userID && r.Status == domain.StatusActive {
			s := f.withPlan(r)
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSubs) GetForUser(ctx context.Context, id, userID string) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			s := f.withPlan(r)
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSubs) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Subscription{}
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, f.withPlan(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSubs) MarkCancelAtPeriodEnd(ctx context.Context, id, userID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			if !r.CancelAtPeriodEnd {
				f.rows[i].CancelAtPeriodEnd = true
				f.rows[i].UpdatedAt = now
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSubs) MarkExpired(ctx context.Context, id, userID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			if r.Status == domain.StatusActive {
				f.rows[i].Status = domain.StatusExpired
				f.rows[i].UpdatedAt = now
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSubs) ExpireLapsed(ctx context.Context, userID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for i, r := range f.rows {
		if r.Status == domain.StatusActive && !now.Before(r.CurrentPeriodEnd) && (userID == "" || r.UserID == userID) {
			f.rows[i].Status = domain.StatusExpired
			f.rows[i].UpdatedAt = now
			n++
		}
	}
	return n, nil
}

var errBackend = errors.New("conexão recusada")
