package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer é o que a varredura precisa do serviço de subscrições.
type Expirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

// ExpirySweeper grava periodicamente a passagem active -> expired das
// subscrições cujo período acabou. A leitura já mostra o status efetivo; a
// varredura mantém o banco coerente com ela.
type ExpirySweeper struct {
	expirer Expirer
	cron    *cron.Cron
	timeout time.Duration
}

// NewExpirySweeper agenda a varredura segundo schedule (sintaxe do robfig/cron,
// por exemplo "@every 5m" ou "0 * * * *").
func NewExpirySweeper(expirer Expirer, schedule string, timeout time.Duration) (*ExpirySweeper, error) {
	s := &ExpirySweeper{
		expirer: expirer,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("agenda de expiração %q: %w", schedule, err)
	}
	return s, nil
}

// Start roda uma varredura imediata e liga o agendador.
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.Sweep(ctx)
	s.cron.Start()
	slog.Info("Varredura de expiração agendada", "entries", len(s.cron.Entries()))
}

// Stop desliga o agendador e espera a varredura em andamento terminar ou ctx
// ser cancelado.
func (s *ExpirySweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep executa uma varredura. Falhas só são registradas: a próxima execução
// tenta de novo.
func (s *ExpirySweeper) Sweep(ctx context.Context) int64 {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	n, err := s.expirer.ExpireLapsed(ctx)
	if err != nil {
		slog.Error("Erro na varredura de expiração", "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("Subscrições expiradas pela varredura", "count", n)
	}
	return n
}
