package domain

import "time"

// Status é o estado de uma assinatura.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// Subscription é a assinatura de um plano por uma conta.
//
// Uma conta tem no máximo uma assinatura com status active. O cancelamento
// nunca muda o status: só marca CancelAtPeriodEnd, e a assinatura continua
// ativa até CurrentPeriodEnd.
type Subscription struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	PlanID             string    `json:"plan_id" db:"plan_id"`
	Status             Status    `json:"status" db:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end" db:"current_period_end"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`

	// Plan traz os atributos do plano referenciado. A chave "plans" mantém o
	// formato de resposta que os clientes mobile já consomem.
	Plan *PlanSummary `json:"plans,omitempty" db:"-"`
}

// Lapsed informa se o período atual já terminou em now.
func (s Subscription) Lapsed(now time.Time) bool {
	return !now.Before(s.CurrentPeriodEnd)
}

// EffectiveStatus é o status visto em now: uma assinatura active cujo
// período terminou é lida como expired, mesmo antes da varredura gravar isso.
func (s Subscription) EffectiveStatus(now time.Time) Status {
	if s.Status == StatusActive && s.Lapsed(now) {
		return StatusExpired
	}
	return s.Status
}

// NewSubscription monta uma assinatura ativa para o plano, com o período
// começando em now.
func NewSubscription(id, userID string, plan Plan, now time.Time) (Subscription, error) {
	end, err := NextPeriodEnd(now, plan.Interval)
	if err != nil {
		return Subscription{}, err
	}
	summary := plan.Summary()
	return Subscription{
		ID:                 id,
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   end,
		CancelAtPeriodEnd:  false,
		CreatedAt:          now,
		UpdatedAt:          now,
		Plan:               &summary,
	}, nil
}
