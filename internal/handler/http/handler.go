package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/willjrcristo/refresh-api/internal/domain"
)

// O handler depende destas interfaces, não das implementações concretas do
// serviço. Assim os testes trocam o serviço por mocks.

// PlanService expõe o catálogo de planos.
type PlanService interface {
	ListActivePlans(ctx context.Context) ([]domain.Plan, error)
}

// SubscriptionService expõe o ciclo de vida das subscrições de uma conta.
type SubscriptionService interface {
	Create(ctx context.Context, userID, planID string) (*domain.Subscription, error)
	Cancel(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error)
	List(ctx context.Context, userID string) ([]domain.Subscription, error)
}

// BillingEventService processa eventos assinados do provedor de pagamentos.
type BillingEventService interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

// errorResponse é o corpo de todas as respostas de erro.
type errorResponse struct {
	Error string `json:"error" example:"plano não encontrado"`
}

// --- FUNÇÕES AUXILIARES ---

func respondWithError(w http.ResponseWriter, code int, message string) {
	slog.Error("API Error", "code", code, "message", message)
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
