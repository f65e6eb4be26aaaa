package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/willjrcristo/refresh-api/internal/service"
)

// StripeWebhookHandler recebe os eventos da Stripe. A autenticação é a
// assinatura do próprio evento, não um token bearer.
type StripeWebhookHandler struct {
	service BillingEventService
}

func NewStripeWebhookHandler(s BillingEventService) *StripeWebhookHandler {
	return &StripeWebhookHandler{service: s}
}

// @Summary      Recebe eventos da Stripe
// @Description  Verifica a assinatura do evento e espelha cancelamentos e encerramentos nas subscrições locais
// @Tags         webhooks
// @Accept       json
// @Param        Stripe-Signature  header  string  true  "Assinatura do evento"
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536) // Limite de 64KB
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("Erro ao ler o corpo do webhook", "error", err)
		respondWithError(w, http.StatusBadRequest, "Erro ao ler corpo da requisição")
		return
	}

	err = h.service.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidWebhook) {
			respondWithError(w, http.StatusBadRequest, "Falha na verificação da assinatura do webhook")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Erro interno ao processar webhook")
		}
		return
	}

	// A Stripe só considera o evento entregue com 200.
	w.WriteHeader(http.StatusOK)
}
