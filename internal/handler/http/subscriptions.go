package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/willjrcristo/refresh-api/internal/identity"
	"github.com/willjrcristo/refresh-api/internal/service"
)

// SubscriptionHandler gerencia as rotas de /subscriptions. Todas exigem uma
// conta autenticada.
type SubscriptionHandler struct {
	service  SubscriptionService
	verifier identity.Verifier
}

func NewSubscriptionHandler(s SubscriptionService, v identity.Verifier) *SubscriptionHandler {
	return &SubscriptionHandler{service: s, verifier: v}
}

func (h *SubscriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireAccount(h.verifier))

	r.Get("/", h.ListSubscriptions)             // GET /subscriptions
	r.Post("/", h.CreateSubscription)           // POST /subscriptions
	r.Put("/{id}/cancel", h.CancelSubscription) // PUT /subscriptions/{id}/cancel
	return r
}

type createSubscriptionRequest struct {
	PlanID string `json:"plan_id" example:"0b6f3c1e-8f2a-4d8e-9c1a-1f0e6d2b7a02"`
}

// @Summary      Lista as subscrições da conta
// @Description  Retorna as subscrições da conta autenticada, da mais recente para a mais antiga, com os dados do plano
// @Tags         subscricoes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Subscription
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := accountID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, identity.ErrMissingCredential.Error())
		return
	}

	subs, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Erro ao buscar subscrições")
		return
	}
	respondWithJSON(w, http.StatusOK, subs)
}

// @Summary      Assina um plano
// @Description  Cria uma subscrição ativa para a conta autenticada. Falha se a conta já tiver uma subscrição ativa
// @Tags         subscricoes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        subscricao  body      createSubscriptionRequest  true  "Plano a assinar"
// @Success      201         {object}  domain.Subscription
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Failure      500         {object}  errorResponse
// @Router       /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := accountID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, identity.ErrMissingCredential.Error())
		return
	}

	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if strings.TrimSpace(req.PlanID) == "" {
		respondWithError(w, http.StatusBadRequest, "plan_id é obrigatório")
		return
	}

	sub, err := h.service.Create(r.Context(), userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateActiveSubscription), errors.Is(err, service.ErrPlanNotFound):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Erro ao criar subscrição")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, sub)
}

// @Summary      Cancela uma subscrição no fim do período
// @Description  Marca a subscrição para não renovar. Ela continua ativa até o fim do período atual
// @Tags         subscricoes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID da subscrição"
// @Success      200  {object}  domain.Subscription
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /subscriptions/{id}/cancel [put]
func (h *SubscriptionHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := accountID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, identity.ErrMissingCredential.Error())
		return
	}

	sub, err := h.service.Cancel(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			respondWithError(w, http.StatusBadRequest, err.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Erro ao cancelar subscrição")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, sub)
}
