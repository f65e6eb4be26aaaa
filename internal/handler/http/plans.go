package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PlanHandler gerencia as rotas públicas de /plans.
type PlanHandler struct {
	service PlanService
}

func NewPlanHandler(s PlanService) *PlanHandler {
	return &PlanHandler{service: s}
}

func (h *PlanHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListPlans) // GET /plans
	return r
}

// @Summary      Lista os planos ativos
// @Description  Retorna os planos disponíveis para assinatura, do mais barato para o mais caro
// @Tags         planos
// @Produce      json
// @Success      200  {array}   domain.Plan
// @Failure      500  {object}  errorResponse
// @Router       /plans [get]
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListActivePlans(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Erro ao buscar planos")
		return
	}
	respondWithJSON(w, http.StatusOK, plans)
}
