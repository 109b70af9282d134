package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/workshop-oversight-console/internal/console/service"
)

// DashboardService Описываем, что нам нужно от сервиса
type DashboardService interface {
	Dashboard() service.DashboardView
	Agent(ctx context.Context, name string) (service.AgentCard, error)
	TriggerHealthCheck(ctx context.Context, actor string) (json.RawMessage, error)
}

type DashboardHandler struct {
	service DashboardService
}

func NewDashboardHandler(s DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Dashboard())
}

func (h *DashboardHandler) Agent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	card, err := h.service.Agent(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HealthCheck запускает проверку на бэкенде. Агенты перечитываются с задержкой.
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.TriggerHealthCheck(r.Context(), operator(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}
