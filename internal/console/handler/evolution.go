package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/workshop-oversight-console/internal/console/service"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/lifecycle"
)

// EvolutionService Описываем, что нам нужно от сервиса
type EvolutionService interface {
	Queue(view lifecycle.View) service.EvolutionQueue
	Statistics() service.StatisticsResponse
	Evolution(ctx context.Context, id string) (service.EvolutionItem, error)
	WorkshopHistory(ctx context.Context, workshop string) (json.RawMessage, error)
	UpdateStatus(ctx context.Context, id string, upd domain.StatusUpdate) (json.RawMessage, error)
	AnalyzeImpact(ctx context.Context, actor string, request json.RawMessage) (json.RawMessage, error)
}

type EvolutionHandler struct {
	service EvolutionService
}

func NewEvolutionHandler(s EvolutionService) *EvolutionHandler {
	return &EvolutionHandler{service: s}
}

func (h *EvolutionHandler) List(w http.ResponseWriter, r *http.Request) {
	view, err := lifecycle.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Queue(view))
}

func (h *EvolutionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Statistics())
}

func (h *EvolutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Evolution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *EvolutionHandler) WorkshopHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.WorkshopHistory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}

func (h *EvolutionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var upd domain.StatusUpdate
	if err := decodeBody(r, &upd); err != nil || upd.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}
	if upd.Actor == "" {
		upd.Actor = operator(r)
	}

	resp, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}

func (h *EvolutionHandler) AnalyzeImpact(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.AnalyzeImpact(r.Context(), operator(r), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}
