package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

// ResourceService Описываем, что нам нужно от сервиса
type ResourceService interface {
	Statuses() []poller.Status
	Refresh(ctx context.Context, actor, name string) error
	DismissError(ctx context.Context, actor, name string) error
}

type ResourceHandler struct {
	service ResourceService
}

func NewResourceHandler(s ResourceService) *ResourceHandler {
	return &ResourceHandler{service: s}
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Statuses())
}

func (h *ResourceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context(), operator(r), chi.URLParam(r, "resource")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *ResourceHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DismissError(r.Context(), operator(r), chi.URLParam(r, "resource")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
