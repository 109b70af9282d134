package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/workshop-oversight-console/internal/console/service"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// ApprovalService Описываем, что нам нужно от сервиса
type ApprovalService interface {
	Queue(filter domain.ApprovalFilter) service.ApprovalQueue
	SubmitDecision(ctx context.Context, approvalID string, form domain.DecisionForm) (json.RawMessage, error)
	Draft(approvalID string) (domain.DecisionForm, bool)
}

type ApprovalHandler struct {
	service ApprovalService
}

func NewApprovalHandler(s ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: s}
}

func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ApprovalFilter{
		Type:     domain.ApprovalType(allToEmpty(q.Get("type"))),
		Priority: domain.ApprovalPriority(allToEmpty(q.Get("priority"))),
	}
	writeJSON(w, http.StatusOK, h.service.Queue(filter))
}

func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var form domain.DecisionForm
	if err := decodeBody(r, &form); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.SubmitDecision(r.Context(), id, form)
	if err != nil {
		// форма уже сохранена как черновик, клиент может забрать ее через /draft
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}

func (h *ApprovalHandler) Draft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	form, ok := h.service.Draft(id)
	if !ok {
		http.Error(w, "no draft for approval "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// allToEmpty: "all" в фильтре означает отсутствие фильтра.
func allToEmpty(v string) string {
	if v == "all" {
		return ""
	}
	return v
}
