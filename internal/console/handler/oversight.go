package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/workshop-oversight-console/internal/console/service"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// OversightService Описываем, что нам нужно от сервиса
type OversightService interface {
	State() service.OversightView
	Chat(ctx context.Context, actor string, message json.RawMessage) (json.RawMessage, error)
	Coordinate(ctx context.Context, actor string, request json.RawMessage) (json.RawMessage, error)
	WorkflowAction(ctx context.Context, actor, workflowID string, action domain.WorkflowAction, payload json.RawMessage) (json.RawMessage, error)
}

type OversightHandler struct {
	service OversightService
}

func NewOversightHandler(s OversightService) *OversightHandler {
	return &OversightHandler{service: s}
}

func (h *OversightHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.State())
}

func (h *OversightHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Chat(r.Context(), operator(r), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}

func (h *OversightHandler) Coordinate(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Coordinate(r.Context(), operator(r), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}

// WorkflowAction — POST /workflows/{id}/{action}, action: approve | reject. Тело необязательно.
func (h *OversightHandler) WorkflowAction(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	action := domain.WorkflowAction(chi.URLParam(r, "action"))
	resp, err := h.service.WorkflowAction(r.Context(), operator(r), chi.URLParam(r, "id"), action, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, resp)
}
