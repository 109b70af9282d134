package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/workshop-oversight-console/internal/connectors"
	"github.com/xela07ax/workshop-oversight-console/internal/console/service"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/lifecycle"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

// OperatorHeader — кто выполняет действие. Аутентификации нет, значение попадает только в журнал.
const OperatorHeader = "X-Operator"

func operator(r *http.Request) string {
	if op := r.Header.Get(OperatorHeader); op != "" {
		return op
	}
	return "console"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRaw отдает ответ бэкенда как есть.
func writeRaw(w http.ResponseWriter, body json.RawMessage) {
	if len(body) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// writeError: ошибки формы и неизвестные параметры -> 400, неизвестный ресурс и 404 бэкенда -> 404,
// остальные ошибки бэкенда -> 502.
func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrMissingApprover),
		errors.Is(err, lifecycle.ErrUnknownView),
		errors.Is(err, service.ErrInvalidWorkflowAction):
		return http.StatusBadRequest
	case errors.Is(err, poller.ErrUnknownResource), connectors.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
