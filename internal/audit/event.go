package audit

import "time"

// Статусы исхода действия оператора
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Действия, которые консоль передает на бэкенд от имени оператора
const (
	ActionApprovalDecision = "approval.decision"
	ActionEvolutionStatus  = "evolution.status_update"
	ActionImpactAnalysis   = "evolution.impact_analysis"
	ActionHealthCheck      = "monitoring.health_check"
	ActionWorkflowApprove  = "oversight.workflow_approve"
	ActionWorkflowReject   = "oversight.workflow_reject"
	ActionCoordinate       = "oversight.coordinate"
	ActionOversightChat    = "oversight.chat"
	ActionResourceRefresh  = "resource.refresh"
	ActionErrorDismissed   = "resource.error_dismissed"
)

// OperatorAction — запись журнала действий оператора. В представления консоли не попадает.
type OperatorAction struct {
	ID      string                 `json:"id"`       // UUID события
	TraceID string                 `json:"trace_id"` // Сквозной ID запроса
	Actor   string                 `json:"actor"`    // Кто делал
	Action  string                 `json:"action"`   // Что хотел сделать
	Target  string                 `json:"target"`   // Над чем (approval_id, evolution_id, ресурс)
	Payload map[string]interface{} `json:"payload"`  // С какими данными

	Status     string    `json:"status"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}
