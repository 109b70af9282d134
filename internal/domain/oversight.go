package domain

// OversightState — снимок панели координатора (статус, активные workflow, метрики качества).
type OversightState struct {
	CoordinatorStatus map[string]interface{}   `json:"coordinator_status"`
	Workflows         []map[string]interface{} `json:"workflows"`
	QualityMetrics    map[string]interface{}   `json:"quality_metrics"`
}

// WorkflowAction — действие оператора над workflow координатора.
type WorkflowAction string

const (
	WorkflowApprove WorkflowAction = "approve"
	WorkflowReject  WorkflowAction = "reject"
)

func (a WorkflowAction) Valid() bool {
	return a == WorkflowApprove || a == WorkflowReject
}
