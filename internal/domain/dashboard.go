package domain

// SystemSnapshot — производный агрегат по всем отчетам агентов. Никогда не сохраняется.
type SystemSnapshot struct {
	TotalAgents     int         `json:"total_agents"`
	HealthyAgents   int         `json:"healthy_agents"`
	DegradedAgents  int         `json:"degraded_agents"`
	UnhealthyAgents int         `json:"unhealthy_agents"`
	UnknownAgents   int         `json:"unknown_agents"`
	OverallStatus   HealthGrade `json:"overall_status"`

	HealthPercentage int               `json:"health_percentage"`
	ResponseTime     ResponseTimeStats `json:"response_time"`
}

// ResponseTimeStats в миллисекундах. Для пустого набора все поля 0.
type ResponseTimeStats struct {
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
	Average int64 `json:"average"`
}
