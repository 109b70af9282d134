package domain

import "time"

// HealthGrade — оценка здоровья агента. Значение храним в исходном виде (как прислал бэкенд),
// нормализация выполняется только при классификации.
type HealthGrade string

const (
	GradeHealthy   HealthGrade = "HEALTHY"   // Агент отвечает штатно
	GradeDegraded  HealthGrade = "DEGRADED"  // Работает, но с проблемами
	GradeUnhealthy HealthGrade = "UNHEALTHY" // Не отвечает или критичные ошибки
	GradeUnknown   HealthGrade = "UNKNOWN"   // Состояние определить нельзя
)

// Known сообщает, входит ли значение в словарь контракта.
func (g HealthGrade) Known() bool {
	switch g {
	case GradeHealthy, GradeDegraded, GradeUnhealthy, GradeUnknown:
		return true
	}
	return false
}

// Normalize сводит неизвестные и пустые значения к UNKNOWN.
func (g HealthGrade) Normalize() HealthGrade {
	if g.Known() {
		return g
	}
	return GradeUnknown
}

// AgentReport — результат опроса одного агента. Создается каждым циклом опроса
// и целиком заменяется следующим (без слияния с прошлым отчетом).
type AgentReport struct {
	Name     string      `json:"name"`
	Endpoint string      `json:"endpoint"`
	Health   HealthGrade `json:"health"`

	// nil означает, что бэкенд не прислал замер, такой отчет не участвует в статистике задержек
	ResponseTimeMs *int64    `json:"response_time_ms,omitempty"`
	LastChecked    time.Time `json:"last_checked"`
	ErrorMessage   string    `json:"error_message,omitempty"`

	AvailableTools []string               `json:"available_tools,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// SystemHealthReport — ответ бэкенда на GET /health.
type SystemHealthReport struct {
	OverallStatus HealthGrade `json:"overall_status"`
	ActiveIssues  []string    `json:"active_issues,omitempty"`
	LastUpdated   time.Time   `json:"last_updated"`
	TotalAgents   int         `json:"total_agents"`
}

// AgentFleet — полный снимок одного цикла опроса домена здоровья агентов.
type AgentFleet struct {
	Reports []AgentReport          `json:"reports"`
	Health  SystemHealthReport     `json:"health"`
	Summary map[string]interface{} `json:"summary,omitempty"`
	Info    map[string]interface{} `json:"info,omitempty"`
}
