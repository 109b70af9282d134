package service

import "github.com/xela07ax/workshop-oversight-console/internal/domain"

// ApprovalDisplay — атрибуты отображения запроса в очереди.
type ApprovalDisplay struct {
	StatusIcon    string `json:"status_icon"`
	StatusColor   string `json:"status_color"`
	PriorityColor string `json:"priority_color"`
	TypeIcon      string `json:"type_icon"`
}

var statusIcons = map[domain.ApprovalStatus][2]string{
	domain.ApprovalPending:   {"Clock", "text-yellow-600"},
	domain.ApprovalInReview:  {"Eye", "text-blue-600"},
	domain.ApprovalEscalated: {"ArrowUp", "text-red-600"},
}

var priorityColors = map[domain.ApprovalPriority]string{
	domain.PriorityUrgent: "bg-red-100 text-red-800 border-red-200",
	domain.PriorityHigh:   "bg-orange-100 text-orange-800 border-orange-200",
	domain.PriorityNormal: "bg-blue-100 text-blue-800 border-blue-200",
	domain.PriorityLow:    "bg-gray-100 text-gray-800 border-gray-200",
}

var typeIcons = map[domain.ApprovalType]string{
	domain.ApprovalClassification:          "🔍",
	domain.ApprovalContentReview:           "📝",
	domain.ApprovalDeploymentAuthorization: "🚀",
	domain.ApprovalConflictResolution:      "⚠️",
}

// approvalDisplay: неизвестные статус, приоритет и тип получают нейтральные значения.
func approvalDisplay(a domain.ApprovalRequest) ApprovalDisplay {
	d := ApprovalDisplay{
		StatusIcon:    "Clock",
		StatusColor:   "text-gray-600",
		PriorityColor: "bg-gray-100 text-gray-800 border-gray-200",
		TypeIcon:      "📋",
	}
	if s, ok := statusIcons[a.Status]; ok {
		d.StatusIcon, d.StatusColor = s[0], s[1]
	}
	if c, ok := priorityColors[a.Priority]; ok {
		d.PriorityColor = c
	}
	if i, ok := typeIcons[a.Type]; ok {
		d.TypeIcon = i
	}
	return d
}
