package health

import "github.com/xela07ax/workshop-oversight-console/internal/domain"

// Display — атрибуты отображения оценки: цвет и ключ иконки (lucide).
type Display struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var unknownDisplay = Display{Color: "#6b7280", Icon: "HelpCircle"}

var gradeDisplay = map[domain.HealthGrade]Display{
	domain.GradeHealthy:   {Color: "#10b981", Icon: "CheckCircle"},
	domain.GradeDegraded:  {Color: "#f59e0b", Icon: "AlertTriangle"},
	domain.GradeUnhealthy: {Color: "#ef4444", Icon: "XCircle"},
	domain.GradeUnknown:   unknownDisplay,
}

// Classify никогда не паникует: неизвестное или пустое значение дает пару UNKNOWN.
func Classify(grade domain.HealthGrade) Display {
	if d, ok := gradeDisplay[grade]; ok {
		return d
	}
	return unknownDisplay
}
