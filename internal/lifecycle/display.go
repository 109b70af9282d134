package lifecycle

import (
	"strings"
	"unicode"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// StatusInfo — атрибуты бейджа статуса эволюции.
type StatusInfo struct {
	Variant string `json:"variant"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
}

var fallbackStatus = StatusInfo{Variant: "secondary", Icon: "FileText", Color: "text-gray-600"}

var statusInfo = map[domain.Phase]StatusInfo{
	domain.PhaseRequested:    {Variant: "secondary", Icon: "FileText", Color: "text-blue-600"},
	domain.PhaseUnderReview:  {Variant: "secondary", Icon: "User", Color: "text-yellow-600"},
	domain.PhaseApproved:     {Variant: "success", Icon: "CheckCircle", Color: "text-green-600"},
	domain.PhaseImplementing: {Variant: "warning", Icon: "Clock", Color: "text-orange-600"},
	domain.PhaseValidating:   {Variant: "warning", Icon: "AlertTriangle", Color: "text-yellow-600"},
	domain.PhaseCompleted:    {Variant: "success", Icon: "CheckCircle", Color: "text-green-600"},
	domain.PhaseDeployed:     {Variant: "success", Icon: "CheckCircle", Color: "text-green-600"},
	domain.PhaseFailed:       {Variant: "destructive", Icon: "XCircle", Color: "text-red-600"},
	domain.PhaseRolledBack:   {Variant: "destructive", Icon: "XCircle", Color: "text-red-600"},
}

func Status(p domain.Phase) StatusInfo {
	if info, ok := statusInfo[p]; ok {
		return info
	}
	return fallbackStatus
}

// StatusLabel — подпись статуса. Для значений вне контракта и пустых тоже возвращает читаемый текст.
func StatusLabel(s string) string {
	if s == "" {
		return "Unknown"
	}
	return Humanize(s)
}

// Humanize: "under_review" -> "Under Review". Исходное значение не меняется.
func Humanize(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
