package lifecycle

import (
	"fmt"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// StatisticsView — статистика бэкенда плюс производные итоги для панели метрик.
type StatisticsView struct {
	domain.EvolutionStatistics

	CompletedTotal int64   `json:"completed_total"`
	FailedTotal    int64   `json:"failed_total"`
	SuccessBand    string  `json:"success_band"`
	DurationLabel  string  `json:"duration_label"`
	PhaseBreakdown []Count `json:"phase_breakdown"`
	TypeBreakdown  []Count `json:"type_breakdown"`
}

func Statistics(s domain.EvolutionStatistics) StatisticsView {
	if s.ByPhase == nil {
		s.ByPhase = map[string]int64{}
	}
	if s.ByType == nil {
		s.ByType = map[string]int64{}
	}
	v := StatisticsView{
		EvolutionStatistics: s,
		CompletedTotal:      s.ByPhase[string(domain.PhaseCompleted)] + s.ByPhase[string(domain.PhaseDeployed)],
		FailedTotal:         s.ByPhase[string(domain.PhaseFailed)] + s.ByPhase[string(domain.PhaseRolledBack)],
		SuccessBand:         SuccessBand(s.SuccessRate),
		DurationLabel:       FormatDuration(int(s.AverageDurationMinutes)),
	}
	v.PhaseBreakdown = counts(toInt(s.ByPhase), s.TotalEvolutions, StatusLabel)
	v.TypeBreakdown = counts(toInt(s.ByType), s.TotalEvolutions, Humanize)
	return v
}

func SuccessBand(rate float64) string {
	switch {
	case rate >= 90:
		return "Excellent"
	case rate >= 75:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// FormatDuration: 45 -> "45m", 125 -> "2h 5m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func toInt(m map[string]int64) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = int(v)
	}
	return out
}
