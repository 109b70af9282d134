package health

import (
	"math"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// severity — явная таблица "самый тяжелый побеждает".
// UNKNOWN поднимает систему до DEGRADED, но не выше.
var severity = map[domain.HealthGrade]int{
	domain.GradeHealthy:   0,
	domain.GradeUnknown:   1,
	domain.GradeDegraded:  1,
	domain.GradeUnhealthy: 2,
}

// rankStatus переводит максимальный ранг обратно в статус системы.
var rankStatus = []domain.HealthGrade{
	domain.GradeHealthy,
	domain.GradeDegraded,
	domain.GradeUnhealthy,
}

// Aggregate сворачивает отчеты агентов в один SystemSnapshot.
// Битые отчеты (без оценки) считаются UNKNOWN, агрегация из-за них не падает.
func Aggregate(reports []domain.AgentReport) domain.SystemSnapshot {
	snap := domain.SystemSnapshot{
		TotalAgents:   len(reports),
		OverallStatus: domain.GradeUnknown,
	}
	if len(reports) == 0 {
		return snap
	}

	maxRank := 0
	for _, r := range reports {
		grade := r.Health.Normalize()
		switch grade {
		case domain.GradeHealthy:
			snap.HealthyAgents++
		case domain.GradeDegraded:
			snap.DegradedAgents++
		case domain.GradeUnhealthy:
			snap.UnhealthyAgents++
		default:
			snap.UnknownAgents++
		}
		if rank := severity[grade]; rank > maxRank {
			maxRank = rank
		}
	}

	snap.OverallStatus = rankStatus[maxRank]
	snap.HealthPercentage = int(math.Round(float64(snap.HealthyAgents) / float64(snap.TotalAgents) * 100))
	snap.ResponseTime = ResponseTimes(reports)
	return snap
}

// ResponseTimes считает min/max/average только по отчетам с замером.
// Среднее — целочисленное деление суммы (дробная часть отбрасывается).
func ResponseTimes(reports []domain.AgentReport) domain.ResponseTimeStats {
	var stats domain.ResponseTimeStats
	var sum int64
	n := 0
	for _, r := range reports {
		if r.ResponseTimeMs == nil {
			continue
		}
		v := *r.ResponseTimeMs
		if n == 0 || v < stats.Min {
			stats.Min = v
		}
		if n == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += v
		n++
	}
	if n > 0 {
		stats.Average = sum / int64(n)
	}
	return stats
}

// GroupByGrade раскладывает агентов по нормализованной оценке.
func GroupByGrade(reports []domain.AgentReport) map[domain.HealthGrade][]domain.AgentReport {
	groups := map[domain.HealthGrade][]domain.AgentReport{
		domain.GradeHealthy:   {},
		domain.GradeDegraded:  {},
		domain.GradeUnhealthy: {},
		domain.GradeUnknown:   {},
	}
	for _, r := range reports {
		g := r.Health.Normalize()
		groups[g] = append(groups[g], r)
	}
	return groups
}

// Band — цвет полосы процента здоровья
type Band string

const (
	BandGood     Band = "good"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

func HealthBand(percentage int) Band {
	switch {
	case percentage >= 80:
		return BandGood
	case percentage >= 60:
		return BandWarning
	default:
		return BandCritical
	}
}

func PerformanceLabel(percentage int) string {
	switch {
	case percentage >= 90:
		return "Excellent"
	case percentage >= 70:
		return "Good"
	default:
		return "Needs Attention"
	}
}
