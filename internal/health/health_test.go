package health

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

func ms(v int64) *int64 { return &v }

func report(grade domain.HealthGrade, rt *int64) domain.AgentReport {
	return domain.AgentReport{Name: string(grade), Health: grade, ResponseTimeMs: rt}
}

func TestClassifyFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, Display{Color: "#10b981", Icon: "CheckCircle"}, Classify(domain.GradeHealthy))
	assert.Equal(t, Display{Color: "#ef4444", Icon: "XCircle"}, Classify(domain.GradeUnhealthy))

	unknown := Classify(domain.GradeUnknown)
	assert.Equal(t, unknown, Classify(""))
	assert.Equal(t, unknown, Classify("healthy"))
	assert.Equal(t, unknown, Classify("ON_FIRE"))
}

func TestAggregateMixedFleet(t *testing.T) {
	snap := Aggregate([]domain.AgentReport{
		report(domain.GradeHealthy, ms(100)),
		report(domain.GradeDegraded, ms(400)),
		report(domain.GradeUnknown, ms(0)),
	})

	assert.Equal(t, domain.GradeDegraded, snap.OverallStatus)
	assert.Equal(t, 3, snap.TotalAgents)
	assert.Equal(t, 1, snap.HealthyAgents)
	assert.Equal(t, 33, snap.HealthPercentage)
	assert.Equal(t, domain.ResponseTimeStats{Min: 0, Max: 400, Average: 166}, snap.ResponseTime)
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(nil)

	assert.Equal(t, domain.GradeUnknown, snap.OverallStatus)
	assert.Equal(t, 0, snap.HealthPercentage)
	assert.Equal(t, domain.ResponseTimeStats{}, snap.ResponseTime)
}

func TestAggregateUnhealthyDominates(t *testing.T) {
	reports := []domain.AgentReport{report(domain.GradeUnhealthy, ms(5))}
	for i := 0; i < 50; i++ {
		reports = append(reports, report(domain.GradeHealthy, ms(10)))
	}

	snap := Aggregate(reports)
	assert.Equal(t, domain.GradeUnhealthy, snap.OverallStatus)
	assert.Equal(t, 98, snap.HealthPercentage)
}

func TestAggregateMalformedGradeCountsAsUnknown(t *testing.T) {
	snap := Aggregate([]domain.AgentReport{
		report(domain.GradeHealthy, nil),
		{Name: "broken"},
		report("SORT_OF_OK", nil),
	})

	assert.Equal(t, 2, snap.UnknownAgents)
	assert.Equal(t, domain.GradeDegraded, snap.OverallStatus)
	// ни одного замера: статистика нулевая, а не NaN
	assert.Equal(t, domain.ResponseTimeStats{}, snap.ResponseTime)
}

func TestResponseTimesSkipMissingSamples(t *testing.T) {
	stats := ResponseTimes([]domain.AgentReport{
		report(domain.GradeHealthy, ms(250)),
		report(domain.GradeHealthy, nil),
		report(domain.GradeHealthy, ms(50)),
	})
	assert.Equal(t, domain.ResponseTimeStats{Min: 50, Max: 250, Average: 150}, stats)
}

func TestAggregateProperties(t *testing.T) {
	grades := []domain.HealthGrade{domain.GradeHealthy, domain.GradeDegraded, domain.GradeUnhealthy, domain.GradeUnknown, "bogus"}
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 500; i++ {
		n := rng.IntN(12)
		reports := make([]domain.AgentReport, 0, n)
		allHealthy, anyUnhealthy := true, false
		for j := 0; j < n; j++ {
			g := grades[rng.IntN(len(grades))]
			allHealthy = allHealthy && g == domain.GradeHealthy
			anyUnhealthy = anyUnhealthy || g == domain.GradeUnhealthy
			reports = append(reports, report(g, ms(rng.Int64N(2000))))
		}

		snap := Aggregate(reports)
		require.GreaterOrEqual(t, snap.HealthPercentage, 0)
		require.LessOrEqual(t, snap.HealthPercentage, 100)
		require.Equal(t, n > 0 && allHealthy, snap.HealthPercentage == 100, "reports=%v", reports)
		require.Equal(t, n,
			snap.HealthyAgents+snap.DegradedAgents+snap.UnhealthyAgents+snap.UnknownAgents)
		if anyUnhealthy {
			require.Equal(t, domain.GradeUnhealthy, snap.OverallStatus)
		}
		if n == 0 {
			require.Equal(t, domain.GradeUnknown, snap.OverallStatus)
		}
	}
}

func TestGroupByGrade(t *testing.T) {
	groups := GroupByGrade([]domain.AgentReport{
		report(domain.GradeHealthy, nil),
		report("weird", nil),
	})
	assert.Len(t, groups[domain.GradeHealthy], 1)
	assert.Len(t, groups[domain.GradeUnknown], 1)
	assert.NotNil(t, groups[domain.GradeUnhealthy])
}

func TestBands(t *testing.T) {
	assert.Equal(t, BandGood, HealthBand(80))
	assert.Equal(t, BandWarning, HealthBand(79))
	assert.Equal(t, BandCritical, HealthBand(59))
	assert.Equal(t, "Excellent", PerformanceLabel(90))
	assert.Equal(t, "Good", PerformanceLabel(70))
	assert.Equal(t, "Needs Attention", PerformanceLabel(69))
}
