package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/health"
)

type fleetCapture struct {
	mu   sync.Mutex
	last domain.SystemSnapshot
	n    int
}

func (f *fleetCapture) ObserveFleet(s domain.SystemSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = s
	f.n++
}

func (f *fleetCapture) get() (domain.SystemSnapshot, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.n
}

func fleetBackend() *fakeBackend {
	return &fakeBackend{
		reports: []domain.AgentReport{
			{Name: "classifier", Health: domain.GradeHealthy, ResponseTimeMs: ptrInt64(100), LastChecked: baseTime.Add(-5 * time.Minute)},
			{Name: "reviewer", Health: domain.GradeDegraded, ResponseTimeMs: ptrInt64(301)},
			{Name: "deployer", Health: domain.GradeUnhealthy, ErrorMessage: "connection refused"},
		},
		health: domain.SystemHealthReport{ActiveIssues: []string{"deployer unreachable"}},
	}
}

func TestAgentService_DashboardBuildsViewFromSnapshot(t *testing.T) {
	backend := fleetBackend()
	observer := &fleetCapture{}
	fc := clockwork.NewFakeClockAt(baseTime)
	svc := NewAgentService(backend, testSettings(fc), 2*time.Second, observer, nil, zap.NewNop())
	startAll(t, svc.Resources())

	view := svc.Dashboard()

	assert.Equal(t, 3, view.System.TotalAgents)
	assert.Equal(t, 33, view.System.HealthPercentage)
	assert.Equal(t, domain.GradeUnhealthy, view.System.OverallStatus)
	assert.Equal(t, int64(200), view.System.ResponseTime.Average)
	assert.Equal(t, health.BandCritical, view.HealthBand)
	assert.Equal(t, "Needs Attention", view.Performance)
	assert.Equal(t, []string{"deployer unreachable"}, view.ActiveIssues)
	assert.Equal(t, []string{"reviewer"}, view.ByGrade[domain.GradeDegraded])
	assert.True(t, view.Meta.Ready)
	assert.Equal(t, uint64(1), view.Meta.Seq)

	require.Len(t, view.Agents, 3)
	assert.Equal(t, "5m ago", view.Agents[0].CheckedLabel)
	assert.Equal(t, "Never", view.Agents[1].CheckedLabel)
	assert.Equal(t, health.Classify(domain.GradeUnhealthy), view.Agents[2].Display)

	require.Eventually(t, func() bool { _, n := observer.get(); return n == 1 }, waitFor, tick)
	last, _ := observer.get()
	assert.Equal(t, 1, last.HealthyAgents)
}

func TestAgentService_DashboardBeforeFirstFetch(t *testing.T) {
	svc := NewAgentService(fleetBackend(), testSettings(clockwork.NewFakeClock()), time.Second, nil, nil, zap.NewNop())

	view := svc.Dashboard()

	assert.False(t, view.Meta.Ready)
	assert.Equal(t, 0, view.System.TotalAgents)
	assert.Equal(t, domain.GradeUnknown, view.System.OverallStatus)
	assert.NotNil(t, view.Agents)
	assert.NotNil(t, view.ActiveIssues)
}

func TestAgentService_FailedCycleKeepsLastSnapshot(t *testing.T) {
	backend := fleetBackend()
	svc := NewAgentService(backend, testSettings(clockwork.NewFakeClock()), time.Second, nil, nil, zap.NewNop())
	startAll(t, svc.Resources())

	backend.set(func(b *fakeBackend) {
		b.summaryErr = errBackendDown
		b.reports = nil
	})
	svc.Resources()[0].Refresh()

	require.Eventually(t, func() bool { return svc.Dashboard().Meta.Error != "" }, waitFor, tick)
	view := svc.Dashboard()
	assert.Contains(t, view.Meta.Error, "summary")
	assert.Equal(t, 3, view.System.TotalAgents)
	assert.Equal(t, uint64(1), view.Meta.Seq)

	svc.Resources()[0].DismissError()
	assert.Empty(t, svc.Dashboard().Meta.Error)
}

func TestAgentService_HealthCheckSchedulesDelayedRefresh(t *testing.T) {
	backend := fleetBackend()
	fc := clockwork.NewFakeClockAt(baseTime)
	journal := &memJournal{}
	svc := NewAgentService(backend, testSettings(fc), 2*time.Second, nil, journal, zap.NewNop())
	startAll(t, svc.Resources())
	require.Equal(t, int32(1), backend.agentCalls.Load())

	_, err := svc.TriggerHealthCheck(context.Background(), "operator")
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.healthChecks.Load())

	// тикер опроса и отложенное обновление
	fc.BlockUntil(2)
	assert.Equal(t, int32(1), backend.agentCalls.Load())
	fc.Advance(2 * time.Second)

	require.Eventually(t, func() bool { return backend.agentCalls.Load() == 2 }, waitFor, tick)
	events := journal.all()
	require.Len(t, events, 1)
	assert.Equal(t, "operator", events[0].Actor)
}

func TestAgentService_AgentLookup(t *testing.T) {
	svc := NewAgentService(fleetBackend(), testSettings(clockwork.NewFakeClockAt(baseTime)), time.Second, nil, nil, zap.NewNop())

	card, err := svc.Agent(context.Background(), "classifier")
	require.NoError(t, err)
	assert.Equal(t, "classifier", card.Name)
	assert.Equal(t, health.Classify(domain.GradeHealthy), card.Display)

	_, err = svc.Agent(context.Background(), "missing")
	assert.ErrorIs(t, err, errBackendDown)
}
