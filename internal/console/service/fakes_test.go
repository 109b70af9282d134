package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/engine"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var errBackendDown = errors.New("backend unavailable")

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
	BlockUntil(n int)
}

// fakeBackend реализует все интерфейсы бэкенда, которые нужны сервисам.
type fakeBackend struct {
	mu sync.Mutex

	reports    []domain.AgentReport
	health     domain.SystemHealthReport
	summaryErr error

	approvals   []domain.ApprovalRequest
	decisionErr error
	decisions   []domain.DecisionForm

	evolutions []domain.EvolutionRecord
	stats      domain.EvolutionStatistics
	updates    []domain.StatusUpdate

	workflows  []map[string]interface{}
	actions    []domain.WorkflowAction
	actionsErr error

	agentCalls     atomic.Int32
	approvalCalls  atomic.Int32
	evolutionCalls atomic.Int32
	oversightCalls atomic.Int32
	healthChecks   atomic.Int32
}

func (b *fakeBackend) SystemHealth(context.Context) (domain.SystemHealthReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health, nil
}

func (b *fakeBackend) Agents(context.Context) ([]domain.AgentReport, error) {
	b.agentCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.AgentReport(nil), b.reports...), nil
}

func (b *fakeBackend) Agent(_ context.Context, name string) (domain.AgentReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.reports {
		if r.Name == name {
			return r, nil
		}
	}
	return domain.AgentReport{}, errBackendDown
}

func (b *fakeBackend) Summary(context.Context) (map[string]interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.summaryErr != nil {
		return nil, b.summaryErr
	}
	return map[string]interface{}{"agents": len(b.reports)}, nil
}

func (b *fakeBackend) Info(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"service": "monitoring"}, nil
}

func (b *fakeBackend) TriggerHealthCheck(context.Context) (json.RawMessage, error) {
	b.healthChecks.Add(1)
	return json.RawMessage(`{"status":"started"}`), nil
}

func (b *fakeBackend) PendingApprovals(_ context.Context, _ domain.ApprovalFilter) ([]domain.ApprovalRequest, error) {
	b.approvalCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ApprovalRequest(nil), b.approvals...), nil
}

func (b *fakeBackend) SubmitDecision(_ context.Context, _ string, form domain.DecisionForm) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.decisionErr != nil {
		return nil, b.decisionErr
	}
	b.decisions = append(b.decisions, form)
	return json.RawMessage(`{"success":true}`), nil
}

func (b *fakeBackend) ActiveEvolutions(context.Context) ([]domain.EvolutionRecord, error) {
	b.evolutionCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.EvolutionRecord(nil), b.evolutions...), nil
}

func (b *fakeBackend) Evolution(_ context.Context, id string) (domain.EvolutionRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.evolutions {
		if r.EvolutionID == id {
			return r, nil
		}
	}
	return domain.EvolutionRecord{}, errBackendDown
}

func (b *fakeBackend) EvolutionStatistics(context.Context) (domain.EvolutionStatistics, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats, nil
}

func (b *fakeBackend) WorkshopHistory(_ context.Context, workshop string) (json.RawMessage, error) {
	return json.RawMessage(`{"workshop":"` + workshop + `"}`), nil
}

func (b *fakeBackend) UpdateEvolutionStatus(_ context.Context, _ string, upd domain.StatusUpdate) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, upd)
	return json.RawMessage(`{"success":true}`), nil
}

func (b *fakeBackend) AnalyzeImpact(_ context.Context, request json.RawMessage) (json.RawMessage, error) {
	return request, nil
}

func (b *fakeBackend) CoordinatorStatus(context.Context) (map[string]interface{}, error) {
	b.oversightCalls.Add(1)
	return map[string]interface{}{"status": "active"}, nil
}

func (b *fakeBackend) ActiveWorkflows(context.Context) ([]map[string]interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.workflows, nil
}

func (b *fakeBackend) QualityMetrics(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"score": 0.92}, nil
}

func (b *fakeBackend) Chat(_ context.Context, message json.RawMessage) (json.RawMessage, error) {
	return message, nil
}

func (b *fakeBackend) Coordinate(_ context.Context, request json.RawMessage) (json.RawMessage, error) {
	return request, nil
}

func (b *fakeBackend) WorkflowAction(_ context.Context, _ string, action domain.WorkflowAction, _ json.RawMessage) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.actionsErr != nil {
		return nil, b.actionsErr
	}
	b.actions = append(b.actions, action)
	return json.RawMessage(`{"success":true}`), nil
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// memJournal копит события аудита в памяти.
type memJournal struct {
	mu     sync.Mutex
	events []audit.OperatorAction
}

func (j *memJournal) Log(ev audit.OperatorAction) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
}

func (j *memJournal) all() []audit.OperatorAction {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]audit.OperatorAction(nil), j.events...)
}

type capturePublisher struct {
	mu     sync.Mutex
	alerts []engine.EscalationAlert
}

func (p *capturePublisher) Notify(_ context.Context, alerts []engine.EscalationAlert) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alerts...)
	return len(alerts), nil
}

func (p *capturePublisher) published() []engine.EscalationAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.EscalationAlert(nil), p.alerts...)
}

func testSettings(clock clockwork.Clock) PollerSettings {
	return PollerSettings{
		Base:               poller.Options{Clock: clock, Logger: zap.NewNop()},
		AgentsInterval:     30 * time.Second,
		ApprovalsInterval:  30 * time.Second,
		EvolutionsInterval: 30 * time.Second,
		StatisticsInterval: 60 * time.Second,
		OversightInterval:  30 * time.Second,
	}
}

// startAll запускает ресурсы сервиса и ждет первых снимков.
func startAll(t *testing.T, resources []poller.Resource) {
	t.Helper()
	for _, r := range resources {
		r.Start()
		t.Cleanup(r.Stop)
	}
	for _, r := range resources {
		r := r
		require.Eventually(t, func() bool { return r.Status().AppliedSeq > 0 }, waitFor, tick, r.Name())
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt64(v int64) *int64 { return &v }
