package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/escalation"
	"github.com/xela07ax/workshop-oversight-console/internal/health"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

const ResourceAgents = "agents"

// MonitoringBackend описывает, что нам нужно от бэкенда мониторинга агентов
type MonitoringBackend interface {
	SystemHealth(ctx context.Context) (domain.SystemHealthReport, error)
	Agents(ctx context.Context) ([]domain.AgentReport, error)
	Agent(ctx context.Context, name string) (domain.AgentReport, error)
	Summary(ctx context.Context) (map[string]interface{}, error)
	Info(ctx context.Context) (map[string]interface{}, error)
	TriggerHealthCheck(ctx context.Context) (json.RawMessage, error)
}

// FleetObserver получает каждый примененный агрегат (метрики).
type FleetObserver interface {
	ObserveFleet(s domain.SystemSnapshot)
}

// AgentCard — отчет агента с атрибутами отображения.
type AgentCard struct {
	domain.AgentReport
	Display      health.Display `json:"display"`
	CheckedLabel string         `json:"checked_label"`
}

// DashboardView — один ответ для главной панели.
type DashboardView struct {
	System       domain.SystemSnapshot           `json:"system"`
	HealthBand   health.Band                     `json:"health_band"`
	Performance  string                          `json:"performance"`
	Display      health.Display                  `json:"display"`
	Agents       []AgentCard                     `json:"agents"`
	ByGrade      map[domain.HealthGrade][]string `json:"by_grade"`
	ActiveIssues []string                        `json:"active_issues"`
	Summary      map[string]interface{}          `json:"summary"`
	Info         map[string]interface{}          `json:"info"`
	Meta         ResourceMeta                    `json:"meta"`
}

type AgentService struct {
	backend      MonitoringBackend
	fleet        *poller.Coordinator[domain.AgentFleet]
	evaluator    *escalation.Evaluator
	refreshDelay time.Duration
	audit        operatorAudit
	logger       *zap.Logger
}

func NewAgentService(
	backend MonitoringBackend,
	settings PollerSettings,
	refreshDelay time.Duration,
	observer FleetObserver,
	journal audit.Recorder,
	logger *zap.Logger,
) *AgentService {
	s := &AgentService{
		backend:      backend,
		evaluator:    escalation.NewEvaluator(settings.Base.Clock),
		refreshDelay: refreshDelay,
		audit:        newOperatorAudit(journal, settings.Base.Clock),
		logger:       logger.Named("agent-service"),
	}
	s.fleet = poller.New(ResourceAgents, s.fetchFleet, settings.with(settings.AgentsInterval))
	if observer != nil {
		s.fleet.OnUpdate(func(snap poller.Snapshot[domain.AgentFleet]) {
			observer.ObserveFleet(health.Aggregate(snap.Data.Reports))
		})
	}
	return s
}

func (s *AgentService) Resources() []poller.Resource {
	return []poller.Resource{s.fleet}
}

// fetchFleet — один цикл опроса: health, agents, summary и info параллельно.
// Любая ошибка проваливает весь цикл, предыдущий снимок остается на месте.
func (s *AgentService) fetchFleet(ctx context.Context) (domain.AgentFleet, error) {
	var fleet domain.AgentFleet
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h, err := s.backend.SystemHealth(gctx)
		if err != nil {
			return fmt.Errorf("system health: %w", err)
		}
		fleet.Health = h
		return nil
	})
	g.Go(func() error {
		reports, err := s.backend.Agents(gctx)
		if err != nil {
			return fmt.Errorf("agents: %w", err)
		}
		fleet.Reports = reports
		return nil
	})
	g.Go(func() error {
		summary, err := s.backend.Summary(gctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		fleet.Summary = summary
		return nil
	})
	g.Go(func() error {
		info, err := s.backend.Info(gctx)
		if err != nil {
			return fmt.Errorf("service info: %w", err)
		}
		fleet.Info = info
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.AgentFleet{}, err
	}
	if fleet.Reports == nil {
		fleet.Reports = []domain.AgentReport{}
	}
	return fleet, nil
}

// Dashboard собирает представление из последнего снимка. Агрегат считается заново на каждый запрос.
func (s *AgentService) Dashboard() DashboardView {
	snap := s.fleet.Latest()
	reports := snap.Data.Reports
	system := health.Aggregate(reports)

	view := DashboardView{
		System:       system,
		HealthBand:   health.HealthBand(system.HealthPercentage),
		Performance:  health.PerformanceLabel(system.HealthPercentage),
		Display:      health.Classify(system.OverallStatus),
		Agents:       make([]AgentCard, 0, len(reports)),
		ByGrade:      map[domain.HealthGrade][]string{},
		ActiveIssues: snap.Data.Health.ActiveIssues,
		Summary:      snap.Data.Summary,
		Info:         snap.Data.Info,
		Meta:         metaOf(s.fleet, snap),
	}
	for _, r := range reports {
		view.Agents = append(view.Agents, s.card(r))
	}
	for grade, group := range health.GroupByGrade(reports) {
		names := make([]string, 0, len(group))
		for _, r := range group {
			names = append(names, r.Name)
		}
		view.ByGrade[grade] = names
	}
	if view.ActiveIssues == nil {
		view.ActiveIssues = []string{}
	}
	return view
}

// Agent запрашивает одного агента напрямую у бэкенда, мимо снимка.
func (s *AgentService) Agent(ctx context.Context, name string) (AgentCard, error) {
	r, err := s.backend.Agent(ctx, name)
	if err != nil {
		s.logger.Warn("failed to fetch agent", zap.String("agent", name), zap.Error(err))
		return AgentCard{}, fmt.Errorf("agent %s: %w", name, err)
	}
	return s.card(r), nil
}

// TriggerHealthCheck просит бэкенд перепроверить агентов и перечитывает их через refreshDelay.
func (s *AgentService) TriggerHealthCheck(ctx context.Context, actor string) (json.RawMessage, error) {
	started := s.evaluator.Now()
	resp, err := s.backend.TriggerHealthCheck(ctx)
	s.audit.record(ctx, actor, audit.ActionHealthCheck, ResourceAgents, nil, started, err)
	if err != nil {
		return nil, fmt.Errorf("trigger health check: %w", err)
	}

	s.fleet.RefreshAfter(s.refreshDelay)
	s.logger.Info("health check triggered", zap.String("actor", actor), zap.Duration("refresh_in", s.refreshDelay))
	return resp, nil
}

func (s *AgentService) card(r domain.AgentReport) AgentCard {
	label := "Never"
	if !r.LastChecked.IsZero() {
		label = s.evaluator.Elapsed(r.LastChecked)
	}
	return AgentCard{
		AgentReport:  r,
		Display:      health.Classify(r.Health),
		CheckedLabel: label,
	}
}
