package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/escalation"
	"github.com/xela07ax/workshop-oversight-console/internal/lifecycle"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

const (
	ResourceEvolutions = "evolutions"
	ResourceStatistics = "evolution-statistics"
)

// EvolutionBackend описывает, что нам нужно от API эволюций воркшопов
type EvolutionBackend interface {
	ActiveEvolutions(ctx context.Context) ([]domain.EvolutionRecord, error)
	Evolution(ctx context.Context, id string) (domain.EvolutionRecord, error)
	EvolutionStatistics(ctx context.Context) (domain.EvolutionStatistics, error)
	WorkshopHistory(ctx context.Context, workshop string) (json.RawMessage, error)
	UpdateEvolutionStatus(ctx context.Context, id string, upd domain.StatusUpdate) (json.RawMessage, error)
	AnalyzeImpact(ctx context.Context, request json.RawMessage) (json.RawMessage, error)
}

type EvolutionObserver interface {
	ObserveEvolutions(buckets map[string]int)
}

// EvolutionItem — запись эволюции с производными полями для очереди.
type EvolutionItem struct {
	domain.EvolutionRecord
	StatusLabel  string               `json:"status_label"`
	TypeLabel    string               `json:"type_label"`
	Display      lifecycle.StatusInfo `json:"display"`
	Bucket       string               `json:"bucket"`
	Progress     *int                 `json:"progress,omitempty"`
	CreatedLabel string               `json:"created_label"`
}

type EvolutionQueue struct {
	View    lifecycle.View    `json:"view"`
	Items   []EvolutionItem   `json:"items"`
	Total   int               `json:"total"`
	Buckets map[string]int    `json:"buckets"`
	ByPhase []lifecycle.Count `json:"by_phase"`
	ByType  []lifecycle.Count `json:"by_type"`
	Meta    ResourceMeta      `json:"meta"`
}

type StatisticsResponse struct {
	lifecycle.StatisticsView
	Meta ResourceMeta `json:"meta"`
}

type EvolutionService struct {
	backend    EvolutionBackend
	queue      *poller.Coordinator[[]domain.EvolutionRecord]
	statistics *poller.Coordinator[domain.EvolutionStatistics]
	evaluator  *escalation.Evaluator
	audit      operatorAudit
	logger     *zap.Logger
}

func NewEvolutionService(
	backend EvolutionBackend,
	settings PollerSettings,
	observer EvolutionObserver,
	journal audit.Recorder,
	logger *zap.Logger,
) *EvolutionService {
	s := &EvolutionService{
		backend:   backend,
		evaluator: escalation.NewEvaluator(settings.Base.Clock),
		audit:     newOperatorAudit(journal, settings.Base.Clock),
		logger:    logger.Named("evolution-service"),
	}
	s.queue = poller.New(ResourceEvolutions, func(ctx context.Context) ([]domain.EvolutionRecord, error) {
		records, err := backend.ActiveEvolutions(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []domain.EvolutionRecord{}
		}
		return records, nil
	}, settings.with(settings.EvolutionsInterval))
	s.statistics = poller.New(ResourceStatistics, backend.EvolutionStatistics, settings.with(settings.StatisticsInterval))

	if observer != nil {
		s.queue.OnUpdate(func(snap poller.Snapshot[[]domain.EvolutionRecord]) {
			observer.ObserveEvolutions(lifecycle.Track(snap.Data).BucketCounts())
		})
	}
	return s
}

func (s *EvolutionService) Resources() []poller.Resource {
	return []poller.Resource{s.queue, s.statistics}
}

// Queue раскладывает последний снимок по группам и отдает выбранный вид.
func (s *EvolutionService) Queue(view lifecycle.View) EvolutionQueue {
	snap := s.queue.Latest()
	board := lifecycle.Track(snap.Data)
	records := board.View(view)

	q := EvolutionQueue{
		View:    view,
		Items:   make([]EvolutionItem, 0, len(records)),
		Total:   board.Total,
		Buckets: board.BucketCounts(),
		ByPhase: board.ByPhase,
		ByType:  board.ByType,
		Meta:    metaOf(s.queue, snap),
	}
	for _, r := range records {
		q.Items = append(q.Items, s.item(r))
	}
	return q
}

func (s *EvolutionService) Statistics() StatisticsResponse {
	snap := s.statistics.Latest()
	return StatisticsResponse{
		StatisticsView: lifecycle.Statistics(snap.Data),
		Meta:           metaOf(s.statistics, snap),
	}
}

func (s *EvolutionService) Evolution(ctx context.Context, id string) (EvolutionItem, error) {
	r, err := s.backend.Evolution(ctx, id)
	if err != nil {
		return EvolutionItem{}, fmt.Errorf("evolution %s: %w", id, err)
	}
	return s.item(r), nil
}

func (s *EvolutionService) WorkshopHistory(ctx context.Context, workshop string) (json.RawMessage, error) {
	resp, err := s.backend.WorkshopHistory(ctx, workshop)
	if err != nil {
		return nil, fmt.Errorf("workshop %s history: %w", workshop, err)
	}
	return resp, nil
}

// UpdateStatus передает смену статуса бэкенду и перечитывает очередь и статистику.
func (s *EvolutionService) UpdateStatus(ctx context.Context, id string, upd domain.StatusUpdate) (json.RawMessage, error) {
	started := s.evaluator.Now()
	resp, err := s.backend.UpdateEvolutionStatus(ctx, id, upd)
	s.audit.record(ctx, upd.Actor, audit.ActionEvolutionStatus, id, map[string]interface{}{
		"status": string(upd.Status),
	}, started, err)
	if err != nil {
		return nil, fmt.Errorf("update evolution %s status: %w", id, err)
	}

	s.queue.Refresh()
	s.statistics.Refresh()
	s.logger.Info("evolution status updated", zap.String("evolution_id", id), zap.String("status", string(upd.Status)))
	return resp, nil
}

func (s *EvolutionService) AnalyzeImpact(ctx context.Context, actor string, request json.RawMessage) (json.RawMessage, error) {
	started := s.evaluator.Now()
	resp, err := s.backend.AnalyzeImpact(ctx, request)
	s.audit.record(ctx, actor, audit.ActionImpactAnalysis, "impact-assessment", nil, started, err)
	if err != nil {
		return nil, fmt.Errorf("impact analysis: %w", err)
	}
	s.queue.Refresh()
	return resp, nil
}

func (s *EvolutionService) item(r domain.EvolutionRecord) EvolutionItem {
	bucket := "unclassified"
	if b, ok := r.Status.Bucket(); ok {
		bucket = string(b)
	}
	return EvolutionItem{
		EvolutionRecord: r,
		StatusLabel:     lifecycle.StatusLabel(string(r.Status)),
		TypeLabel:       lifecycle.Humanize(string(r.EvolutionType)),
		Display:         lifecycle.Status(r.Status),
		Bucket:          bucket,
		Progress:        lifecycle.Progress(r.Status),
		CreatedLabel:    s.evaluator.Elapsed(r.CreatedAt),
	}
}
