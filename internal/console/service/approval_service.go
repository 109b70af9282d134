package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/engine"
	"github.com/xela07ax/workshop-oversight-console/internal/escalation"
	"github.com/xela07ax/workshop-oversight-console/internal/lifecycle"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

const ResourceApprovals = "approvals"

// ApprovalBackend описывает, что нам нужно от API очереди согласований
type ApprovalBackend interface {
	PendingApprovals(ctx context.Context, f domain.ApprovalFilter) ([]domain.ApprovalRequest, error)
	SubmitDecision(ctx context.Context, approvalID string, form domain.DecisionForm) (json.RawMessage, error)
}

// EscalationPublisher — внешний канал алертов (Redis). Может отсутствовать.
type EscalationPublisher interface {
	Notify(ctx context.Context, alerts []engine.EscalationAlert) (int, error)
}

type ApprovalObserver interface {
	ObserveApprovals(total, overdue, needsEscalation int)
}

// ApprovalItem — запрос очереди с флагами, посчитанными в момент запроса представления.
type ApprovalItem struct {
	domain.ApprovalRequest
	escalation.Flags
	TypeLabel string          `json:"type_label"`
	Display   ApprovalDisplay `json:"display"`
	HasDraft  bool            `json:"has_draft"`
}

type ApprovalQueue struct {
	Items           []ApprovalItem `json:"items"`
	Total           int            `json:"total"`
	Overdue         int            `json:"overdue"`
	NeedsEscalation int            `json:"needs_escalation"`
	Meta            ResourceMeta   `json:"meta"`
}

type ApprovalService struct {
	backend   ApprovalBackend
	queue     *poller.Coordinator[[]domain.ApprovalRequest]
	drafts    *DraftStore
	evaluator *escalation.Evaluator
	publisher EscalationPublisher
	observer  ApprovalObserver
	audit     operatorAudit
	logger    *zap.Logger
}

func NewApprovalService(
	backend ApprovalBackend,
	settings PollerSettings,
	publisher EscalationPublisher,
	observer ApprovalObserver,
	journal audit.Recorder,
	logger *zap.Logger,
) *ApprovalService {
	s := &ApprovalService{
		backend:   backend,
		drafts:    NewDraftStore(),
		evaluator: escalation.NewEvaluator(settings.Base.Clock),
		publisher: publisher,
		observer:  observer,
		audit:     newOperatorAudit(journal, settings.Base.Clock),
		logger:    logger.Named("approval-service"),
	}
	// Опрос всегда без фильтра: фильтры применяются к снимку локально.
	s.queue = poller.New(ResourceApprovals, func(ctx context.Context) ([]domain.ApprovalRequest, error) {
		items, err := backend.PendingApprovals(ctx, domain.ApprovalFilter{})
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []domain.ApprovalRequest{}
		}
		return items, nil
	}, settings.with(settings.ApprovalsInterval))
	s.queue.OnUpdate(s.onUpdate)
	return s
}

func (s *ApprovalService) Resources() []poller.Resource {
	return []poller.Resource{s.queue}
}

// Queue возвращает очередь с фильтром. Флаги просрочки и эскалации не кешируются.
func (s *ApprovalService) Queue(filter domain.ApprovalFilter) ApprovalQueue {
	snap := s.queue.Latest()
	q := ApprovalQueue{
		Items: make([]ApprovalItem, 0, len(snap.Data)),
		Meta:  metaOf(s.queue, snap),
	}
	for _, a := range snap.Data {
		if !filter.Match(a) {
			continue
		}
		item := s.item(a)
		q.Items = append(q.Items, item)
		if item.IsOverdue {
			q.Overdue++
		}
		if item.NeedsEscalation {
			q.NeedsEscalation++
		}
	}
	q.Total = len(q.Items)
	return q
}

// SubmitDecision проверяет и отправляет решение. При любой ошибке форма остается черновиком.
func (s *ApprovalService) SubmitDecision(ctx context.Context, approvalID string, form domain.DecisionForm) (json.RawMessage, error) {
	started := s.evaluator.Now()
	if form.Timestamp.IsZero() {
		form.Timestamp = started
	}

	if err := form.Validate(); err != nil {
		s.drafts.Save(approvalID, form)
		return nil, err
	}

	resp, err := s.backend.SubmitDecision(ctx, approvalID, form)
	s.audit.record(ctx, form.Approver, audit.ActionApprovalDecision, approvalID, map[string]interface{}{
		"decision": string(form.Decision),
	}, started, err)
	if err != nil {
		s.drafts.Save(approvalID, form)
		s.logger.Warn("decision submission failed, draft kept",
			zap.String("approval_id", approvalID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("submit decision for %s: %w", approvalID, err)
	}

	s.drafts.Clear(approvalID)
	s.queue.Refresh()
	s.logger.Info("decision submitted",
		zap.String("approval_id", approvalID),
		zap.String("decision", string(form.Decision)),
		zap.String("approver", form.Approver),
	)
	return resp, nil
}

func (s *ApprovalService) Draft(approvalID string) (domain.DecisionForm, bool) {
	return s.drafts.Get(approvalID)
}

func (s *ApprovalService) item(a domain.ApprovalRequest) ApprovalItem {
	_, hasDraft := s.drafts.Get(a.ApprovalID)
	return ApprovalItem{
		ApprovalRequest: a,
		Flags:           s.evaluator.Approval(a),
		TypeLabel:       lifecycle.Humanize(string(a.Type)),
		Display:         approvalDisplay(a),
		HasDraft:        hasDraft,
	}
}

// onUpdate обновляет метрики очереди и публикует алерты по запросам, которым пора эскалироваться.
func (s *ApprovalService) onUpdate(snap poller.Snapshot[[]domain.ApprovalRequest]) {
	now := s.evaluator.Now()
	var overdue, escalate int
	alerts := make([]engine.EscalationAlert, 0)

	for _, a := range snap.Data {
		flags := escalation.Evaluate(now, escalation.FromApproval(a))
		if flags.IsOverdue {
			overdue++
		}
		if !flags.NeedsEscalation {
			continue
		}
		escalate++
		alerts = append(alerts, engine.EscalationAlert{
			ApprovalID:   a.ApprovalID,
			Type:         a.Type,
			Priority:     a.Priority,
			Requester:    a.Requester,
			EscalationAt: a.EscalationAt,
			Overdue:      flags.IsOverdue,
			DetectedAt:   now,
		})
	}

	if s.observer != nil {
		s.observer.ObserveApprovals(len(snap.Data), overdue, escalate)
	}
	if s.publisher == nil || len(alerts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.publisher.Notify(ctx, alerts); err != nil {
		s.logger.Warn("escalation alerts not fully published", zap.Int("alerts", len(alerts)), zap.Error(err))
	}
}
