package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/domain"
	"github.com/xela07ax/workshop-oversight-console/internal/escalation"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

const ResourceOversight = "oversight"

// OversightBackend описывает, что нам нужно от координатора надзора
type OversightBackend interface {
	CoordinatorStatus(ctx context.Context) (map[string]interface{}, error)
	ActiveWorkflows(ctx context.Context) ([]map[string]interface{}, error)
	QualityMetrics(ctx context.Context) (map[string]interface{}, error)
	Chat(ctx context.Context, message json.RawMessage) (json.RawMessage, error)
	Coordinate(ctx context.Context, request json.RawMessage) (json.RawMessage, error)
	WorkflowAction(ctx context.Context, workflowID string, action domain.WorkflowAction, payload json.RawMessage) (json.RawMessage, error)
}

// ErrInvalidWorkflowAction — действие не approve и не reject.
var ErrInvalidWorkflowAction = errors.New("invalid workflow action")

type OversightView struct {
	domain.OversightState
	Meta ResourceMeta `json:"meta"`
}

type OversightService struct {
	backend   OversightBackend
	state     *poller.Coordinator[domain.OversightState]
	evaluator *escalation.Evaluator
	audit     operatorAudit
	logger    *zap.Logger
}

func NewOversightService(backend OversightBackend, settings PollerSettings, journal audit.Recorder, logger *zap.Logger) *OversightService {
	s := &OversightService{
		backend:   backend,
		evaluator: escalation.NewEvaluator(settings.Base.Clock),
		audit:     newOperatorAudit(journal, settings.Base.Clock),
		logger:    logger.Named("oversight-service"),
	}
	s.state = poller.New(ResourceOversight, s.fetchState, settings.with(settings.OversightInterval))
	return s
}

func (s *OversightService) Resources() []poller.Resource {
	return []poller.Resource{s.state}
}

func (s *OversightService) fetchState(ctx context.Context) (domain.OversightState, error) {
	var st domain.OversightState
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		status, err := s.backend.CoordinatorStatus(gctx)
		if err != nil {
			return fmt.Errorf("coordinator status: %w", err)
		}
		st.CoordinatorStatus = status
		return nil
	})
	g.Go(func() error {
		workflows, err := s.backend.ActiveWorkflows(gctx)
		if err != nil {
			return fmt.Errorf("active workflows: %w", err)
		}
		st.Workflows = workflows
		return nil
	})
	g.Go(func() error {
		quality, err := s.backend.QualityMetrics(gctx)
		if err != nil {
			return fmt.Errorf("quality metrics: %w", err)
		}
		st.QualityMetrics = quality
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.OversightState{}, err
	}
	if st.Workflows == nil {
		st.Workflows = []map[string]interface{}{}
	}
	return st, nil
}

func (s *OversightService) State() OversightView {
	snap := s.state.Latest()
	view := OversightView{OversightState: snap.Data, Meta: metaOf(s.state, snap)}
	if view.Workflows == nil {
		view.Workflows = []map[string]interface{}{}
	}
	return view
}

func (s *OversightService) Chat(ctx context.Context, actor string, message json.RawMessage) (json.RawMessage, error) {
	started := s.evaluator.Now()
	resp, err := s.backend.Chat(ctx, message)
	s.audit.record(ctx, actor, audit.ActionOversightChat, "coordinator", nil, started, err)
	if err != nil {
		return nil, fmt.Errorf("oversight chat: %w", err)
	}
	return resp, nil
}

func (s *OversightService) Coordinate(ctx context.Context, actor string, request json.RawMessage) (json.RawMessage, error) {
	started := s.evaluator.Now()
	resp, err := s.backend.Coordinate(ctx, request)
	s.audit.record(ctx, actor, audit.ActionCoordinate, "coordinator", nil, started, err)
	if err != nil {
		return nil, fmt.Errorf("oversight coordinate: %w", err)
	}
	s.state.Refresh()
	return resp, nil
}

// WorkflowAction одобряет или отклоняет workflow и перечитывает панель.
func (s *OversightService) WorkflowAction(ctx context.Context, actor, workflowID string, action domain.WorkflowAction, payload json.RawMessage) (json.RawMessage, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWorkflowAction, action)
	}

	name := audit.ActionWorkflowApprove
	if action == domain.WorkflowReject {
		name = audit.ActionWorkflowReject
	}
	started := s.evaluator.Now()
	resp, err := s.backend.WorkflowAction(ctx, workflowID, action, payload)
	s.audit.record(ctx, actor, name, workflowID, nil, started, err)
	if err != nil {
		return nil, fmt.Errorf("workflow %s %s: %w", workflowID, action, err)
	}

	s.state.Refresh()
	s.logger.Info("workflow action applied", zap.String("workflow_id", workflowID), zap.String("action", string(action)))
	return resp, nil
}
