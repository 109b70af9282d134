package service

import (
	"context"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

// ResourceService — служебные операции над координаторами: статус, ручное обновление, сброс ошибки.
type ResourceService struct {
	group *poller.Group
	audit operatorAudit
}

func NewResourceService(group *poller.Group, journal audit.Recorder, settings PollerSettings) *ResourceService {
	return &ResourceService{group: group, audit: newOperatorAudit(journal, settings.Base.Clock)}
}

func (s *ResourceService) Statuses() []poller.Status {
	return s.group.Statuses()
}

func (s *ResourceService) Refresh(ctx context.Context, actor, name string) error {
	started := s.audit.clock.Now()
	r, err := s.group.Get(name)
	if err != nil {
		return err
	}
	r.Refresh()
	s.audit.record(ctx, actor, audit.ActionResourceRefresh, name, nil, started, nil)
	return nil
}

func (s *ResourceService) DismissError(ctx context.Context, actor, name string) error {
	started := s.audit.clock.Now()
	r, err := s.group.Get(name)
	if err != nil {
		return err
	}
	r.DismissError()
	s.audit.record(ctx, actor, audit.ActionErrorDismissed, name, nil, started, nil)
	return nil
}
