package service

import (
	"time"

	"github.com/xela07ax/workshop-oversight-console/internal/poller"
)

// ResourceMeta — служебная часть каждого ответа: откуда снимок, насколько свежий, есть ли ошибка.
type ResourceMeta struct {
	Resource  string     `json:"resource"`
	Ready     bool       `json:"ready"`
	Fetching  bool       `json:"fetching"`
	Seq       uint64     `json:"seq"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Error     string     `json:"error,omitempty"`
	ErrorAt   *time.Time `json:"error_at,omitempty"`
}

func metaOf[T any](c *poller.Coordinator[T], snap poller.Snapshot[T]) ResourceMeta {
	st := c.Status()
	m := ResourceMeta{
		Resource: c.Name(),
		Ready:    snap.Ready,
		Fetching: st.State == poller.StateFetching,
		Seq:      snap.Seq,
		Error:    st.Error,
		ErrorAt:  st.ErrorAt,
	}
	if snap.Ready {
		t := snap.FetchedAt
		m.FetchedAt = &t
	}
	return m
}

// PollerSettings — общие настройки координаторов всех сервисов.
type PollerSettings struct {
	Base poller.Options // Clock, Logger, Recorder, Timeout

	AgentsInterval     time.Duration
	ApprovalsInterval  time.Duration
	EvolutionsInterval time.Duration
	StatisticsInterval time.Duration
	OversightInterval  time.Duration
}

func (p PollerSettings) with(interval time.Duration) poller.Options {
	opts := p.Base
	opts.Interval = interval
	return opts
}
