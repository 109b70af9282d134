package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/engine"
)

// operatorAudit пишет действия оператора в журнал. Журнал только копит историю,
// ни одно представление консоли из него не читает.
type operatorAudit struct {
	journal audit.Recorder
	clock   clockwork.Clock
}

func newOperatorAudit(journal audit.Recorder, clock clockwork.Clock) operatorAudit {
	if journal == nil {
		journal = audit.Nop{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return operatorAudit{journal: journal, clock: clock}
}

func (a operatorAudit) record(ctx context.Context, actor, action, target string, payload map[string]interface{}, started time.Time, err error) {
	ev := audit.OperatorAction{
		ID:         uuid.NewString(),
		TraceID:    engine.TraceIDFromContext(ctx),
		Actor:      actor,
		Action:     action,
		Target:     target,
		Payload:    payload,
		Status:     audit.StatusSuccess,
		Timestamp:  a.clock.Now(),
		DurationMs: a.clock.Since(started).Milliseconds(),
	}
	if err != nil {
		ev.Status = audit.StatusFailed
		ev.Error = err.Error()
	}
	a.journal.Log(ev)
}
