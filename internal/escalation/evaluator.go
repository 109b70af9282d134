// Package escalation вычисляет временные флаги запросов на подтверждение.
// Все функции чистые: зависят только от переданного "сейчас" и полей записи.
package escalation

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// Deadlines — минимальный набор полей записи, нужный для оценки.
type Deadlines struct {
	CreatedAt    time.Time
	TimeoutAt    *time.Time
	EscalationAt *time.Time
	Status       domain.ApprovalStatus
}

// Flags — результат оценки на момент now.
type Flags struct {
	IsOverdue       bool   `json:"is_overdue"`
	NeedsEscalation bool   `json:"needs_escalation"`
	ElapsedLabel    string `json:"elapsed_label"`
}

func FromApproval(a domain.ApprovalRequest) Deadlines {
	return Deadlines{
		CreatedAt:    a.CreatedAt,
		TimeoutAt:    a.TimeoutAt,
		EscalationAt: a.EscalationAt,
		Status:       a.Status,
	}
}

func Evaluate(now time.Time, d Deadlines) Flags {
	return Flags{
		IsOverdue:       IsOverdue(now, d),
		NeedsEscalation: NeedsEscalation(now, d),
		ElapsedLabel:    ElapsedLabel(now, d.CreatedAt),
	}
}

// IsOverdue: без timeout_at запрос никогда не просрочен.
func IsOverdue(now time.Time, d Deadlines) bool {
	return d.TimeoutAt != nil && now.After(*d.TimeoutAt)
}

// NeedsEscalation — одноразовый переход: уже эскалированный запрос флаг не получает,
// даже если срок эскалации давно прошел.
func NeedsEscalation(now time.Time, d Deadlines) bool {
	if d.EscalationAt == nil || d.Status == domain.ApprovalEscalated {
		return false
	}
	return now.After(*d.EscalationAt)
}

// ElapsedLabel: <1м "Just now", <60м "{m}m ago", <1440м "{h}h ago", иначе "{d}d ago".
func ElapsedLabel(now, createdAt time.Time) string {
	if createdAt.IsZero() {
		return "Unknown"
	}
	minutes := int64(now.Sub(createdAt) / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh ago", minutes/60)
	default:
		return fmt.Sprintf("%dd ago", minutes/1440)
	}
}

// Evaluator привязывает оценку к часам. Результаты не кэшируются: каждый вызов считает заново.
type Evaluator struct {
	clock clockwork.Clock
}

func NewEvaluator(clock clockwork.Clock) *Evaluator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Evaluator{clock: clock}
}

func (e *Evaluator) Now() time.Time {
	return e.clock.Now()
}

func (e *Evaluator) Approval(a domain.ApprovalRequest) Flags {
	return Evaluate(e.clock.Now(), FromApproval(a))
}

func (e *Evaluator) Elapsed(createdAt time.Time) string {
	return ElapsedLabel(e.clock.Now(), createdAt)
}
