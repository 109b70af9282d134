package escalation

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestNoTimeoutNeverOverdue(t *testing.T) {
	flags := Evaluate(now, Deadlines{CreatedAt: now.Add(-90 * time.Minute), Status: domain.ApprovalPending})

	assert.False(t, flags.IsOverdue)
	assert.False(t, flags.NeedsEscalation)
	assert.Equal(t, "1h ago", flags.ElapsedLabel)
}

func TestOverdueIsStrictlyAfterTimeout(t *testing.T) {
	assert.True(t, IsOverdue(now, Deadlines{TimeoutAt: at(-time.Second)}))
	assert.False(t, IsOverdue(now, Deadlines{TimeoutAt: at(0)}))
	assert.False(t, IsOverdue(now, Deadlines{TimeoutAt: at(time.Minute)}))
}

func TestEscalationIsOneShot(t *testing.T) {
	d := Deadlines{CreatedAt: now.Add(-time.Hour), EscalationAt: at(-5 * time.Minute), Status: domain.ApprovalPending}
	assert.True(t, Evaluate(now, d).NeedsEscalation)

	d.Status = domain.ApprovalEscalated
	assert.False(t, Evaluate(now, d).NeedsEscalation)
	// и остается false сколько угодно после дедлайна
	assert.False(t, Evaluate(now.Add(72*time.Hour), d).NeedsEscalation)

	d.Status = domain.ApprovalInReview
	assert.True(t, Evaluate(now, d).NeedsEscalation)
}

func TestEscalationNotYetDue(t *testing.T) {
	d := Deadlines{EscalationAt: at(10 * time.Minute), Status: domain.ApprovalPending}
	assert.False(t, NeedsEscalation(now, d))
}

func TestElapsedLabelBuckets(t *testing.T) {
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{time.Minute, "1m ago"},
		{59*time.Minute + 59*time.Second, "59m ago"},
		{60 * time.Minute, "1h ago"},
		{23*time.Hour + 59*time.Minute, "23h ago"},
		{24 * time.Hour, "1d ago"},
		{50 * time.Hour, "2d ago"},
		{-5 * time.Minute, "Just now"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ElapsedLabel(now, now.Add(-tc.ago)), tc.ago.String())
	}
	assert.Equal(t, "Unknown", ElapsedLabel(now, time.Time{}))
}

func TestEvaluatorRecomputesOnEveryCall(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	ev := NewEvaluator(clock)
	a := domain.ApprovalRequest{
		ApprovalID:   "a-1",
		Status:       domain.ApprovalPending,
		CreatedAt:    now,
		TimeoutAt:    at(30 * time.Minute),
		EscalationAt: at(15 * time.Minute),
	}

	first := ev.Approval(a)
	assert.Equal(t, Flags{ElapsedLabel: "Just now"}, first)

	clock.Advance(20 * time.Minute)
	assert.Equal(t, Flags{NeedsEscalation: true, ElapsedLabel: "20m ago"}, ev.Approval(a))

	clock.Advance(20 * time.Minute)
	assert.Equal(t, Flags{IsOverdue: true, NeedsEscalation: true, ElapsedLabel: "40m ago"}, ev.Approval(a))
}
