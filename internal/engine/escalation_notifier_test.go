package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestEscalationNotifierPublishesOnce(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	metrics := NewMetrics(nil)
	n := NewEscalationNotifier(rdb, "test:escalations", "test:lock:escalation:", time.Hour, metrics, zap.NewNop())

	sub := rdb.Subscribe(ctx, "test:escalations")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	alert := EscalationAlert{
		ApprovalID: "apr-7",
		Type:       domain.ApprovalDeploymentAuthorization,
		Priority:   domain.PriorityUrgent,
		Requester:  "pipeline",
		DetectedAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}

	published, err := n.Notify(ctx, []EscalationAlert{alert})
	require.NoError(t, err)
	assert.Equal(t, 1, published)

	select {
	case msg := <-sub.Channel():
		var got EscalationAlert
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "apr-7", got.ApprovalID)
		assert.Equal(t, domain.PriorityUrgent, got.Priority)
	case <-time.After(2 * time.Second):
		t.Fatal("escalation was not published")
	}

	// повтор в следующем цикле опроса не шлет алерт заново
	published, err = n.Notify(ctx, []EscalationAlert{alert})
	require.NoError(t, err)
	assert.Equal(t, 0, published)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EscalationsPublished))

	// после истечения ключа дедупликации алерт снова возможен
	mr.FastForward(time.Hour + time.Second)
	published, err = n.Notify(ctx, []EscalationAlert{alert})
	require.NoError(t, err)
	assert.Equal(t, 1, published)
}

func TestEscalationNotifierReportsRedisErrors(t *testing.T) {
	mr, rdb := newRedis(t)
	n := NewEscalationNotifier(rdb, "test:escalations", "test:lock:", time.Minute, nil, zap.NewNop())
	mr.Close()

	published, err := n.Notify(context.Background(), []EscalationAlert{{ApprovalID: "a"}, {ApprovalID: "b"}})
	assert.Error(t, err)
	assert.Equal(t, 0, published)
}
