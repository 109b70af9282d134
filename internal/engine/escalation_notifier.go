package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/domain"
)

// EscalationAlert — сообщение в канал эскалаций. Отправляется один раз на запрос
// (пока жив ключ дедупликации), потребители сами решают, кого будить.
type EscalationAlert struct {
	ApprovalID   string                  `json:"approval_id"`
	Type         domain.ApprovalType     `json:"type"`
	Priority     domain.ApprovalPriority `json:"priority"`
	Requester    string                  `json:"requester"`
	EscalationAt *time.Time              `json:"escalation_at,omitempty"`
	Overdue      bool                    `json:"overdue"`
	DetectedAt   time.Time               `json:"detected_at"`
}

// EscalationNotifier публикует алерты эскалации в Redis.
// SetNX на ключ запроса гарантирует, что несколько инстансов консоли не отправят алерт дважды.
type EscalationNotifier struct {
	rdb        *redis.Client
	channel    string
	lockPrefix string
	ttl        time.Duration
	metrics    *Metrics
	logger     *zap.Logger
}

func NewEscalationNotifier(rdb *redis.Client, channel, lockPrefix string, ttl time.Duration, metrics *Metrics, logger *zap.Logger) *EscalationNotifier {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &EscalationNotifier{
		rdb:        rdb,
		channel:    channel,
		lockPrefix: lockPrefix,
		ttl:        ttl,
		metrics:    metrics,
		logger:     logger.Named("escalation").With(zap.String("channel", channel)),
	}
}

// Notify возвращает число реально опубликованных алертов.
// Ошибка по одному запросу не мешает остальным, возвращается первая.
func (n *EscalationNotifier) Notify(ctx context.Context, alerts []EscalationAlert) (int, error) {
	published := 0
	var firstErr error
	for _, a := range alerts {
		ok, err := n.rdb.SetNX(ctx, n.lockPrefix+a.ApprovalID, a.DetectedAt.Format(time.RFC3339), n.ttl).Result()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("escalation lock %s: %w", a.ApprovalID, err)
			}
			continue
		}
		if !ok {
			continue // уже отправлено этим или другим инстансом
		}

		payload, err := json.Marshal(a)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("encode escalation %s: %w", a.ApprovalID, err)
			}
			continue
		}
		if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
			// снимаем блокировку, чтобы следующий цикл попробовал снова
			n.rdb.Del(ctx, n.lockPrefix+a.ApprovalID)
			if firstErr == nil {
				firstErr = fmt.Errorf("publish escalation %s: %w", a.ApprovalID, err)
			}
			continue
		}

		published++
		n.metrics.EscalationsPublished.Inc()
		n.logger.Info("escalation published",
			zap.String("approval_id", a.ApprovalID),
			zap.String("priority", string(a.Priority)),
			zap.Bool("overdue", a.Overdue))
	}
	return published, firstErr
}
