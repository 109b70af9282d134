package engine

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenRefreshSignals — живучая подписка на сигналы обновления ресурсов.
// Сообщение содержит имя ресурса ("approvals", "evolutions"...), onSignal запускает его опрос.
// onReconnect вызывается после каждой успешной подписки: сигналы, пропущенные во время
// разрыва, не доставляются повторно.
func ListenRefreshSignals(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func(),
	onSignal func(resource string) error,
) {
	logger = logger.Named("refresh-listener").With(zap.String("chan", channel))

	for {
		pubsub := rdb.Subscribe(ctx, channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}
		onReconnect()

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // канал закрыт, переподключаемся
				}
				resource := strings.TrimSpace(msg.Payload)
				if resource == "" {
					logger.Warn("empty refresh signal")
					continue
				}
				if err := onSignal(resource); err != nil {
					logger.Warn("refresh signal ignored", zap.String("resource", resource), zap.Error(err))
				}
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
