package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/infra"
)

// Signaler рассылает широковещательные сигналы о решениях по заявкам.
// Дашборды и внешние интеграции подписываются на канал и реагируют
// на смену статуса без опроса базы.
type Signaler struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewSignaler(rdb *redis.Client, logger *zap.Logger) *Signaler {
	return &Signaler{rdb: rdb, logger: logger}
}

// DecisionChanged публикует сигнал "{entryID}:{status}".
// Redis здесь best-effort: решение уже сохранено в базе,
// недоставленный сигнал не откатывает его.
func (s *Signaler) DecisionChanged(ctx context.Context, entryID, status string) {
	payload := fmt.Sprintf("%s:%s", entryID, status)
	if err := s.rdb.Publish(ctx, infra.RedisChanEntryDecisions, payload).Err(); err != nil {
		s.logger.Warn("decision signal delivery failed",
			zap.String("channel", infra.RedisChanEntryDecisions),
			zap.String("entry_id", entryID),
			zap.Error(err))
		return
	}
	s.logger.Debug("decision signal published",
		zap.String("entry_id", entryID),
		zap.String("status", status))
}

// Listen — "живучая" подписка на канал решений.
// Обрабатывает переподключения, логирование и разбор сигналов.
func Listen(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	onMessage func(entryID, status string),
) {
	for {
		pubsub := rdb.Subscribe(ctx, infra.RedisChanEntryDecisions)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			logger.Error("failed to subscribe",
				zap.String("chan", infra.RedisChanEntryDecisions), zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				// Разбор формата "entry_id:status"
				parts := strings.SplitN(msg.Payload, ":", 2)
				if len(parts) != 2 {
					logger.Error("invalid signal format", zap.String("payload", msg.Payload))
					continue
				}

				onMessage(parts[0], parts[1])
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}
