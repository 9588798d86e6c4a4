package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Bessima/orderflow/internal/middlewares/logger"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        100 * time.Millisecond,
		CommitInterval: 0,
	})
	return &Consumer{reader: r}
}

// Subscribe читает ленту до отмены контекста. Сообщения, которые не удалось
// разобрать, пропускаются и коммитятся.
func (c *Consumer) Subscribe(ctx context.Context, handle func(Change)) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logger.Log.Warn("kafka fetch error", zap.Error(err))
			select {
			case <-time.After(300 * time.Millisecond):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		change, err := Decode(m.Value)
		if err != nil {
			logger.Log.Warn("skip malformed change",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
		} else {
			handle(change)
		}

		if err = c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
