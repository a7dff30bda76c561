package kafka_client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// ErrIdle means no message arrived within the idle timeout.
var ErrIdle = errors.New("[KafkaIterator] no message within idle timeout")

type KafkaMessageIterator struct {
	consumer    *kafka.Consumer
	committer   *KafkaCommitHandler
	idleTimeout time.Duration
	last        *kafka.Message
}

func NewKafkaMessageIterator(consumer *kafka.Consumer, idleTimeout time.Duration) *KafkaMessageIterator {
	if idleTimeout <= 0 {
		idleTimeout = DEFAULT_IDLE_TIMEOUT
	}
	return &KafkaMessageIterator{
		consumer:    consumer,
		committer:   NewCommitHandler(consumer),
		idleTimeout: idleTimeout,
	}
}

func (it *KafkaMessageIterator) Next() (*kafka.Message, error) {
	if it.consumer == nil {
		return nil, errors.New("[KafkaIterator] Kafka consumer has not been initialized")
	}

	for i := 0; i < MAX_RETRIES; i++ {
		msg, err := it.consumer.ReadMessage(it.idleTimeout)
		if err == nil {
			it.last = msg
			return msg, nil
		}

		var kafkaErr kafka.Error
		if errors.As(err, &kafkaErr) {
			switch {
			case kafkaErr.Code() == kafka.ErrTimedOut:
				return nil, ErrIdle
			case kafkaErr.Code() == kafka.ErrAllBrokersDown, kafkaErr.IsFatal():
				slog.Error("[KafkaIterator] Kafka is unavailable. Aborting",
					slog.String("error", err.Error()))
				return nil, err
			}
		}

		slog.Warn("[KafkaIterator] Failed to read message, retrying...",
			slog.Int("attempt", i+1),
			slog.Int("max_retries", MAX_RETRIES),
			slog.String("error", err.Error()))
		time.Sleep(RETRY_DELAY)
	}
	return nil, errors.New("[KafkaIterator] Failed to read message after retries")
}

// Close commits the last message handed out, then closes the consumer.
func (it *KafkaMessageIterator) Close() error {
	if it.consumer == nil {
		return nil
	}
	var commitErr error
	if it.last != nil {
		ctx, cancel := context.WithTimeout(context.Background(), COMMIT_TIMEOUT)
		commitErr = it.committer.Commit(ctx, it.last)
		cancel()
	}
	return errors.Join(commitErr, it.consumer.Close())
}
