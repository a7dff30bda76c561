package streams

import (
	"context"
	"errors"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/redditcanon/internal/clients/kafka_client"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/sources"
)

// MessageSource is what KafkaStream reads from; KafkaMessageIterator
// satisfies it.
type MessageSource interface {
	Next() (*kafka.Message, error)
	Close() error
}

// KafkaStream decodes JSON message values into raw records. An idle topic
// ends the stream.
type KafkaStream struct {
	source MessageSource
	name   string
	part   string
}

func NewKafkaStream(src MessageSource, source, partition string) *KafkaStream {
	return &KafkaStream{source: src, name: source, part: partition}
}

func (s *KafkaStream) Next(ctx context.Context) (models.RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.RawRecord{}, err
		}

		msg, err := s.source.Next()
		if errors.Is(err, kafka_client.ErrIdle) {
			return models.RawRecord{}, ErrExhausted
		}
		if err != nil {
			return models.RawRecord{}, err
		}

		var fields map[string]any
		if err := rowDecoder.Unmarshal(msg.Value, &fields); err != nil || fields == nil {
			slog.Warn("[KafkaStream] Skipping undecodable message",
				slog.String("partition", s.part),
				slog.String("offset", msg.TopicPartition.Offset.String()))
			continue
		}
		return models.RawRecord{Source: s.name, Partition: s.part, Fields: fields}, nil
	}
}

func (s *KafkaStream) Close() error {
	return s.source.Close()
}

type KafkaOpener struct {
	Config kafka_client.KafkaConfig
}

func (o KafkaOpener) Open(_ context.Context, dataset string, part sources.Partition) (Stream, error) {
	name := part.Config
	if name == "" {
		name = part.Name
	}
	consumer, err := kafka_client.NewConsumer(o.Config, o.Config.Topic(name))
	if err != nil {
		return nil, err
	}
	it := kafka_client.NewKafkaMessageIterator(consumer, o.Config.IdleTimeout)
	return NewKafkaStream(it, dataset, part.Name), nil
}
