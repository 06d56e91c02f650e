package kafka

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w     messageWriter
	topic string
	log   *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, topic, log)
}

func newProducer(w messageWriter, topic string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.L()
	}
	return &Producer{
		w:     w,
		topic: topic,
		log:   log.With(zap.String("component", "kafka.producer"), zap.String("topic", topic)),
	}
}

// PublishProto writes one message keyed by key and carries the trace context in its headers.
func (p *Producer) PublishProto(ctx context.Context, key []byte, m proto.Message) error {
	value, err := proto.Marshal(m)
	if err != nil {
		p.log.Error("proto marshal failed", zap.Error(err))
		return err
	}

	tr := otel.Tracer("kafka.producer")
	ctx, span := tr.Start(ctx, "kafka.produce "+p.topic, trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingOperationPublish,
		),
	)
	defer span.End()

	carrier := &headerCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msg := kafka.Message{Key: key, Value: value, Headers: carrier.headers}

	err = p.w.WriteMessages(ctx, msg)
	if err != nil {
		span.RecordError(err)
		p.log.Error("kafka write failed", zap.Error(err))
		return err
	}
	p.log.Debug("message published",
		zap.Int("key_len", len(key)),
		zap.Int("value_len", len(value)),
	)
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }

func KeyFromInt64(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
