package repository

import (
	"context"

	"github.com/segmentio/kafka-go"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	pkgkafka "EquityLens/pkg/kafka"
)

// KafkaPublisher is a ResultSink that publishes results keyed by symbol.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.ResultSink = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Save publishes r. The result ID travels as the trace_id header unless the
// context already carries one from a refresh request.
func (p *KafkaPublisher) Save(ctx context.Context, r *models.AnalysisResult) error {
	traceID := pkgkafka.TraceIDFrom(ctx)
	if traceID == "" {
		traceID = r.ID
	}
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r,
		kafka.Header{Key: pkgkafka.TraceHeader, Value: []byte(traceID)},
		kafka.Header{Key: "mode", Value: []byte(r.Mode.String())},
	)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
