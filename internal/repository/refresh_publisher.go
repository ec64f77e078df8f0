package repository

import (
	"context"

	"github.com/segmentio/kafka-go"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	pkgkafka "EquityLens/pkg/kafka"
)

// KafkaRefreshPublisher writes refresh requests to the refresh topic, keyed by
// symbol so requests for one ticker stay ordered.
type KafkaRefreshPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRefreshPublisher(producer *pkgkafka.Producer, topic string) *KafkaRefreshPublisher {
	return &KafkaRefreshPublisher{producer: producer, topic: topic}
}

func (p *KafkaRefreshPublisher) RequestRefresh(ctx context.Context, req models.RefreshRequest) error {
	var headers []kafka.Header
	if id := pkgkafka.TraceIDFrom(ctx); id != "" {
		headers = append(headers, kafka.Header{Key: pkgkafka.TraceHeader, Value: []byte(id)})
	}
	return p.producer.Publish(ctx, p.topic, []byte(req.Symbol), req, headers...)
}

// Enqueuer is the producer side of the job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload any) error
}

// QueueRefreshPublisher enqueues refresh requests on the Redis job queue.
type QueueRefreshPublisher struct {
	q       Enqueuer
	msgType string
}

func NewQueueRefreshPublisher(q Enqueuer, msgType string) *QueueRefreshPublisher {
	return &QueueRefreshPublisher{q: q, msgType: msgType}
}

func (p *QueueRefreshPublisher) RequestRefresh(ctx context.Context, req models.RefreshRequest) error {
	return p.q.Enqueue(ctx, p.msgType, req)
}

var (
	_ domrepo.RefreshPublisher = (*KafkaRefreshPublisher)(nil)
	_ domrepo.RefreshPublisher = (*QueueRefreshPublisher)(nil)
)
