package repository

import (
	"context"
	"fmt"

	"BreadthLab/internal/domain/models"
	pkgkafka "BreadthLab/pkg/kafka"
)

// KafkaPublisher publishes run snapshots to a Kafka topic, keyed by index so
// consumers see per-index ordering.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, snap *models.BreadthSnapshot) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(snap.IndexSymbol), snap); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
