package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"service-job-assignment/internal/domain"
)

// KafkaSink publishes notifications to a topic consumed by the push/SMS gateway.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer creates a sync producer, or nil when Kafka is not configured.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	// RetryingSink owns retries
	cfg.Producer.Retry.Max = 0
	return sarama.NewSyncProducer(brokers, cfg)
}

// NewKafkaSink creates a new KafkaSink.
func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: strings.TrimSpace(topic)}
}

// Send publishes n keyed by driver so one driver's messages stay ordered.
func (k *KafkaSink) Send(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(n)
	if err != nil {
		return Permanent(fmt.Errorf("marshal notification: %w", err))
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(n.DriverID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(n.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", n.Kind, k.topic, err)
	}
	return nil
}

// Close closes the producer.
func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
