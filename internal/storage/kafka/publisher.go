package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"arbScope/internal/model"
)

const eventType = "bundle_verdict"

// Envelope wraps a published verdict.
type Envelope struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"`
	Data json.RawMessage `json:"data"`
}

// Publisher emits verdicts to a topic keyed by canonical hash, so a compacted topic keeps
// one record per bundle.
type Publisher struct {
	topic    string
	producer sarama.SyncProducer
}

// NewPublisher dials the brokers with an idempotent, all-acks producer.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 10
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Version = sarama.V2_1_0_0

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewPublisherWithProducer(producer, topic), nil
}

func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{topic: topic, producer: producer}
}

func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// Upsert publishes the verdict and waits for the broker ack.
func (p *Publisher) Upsert(ctx context.Context, verdict model.Verdict) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := verdict.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	payload, err := json.Marshal(Envelope{
		Type: eventType,
		TS:   time.Now().UnixMilli(),
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(verdict.Hash.Hex()),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", verdict.Hash.Hex(), err)
	}
	return nil
}
