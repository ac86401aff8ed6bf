package kafka

import (
	"context"

	"github.com/IBM/sarama"
)

const eventHeader = "event"

// Producer is a synchronous publisher for conversation events. Sends block
// until the broker acknowledges the write, so a nil return means the event
// is durable.
type Producer struct {
	sync sarama.SyncProducer
}

// producerConfig applies the delivery settings event publishing relies on:
// idempotent acks-all writes so retries cannot duplicate an event. Sarama
// only accepts idempotent mode with a single in-flight request per broker.
func producerConfig(cfg *sarama.Config) *sarama.Config {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(brokers, producerConfig(cfg))
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

// Publish sends one event, keyed so a thread's events land on one partition
// in order. The event name travels as a record header, letting consumers
// route without decoding the payload.
func (p *Producer) Publish(ctx context.Context, topic, key, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(eventHeader), Value: []byte(event)},
		},
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
