package outbox

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer fans messages out to per-topic writers, creating each writer
// on first use.
type KafkaProducer struct {
	brokers []string

	mu      sync.Mutex
	byTopic map[string]*kafka.Writer
}

func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		brokers: brokers,
		byTopic: make(map[string]*kafka.Writer),
	}
}

// WriteMessages delivers msgs to topic, requiring acknowledgement from the
// full ISR before returning.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writer(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.byTopic[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:         kafka.TCP(p.brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		}
		p.byTopic[topic] = w
	}
	return w
}

// Close closes every open writer and reports the first error seen.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.byTopic {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.byTopic, topic)
	}
	return firstErr
}
