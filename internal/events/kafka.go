package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/IBM/sarama"
)

// KafkaPublisher writes events to a single topic, keyed by class so that
// consumers see each class's events in order.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	log      *slog.Logger
	topic    string
	done     chan struct{}
}

func NewKafkaPublisher(cfg config.Kafka, log *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers list is empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is empty")
	}

	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("parse kafka version: %w", err)
	}

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, createSaramaConfig(version))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return newKafkaPublisher(producer, cfg.Topic, log), nil
}

func newKafkaPublisher(producer sarama.AsyncProducer, topic string, log *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		log:      log,
		topic:    topic,
		done:     make(chan struct{}),
	}
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		p.log.Error("failed to deliver event",
			slog.String("topic", p.topic),
			slog.Any("error", perr.Err),
		)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.ClassID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("Event-Type"), Value: []byte(e.Type)},
		},
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		p.log.Warn("context cancelled before publishing event",
			slog.String("type", string(e.Type)),
			slog.Any("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

// Close flushes buffered messages and waits for the error drain to finish.
func (p *KafkaPublisher) Close() error {
	p.log.Info("closing kafka producer")
	err := p.producer.Close()
	<-p.done
	if err != nil {
		p.log.Error("failed to close kafka producer", slog.Any("error", err))
	}
	return err
}

func createSaramaConfig(ver sarama.KafkaVersion) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = ver
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	return config
}
