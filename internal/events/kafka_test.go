package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisherSendsEventKeyedByClass(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "bookings" {
			return errors.New("unexpected topic " + msg.Topic)
		}

		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "class-1" {
			return errors.New("unexpected key " + string(key))
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var got Event
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got.Type != BookingCreated || got.BookingID != "booking-1" {
			return errors.New("unexpected payload " + string(value))
		}
		return nil
	})

	p := newKafkaPublisher(producer, "bookings", discardLogger())

	err := p.Publish(context.Background(), Event{
		ID:         "evt-1",
		Type:       BookingCreated,
		OccurredAt: time.Now().UTC(),
		UserID:     "user-1",
		ClassID:    "class-1",
		BookingID:  "booking-1",
	})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherSurvivesDeliveryFailure(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	producer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := newKafkaPublisher(producer, "bookings", discardLogger())

	require.NoError(t, p.Publish(context.Background(), Event{Type: ClassCancelled, ClassID: "class-1"}))
	assert.NoError(t, p.Close())
}

func TestNewKafkaPublisherValidatesConfig(t *testing.T) {
	_, err := NewKafkaPublisher(config.Kafka{Topic: "bookings", Version: "3.6.0"}, discardLogger())
	assert.Error(t, err)

	_, err = NewKafkaPublisher(config.Kafka{Brokers: []string{"localhost:9092"}, Version: "3.6.0"}, discardLogger())
	assert.Error(t, err)

	_, err = NewKafkaPublisher(config.Kafka{Brokers: []string{"localhost:9092"}, Topic: "t", Version: "not-a-version"}, discardLogger())
	assert.Error(t, err)
}
