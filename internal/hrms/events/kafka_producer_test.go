package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockKafkaWriter implements KafkaWriter for testing
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestNewProducer(t *testing.T) {
	producer := newProducer(new(MockKafkaWriter), zaptest.NewLogger(t))

	assert.NotNil(t, producer.writer)
	assert.NotNil(t, producer.events)
	assert.NotNil(t, producer.closeChan)
	assert.Equal(t, "kafka_producer", producer.logger.Check(zap.InfoLevel, "").LoggerName)
}

func TestProducer_Produce(t *testing.T) {
	t.Run("successful produce", func(t *testing.T) {
		producer := newProducer(new(MockKafkaWriter), zaptest.NewLogger(t))
		id := uuid.NewString()

		producer.Produce(ApplicationStatusChanged, id, map[string]string{"status": "Selected"})

		require.Equal(t, 1, len(producer.events))
		event := <-producer.events
		assert.Equal(t, ApplicationStatusChanged, event.Type)
		assert.Equal(t, id, event.AggregateID)
		assert.False(t, event.OccurredAt.IsZero())
	})

	t.Run("dropped event when queue full", func(t *testing.T) {
		core, recorded := observer.New(zap.WarnLevel)
		producer := newProducer(new(MockKafkaWriter), zap.New(core))
		producer.events = make(chan Event, 1)
		id := uuid.NewString()

		producer.Produce(OfferSent, id, nil)
		producer.Produce(OfferSent, id, nil)

		assert.Equal(t, 1, recorded.FilterMessage("Kafka producer queue full, dropping event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.String("aggregate_id", id)).Len())
	})
}

func TestProducer_SendEvent(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &Producer{
		writer: mockWriter,
		logger: zaptest.NewLogger(t),
	}
	id := uuid.NewString()
	event := Event{
		Type:        ReviewCreated,
		AggregateID: id,
		OccurredAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Payload:     map[string]string{"employeeId": "EMP-1"},
	}

	t.Run("successful send", func(t *testing.T) {
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)

		producer.sendEvent(context.Background(), event)

		mockWriter.AssertCalled(t, "WriteMessages", mock.Anything, []kafka.Message{
			{
				Key:     []byte(id),
				Value:   mustMarshal(event),
				Headers: []kafka.Header{{Key: "event_type", Value: []byte(ReviewCreated)}},
			},
		})
	})

	t.Run("serialization error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)

		oldMarshal := jsonMarshal
		jsonMarshal = func(_ interface{}) ([]byte, error) {
			return nil, errors.New("mock marshal error")
		}
		defer func() { jsonMarshal = oldMarshal }()

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to serialize event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.String("aggregate_id", id)).Len())
	})

	t.Run("write error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)
		mockWriter.ExpectedCalls = nil
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("kafka error"))

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to produce event").Len())
	})
}

func TestProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	mockWriter.On("Close").Return(nil)

	producer := &Producer{
		writer:    mockWriter,
		closeChan: make(chan struct{}),
		logger:    zaptest.NewLogger(t),
	}

	producer.Close()

	select {
	case <-producer.closeChan:
	default:
		t.Error("closeChan not closed")
	}

	mockWriter.AssertCalled(t, "Close")
}

// chanWriter hands written messages to the test goroutine.
type chanWriter struct {
	msgs chan kafka.Message
	err  error
}

func (w *chanWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		w.msgs <- m
	}
	return w.err
}

func (w *chanWriter) Close() error { return nil }

func TestProducer_EventLoop(t *testing.T) {
	writer := &chanWriter{msgs: make(chan kafka.Message, 1)}
	producer := newProducer(writer, zaptest.NewLogger(t))
	go producer.eventLoop()
	defer close(producer.closeChan)

	id := uuid.NewString()
	producer.Produce(InterviewScheduled, id, nil)

	select {
	case msg := <-writer.msgs:
		assert.Equal(t, id, string(msg.Key))
		var got Event
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, InterviewScheduled, got.Type)
	case <-time.After(time.Second):
		t.Fatal("event was not written")
	}
}

func mustMarshal(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
