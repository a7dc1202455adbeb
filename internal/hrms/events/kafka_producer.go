// Package events publishes workflow events to Kafka and consumes offer
// responses coming back from the candidate portal.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	ApplicationCreated       EventType = "application.created"
	ApplicationStatusChanged EventType = "application.status_changed"
	InterviewScheduled       EventType = "interview.scheduled"
	InterviewUpdated         EventType = "interview.updated"
	InterviewCompleted       EventType = "interview.completed"
	OfferGenerated           EventType = "offer.generated"
	OfferSent                EventType = "offer.sent"
	OfferResponded           EventType = "offer.responded"
	EmployeeConverted        EventType = "employee.converted"
	OnboardingCompleted      EventType = "onboarding.completed"
	LifecycleStageAppended   EventType = "lifecycle.stage_appended"
	ReviewCreated            EventType = "review.created"
	ReviewUpdated            EventType = "review.updated"
	ReviewManagerReviewed    EventType = "review.manager_reviewed"
)

// Event is the envelope written to the workflow topic. AggregateID is used
// as the message key so events of one aggregate stay ordered.
type Event struct {
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregateId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Payload     any       `json:"payload,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	if err := ensureTopic(brokers, topic, logger); err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	p := newProducer(writer, logger)
	go p.eventLoop()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// ensureTopic creates topic if it doesn't exist.
func ensureTopic(brokers []string, topic string, logger *zap.Logger) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.String("topic", topic), zap.Error(err))
	}
	return nil
}

// Produce queues an event without blocking. Events are dropped when the
// queue is full.
func (p *Producer) Produce(eventType EventType, aggregateID string, payload any) {
	event := Event{
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("aggregate_id", aggregateID),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("aggregate_id", event.AggregateID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.AggregateID),
		Value:   value,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("aggregate_id", event.AggregateID),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
