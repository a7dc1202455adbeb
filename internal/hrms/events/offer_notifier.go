package events

import (
	"context"
	"fmt"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OfferNotification asks the mailer to deliver an offer to the candidate.
type OfferNotification struct {
	ApplicationID  uuid.UUID       `json:"applicationId"`
	OfferID        uuid.UUID       `json:"offerId"`
	CandidateName  string          `json:"candidateName"`
	CandidateEmail string          `json:"candidateEmail"`
	Salary         decimal.Decimal `json:"salary"`
	JoiningDate    string          `json:"joiningDate"`
	Department     string          `json:"department"`
	WorkType       models.WorkType `json:"workType"`
	ExpiryDate     string          `json:"expiryDate,omitempty"`
	DocumentURL    string          `json:"documentUrl,omitempty"`
	Reminder       bool            `json:"reminder"`
}

// OfferNotifier writes offer notifications synchronously so that a failed
// delivery is reported to the caller.
type OfferNotifier struct {
	writer KafkaWriter
	logger *zap.Logger
}

func NewOfferNotifier(brokers []string, topic string, logger *zap.Logger) *OfferNotifier {
	return newOfferNotifier(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,

		AllowAutoTopicCreation: true,
	}, logger)
}

func newOfferNotifier(writer KafkaWriter, logger *zap.Logger) *OfferNotifier {
	return &OfferNotifier{writer: writer, logger: logger.Named("offer_notifier")}
}

// SendOffer publishes the current offer of app. Any failure is an
// ErrDelivery.
func (n *OfferNotifier) SendOffer(ctx context.Context, app *models.Application, reminder bool) error {
	offer := app.OfferLetter
	if offer == nil {
		return fmt.Errorf("%w: application %s has no offer", e.ErrDelivery, app.ID)
	}
	value, err := jsonMarshal(OfferNotification{
		ApplicationID:  app.ID,
		OfferID:        offer.ID,
		CandidateName:  app.Candidate.FullName,
		CandidateEmail: app.Candidate.Email,
		Salary:         offer.Salary,
		JoiningDate:    offer.JoiningDate,
		Department:     offer.Department,
		WorkType:       offer.WorkType,
		ExpiryDate:     offer.ExpiryDate,
		DocumentURL:    offer.DocumentURL,
		Reminder:       reminder,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", e.ErrDelivery, err)
	}
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(app.ID.String()),
		Value: value,
	})
	if err != nil {
		n.logger.Warn("Failed to deliver offer notification",
			zap.Error(err),
			zap.String("application_id", app.ID.String()),
			zap.Bool("reminder", reminder),
		)
		return fmt.Errorf("%w: %v", e.ErrDelivery, err)
	}
	return nil
}

func (n *OfferNotifier) Close() {
	if err := n.writer.Close(); err != nil {
		n.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
