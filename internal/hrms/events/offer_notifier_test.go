package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func offerApplication() *models.Application {
	return &models.Application{
		ID:        uuid.New(),
		Candidate: models.CandidateInfo{FullName: "Asha Rao", Email: "asha@example.com"},
		Status:    models.StatusOffer,
		OfferLetter: &models.OfferLetter{
			ID:          uuid.New(),
			Status:      models.OfferPending,
			Salary:      decimal.NewFromInt(1200000),
			JoiningDate: "2026-04-01",
			Department:  "Engineering",
			WorkType:    models.WorkFromOffice,
		},
	}
}

func TestOfferNotifier_SendOffer(t *testing.T) {
	t.Run("writes notification keyed by application", func(t *testing.T) {
		writer := &chanWriter{msgs: make(chan kafka.Message, 1)}
		notifier := newOfferNotifier(writer, zaptest.NewLogger(t))
		app := offerApplication()

		require.NoError(t, notifier.SendOffer(context.Background(), app, true))

		msg := <-writer.msgs
		assert.Equal(t, app.ID.String(), string(msg.Key))
		var got OfferNotification
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, app.OfferLetter.ID, got.OfferID)
		assert.Equal(t, "asha@example.com", got.CandidateEmail)
		assert.True(t, got.Reminder)
		assert.True(t, app.OfferLetter.Salary.Equal(got.Salary))
	})

	t.Run("write failure is a delivery error", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		notifier := newOfferNotifier(mockWriter, zaptest.NewLogger(t))

		err := notifier.SendOffer(context.Background(), offerApplication(), false)
		assert.ErrorIs(t, err, e.ErrDelivery)
	})

	t.Run("missing offer is a delivery error", func(t *testing.T) {
		notifier := newOfferNotifier(new(MockKafkaWriter), zaptest.NewLogger(t))
		app := offerApplication()
		app.OfferLetter = nil

		err := notifier.SendOffer(context.Background(), app, false)
		assert.ErrorIs(t, err, e.ErrDelivery)
	})
}
