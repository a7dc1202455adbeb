package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// attachOffer installs offer on app, enforcing the offer preconditions.
func attachOffer(app *models.Application, offer *models.OfferLetter) error {
	if !app.CanReceiveOffer() {
		return e.InvalidState("offer requires %s or %s, application is %s",
			models.StatusSelected, models.StatusOffer, app.Status)
	}
	if app.OfferLetter != nil && app.OfferLetter.Status == models.OfferAccepted {
		return e.InvalidState("offer %s was already accepted", app.OfferLetter.ID)
	}
	app.OfferLetter = offer
	return nil
}

// GenerateOffer creates a Pending offer, replacing any unaccepted one.
func (s *RecruitmentService) GenerateOffer(ctx context.Context, id uuid.UUID, terms models.OfferTerms) (*models.Application, error) {
	now := s.now()
	offer, err := models.NewOffer(terms, now)
	if err != nil {
		return nil, err
	}
	app, err := s.repo.UpdateApplication(ctx, id, func(app *models.Application) error {
		if err := attachOffer(app, offer); err != nil {
			return err
		}
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrap(err, "generate offer")
	}
	s.logger.Info("Offer generated",
		zap.String("application_id", id.String()),
		zap.String("offer_id", offer.ID.String()),
	)
	s.emit(events.OfferGenerated, app, offer)
	return app, nil
}

// DuplicateOffer copies the offer of sourceID onto targetID as a fresh
// Pending offer with no link back to the source.
func (s *RecruitmentService) DuplicateOffer(ctx context.Context, sourceID, targetID uuid.UUID) (*models.Application, error) {
	source, err := s.repo.GetApplication(ctx, sourceID)
	if err != nil {
		return nil, wrap(err, "load source application")
	}
	if source.OfferLetter == nil {
		return nil, e.InvalidState("application %s has no offer to duplicate", sourceID)
	}

	now := s.now()
	offer := source.OfferLetter.Duplicate(now)
	app, err := s.repo.UpdateApplication(ctx, targetID, func(app *models.Application) error {
		if err := attachOffer(app, offer); err != nil {
			return err
		}
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrap(err, "duplicate offer")
	}
	s.emit(events.OfferGenerated, app, offer)
	return app, nil
}

// SendOffer delivers the offer and marks it Sent.
func (s *RecruitmentService) SendOffer(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.deliverOffer(ctx, id, false)
}

// SendOfferReminder re-delivers a Sent offer and counts the reminder.
func (s *RecruitmentService) SendOfferReminder(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.deliverOffer(ctx, id, true)
}

// deliverOffer notifies the candidate before committing the new offer state,
// so a failed delivery leaves the stored offer unchanged.
func (s *RecruitmentService) deliverOffer(ctx context.Context, id uuid.UUID, reminder bool) (*models.Application, error) {
	now := s.now()
	app, err := s.repo.UpdateApplication(ctx, id, func(app *models.Application) error {
		offer := app.OfferLetter
		if offer == nil {
			return e.InvalidState("application has no offer")
		}
		if reminder && offer.Status != models.OfferSent {
			return e.InvalidState("reminder requires a %s offer, offer is %s", models.OfferSent, offer.Status)
		}
		if err := offer.MarkSent(now); err != nil {
			return err
		}
		if !models.ValidEmail(app.Candidate.Email) {
			return fmt.Errorf("%w: candidate email %q is not deliverable", e.ErrDelivery, app.Candidate.Email)
		}
		if err := s.notifier.SendOffer(ctx, app, reminder); err != nil {
			if errors.Is(err, e.ErrDelivery) {
				return err
			}
			return fmt.Errorf("%w: %v", e.ErrDelivery, err)
		}
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, e.ErrDelivery) {
			s.logger.Warn("Offer delivery failed",
				zap.Error(err),
				zap.String("application_id", id.String()),
				zap.Bool("reminder", reminder),
			)
		}
		return nil, wrap(err, "send offer")
	}
	s.emit(events.OfferSent, app, map[string]any{
		"offerId":       app.OfferLetter.ID,
		"reminder":      reminder,
		"reminderCount": app.OfferLetter.ReminderCount,
	})
	return app, nil
}

// RecordOfferResponse applies the candidate's answer. Acceptance opens the
// onboarding checklist and moves the application to Onboarding.
func (s *RecruitmentService) RecordOfferResponse(ctx context.Context, id uuid.UUID, decision models.OfferStatus) (*models.Application, error) {
	now := s.now()
	app, err := s.repo.UpdateApplication(ctx, id, func(app *models.Application) error {
		if app.OfferLetter == nil {
			return e.InvalidState("application has no offer")
		}
		if err := app.OfferLetter.Respond(decision, now); err != nil {
			return err
		}
		if decision == models.OfferAccepted {
			app.Status = models.StatusOnboarding
			if app.Onboarding == nil {
				app.Onboarding = models.NewChecklist(s.opts.template)
			}
			app.Comments = append(app.Comments, models.StatusComment{
				Status:    models.StatusOnboarding,
				Comment:   "Offer accepted",
				ChangedBy: Actor(ctx),
				CreatedAt: now,
			})
		}
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrap(err, "record offer response")
	}
	s.logger.Info("Offer response recorded",
		zap.String("application_id", id.String()),
		zap.String("decision", string(decision)),
	)
	s.emit(events.OfferResponded, app, map[string]any{
		"offerId":  app.OfferLetter.ID,
		"decision": decision,
	})
	return app, nil
}

// HandleOfferResponse adapts RecordOfferResponse to the offer response
// consumer.
func (s *RecruitmentService) HandleOfferResponse(ctx context.Context, resp events.OfferResponse) error {
	_, err := s.RecordOfferResponse(ctx, resp.ApplicationID, resp.Decision)
	return err
}
