package controller

import (
	"context"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChecklistView is a checklist with its derived progress.
type ChecklistView struct {
	ApplicationID uuid.UUID              `json:"applicationId"`
	Items         []models.ChecklistItem `json:"items"`
	Verified      int                    `json:"verified"`
	Required      int                    `json:"required"`
	Complete      bool                   `json:"complete"`
}

func checklistView(app *models.Application) *ChecklistView {
	verified, total := app.Onboarding.Progress()
	return &ChecklistView{
		ApplicationID: app.ID,
		Items:         app.Onboarding.Items,
		Verified:      verified,
		Required:      total,
		Complete:      app.Onboarding.Complete(),
	}
}

// GetChecklist returns the onboarding checklist of an application.
func (s *RecruitmentService) GetChecklist(ctx context.Context, id uuid.UUID) (*ChecklistView, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Onboarding == nil {
		return nil, e.InvalidState("application %s has no onboarding checklist", id)
	}
	return checklistView(app), nil
}

// UploadDocument attaches a document URL to a checklist item.
func (s *RecruitmentService) UploadDocument(ctx context.Context, id uuid.UUID, docType, url string) (*ChecklistView, error) {
	return s.updateChecklist(ctx, id, func(list *models.OnboardingChecklist, now time.Time) error {
		return list.Upload(docType, url, now)
	})
}

// VerifyDocument approves or rejects an uploaded document.
func (s *RecruitmentService) VerifyDocument(ctx context.Context, id uuid.UUID, docType string, approved bool, remarks string) (*ChecklistView, error) {
	verifier := Actor(ctx)
	return s.updateChecklist(ctx, id, func(list *models.OnboardingChecklist, now time.Time) error {
		return list.Verify(docType, approved, remarks, verifier, now)
	})
}

func (s *RecruitmentService) updateChecklist(ctx context.Context, id uuid.UUID,
	fn func(list *models.OnboardingChecklist, now time.Time) error,
) (*ChecklistView, error) {
	now := s.now()
	var wasComplete bool
	app, err := s.repo.UpdateApplication(ctx, id, func(app *models.Application) error {
		if app.Onboarding == nil {
			return e.InvalidState("application %s has no onboarding checklist", app.ID)
		}
		wasComplete = app.Onboarding.Complete()
		if err := fn(app.Onboarding, now); err != nil {
			return err
		}
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrap(err, "update onboarding checklist")
	}

	view := checklistView(app)
	if view.Complete && !wasComplete {
		s.logger.Info("Onboarding completed", zap.String("application_id", id.String()))
		s.emit(events.OnboardingCompleted, app, view)
	}
	return view, nil
}
