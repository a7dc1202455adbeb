package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecruitmentService runs the application workflow: status changes,
// interviews, offers, onboarding and conversion to an employee.
type RecruitmentService struct {
	repo     ApplicationRepository
	producer EventProducer
	notifier OfferNotifier
	logger   *zap.Logger
	opts     options
}

// NewRecruitmentService constructs a RecruitmentService.
func NewRecruitmentService(repo ApplicationRepository, producer EventProducer, notifier OfferNotifier,
	logger *zap.Logger, opts ...Option,
) *RecruitmentService {
	return &RecruitmentService{
		repo:     repo,
		producer: producer,
		notifier: notifier,
		logger:   logger.Named("recruitment_service"),
		opts:     buildOptions(opts),
	}
}

func (s *RecruitmentService) now() time.Time {
	return s.opts.now().UTC()
}

func (s *RecruitmentService) emit(eventType events.EventType, app *models.Application, payload any) {
	go func() {
		s.producer.Produce(eventType, app.ID.String(), payload)
	}()
}

// wrap keeps sentinel errors matchable while adding the failing step.
func wrap(err error, step string) error {
	for _, sentinel := range []error{
		e.ErrNotFound, e.ErrInvalidInput, e.ErrConflict, e.ErrInvalidState,
		e.ErrShapeMismatch, e.ErrDelivery, e.ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", step, err)
}

// CreateApplication validates the candidate and stores a new application.
func (s *RecruitmentService) CreateApplication(ctx context.Context, in models.NewApplication) (*models.Application, error) {
	ve := e.NewValidationError()
	ve.Merge("", models.Validate(in))
	if in.Status != "" && !in.Status.Valid() {
		ve.Add("status", "is not a known application status")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	now := s.now()
	status := in.Status
	if status == "" {
		status = models.StatusApplication
	}
	candidate := in.Candidate
	if candidate.AppliedDate.IsZero() {
		candidate.AppliedDate = now
	}
	app := &models.Application{
		ID:              uuid.New(),
		Candidate:       candidate,
		JobID:           in.JobID,
		AppliedJobRole:  in.AppliedJobRole,
		Status:          status,
		CurrentRound:    models.RoundNone,
		InterviewRounds: []models.InterviewRound{},
		Screening:       in.Screening,
		Comments: []models.StatusComment{{
			Status:    status,
			Comment:   "Application received",
			ChangedBy: Actor(ctx),
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, wrap(err, "create application")
	}
	s.logger.Info("Application created",
		zap.String("application_id", app.ID.String()),
		zap.String("status", string(app.Status)),
	)
	s.emit(events.ApplicationCreated, app, app)
	return app, nil
}

// GetApplication retrieves an application by ID.
func (s *RecruitmentService) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, wrap(err, "get application")
	}
	return app, nil
}

// ListApplications returns the stored applications matching filter.
func (s *RecruitmentService) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	stored, err := s.repo.ListApplications(ctx)
	if err != nil {
		return nil, wrap(err, "list applications")
	}
	apps := make([]models.Application, 0, len(stored))
	for _, a := range stored {
		apps = append(apps, *a)
	}
	return models.FilterApplications(apps, filter), nil
}

// ExportApplications writes the applications matching filter as CSV.
func (s *RecruitmentService) ExportApplications(ctx context.Context, w io.Writer, filter models.ApplicationFilter) error {
	apps, err := s.ListApplications(ctx, filter)
	if err != nil {
		return err
	}
	return models.ExportCSV(w, apps)
}

// ExpiringOffers lists applications whose unanswered offer expires within
// the next three days.
func (s *RecruitmentService) ExpiringOffers(ctx context.Context) ([]models.Application, error) {
	apps, err := s.ListApplications(ctx, models.ApplicationFilter{})
	if err != nil {
		return nil, err
	}
	return models.ExpiringOffers(apps, s.now()), nil
}

// SetStatus overwrites the status of an application and records an audit
// comment. Any known status may follow any other; rounds and offer are left
// untouched.
func (s *RecruitmentService) SetStatus(ctx context.Context, id uuid.UUID, change models.StatusChange) (*models.Application, error) {
	ve := e.NewValidationError()
	if !change.Status.Valid() {
		ve.Add("status", "is not a known application status")
	}
	if change.Status == models.StatusRejected && change.RejectionReason == "" {
		ve.Add("rejectionReason", "is required when rejecting")
	}
	if change.CurrentRound != nil && !change.CurrentRound.Valid() {
		ve.Add("currentRound", "is not a known round")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	now := s.now()
	changedBy := change.ChangedBy
	if changedBy == "" {
		changedBy = Actor(ctx)
	}
	var previous models.ApplicationStatus
	app, err := s.repo.UpdateApplication(ctx, id, func(app *models.Application) error {
		previous = app.Status
		app.Status = change.Status
		app.RejectionReason = ""
		if change.Status == models.StatusRejected {
			app.RejectionReason = change.RejectionReason
		}
		if change.InTalentPool != nil {
			app.InTalentPool = *change.InTalentPool
		}
		if change.CurrentRound != nil {
			app.CurrentRound = *change.CurrentRound
		}
		app.Comments = append(app.Comments, models.StatusComment{
			Status:          change.Status,
			Comment:         change.Comments,
			RejectionReason: change.RejectionReason,
			ChangedBy:       changedBy,
			CreatedAt:       now,
		})
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrap(err, "set application status")
	}

	s.logger.Info("Application status changed",
		zap.String("application_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(change.Status)),
	)
	s.emit(events.ApplicationStatusChanged, app, map[string]any{
		"from":            previous,
		"to":              change.Status,
		"comments":        change.Comments,
		"rejectionReason": change.RejectionReason,
	})
	return app, nil
}

// SetCurrentRound moves the application to another interview round.
func (s *RecruitmentService) SetCurrentRound(ctx context.Context, id uuid.UUID, round models.RoundType) (*models.Application, error) {
	if !round.Valid() {
		return nil, e.Invalid("currentRound", "is not a known round")
	}
	now := s.now()
	app, err := s.repo.UpdateApplication(ctx, id, func(app *models.Application) error {
		app.CurrentRound = round
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrap(err, "set current round")
	}
	return app, nil
}

// ScheduleInterview appends a Scheduled round. The evaluator slot check and
// the insert are a single write.
func (s *RecruitmentService) ScheduleInterview(ctx context.Context, id uuid.UUID, req models.ScheduleRequest) (*models.Application, error) {
	now := s.now()
	var round *models.InterviewRound
	app, err := s.repo.AppendInterviewRound(ctx, id, func(app *models.Application) (*models.InterviewRound, error) {
		r, err := models.NewRound(app.ID, req, now)
		if err != nil {
			return nil, err
		}
		app.CurrentRound = r.RoundType
		app.UpdatedAt = now
		round = r
		return r, nil
	})
	if err != nil {
		if errors.Is(err, e.ErrConflict) {
			s.logger.Info("Interview slot taken",
				zap.String("application_id", id.String()),
				zap.String("evaluator_id", req.EvaluatorID),
				zap.String("slot", models.SlotKey(req.EvaluatorID, req.ScheduledDate, req.ScheduledTime)),
			)
		}
		return nil, wrap(err, "schedule interview")
	}
	s.emit(events.InterviewScheduled, app, round)
	return app, nil
}

// UpdateInterview applies patch to one round, re-checking the evaluator
// slot against every other round.
func (s *RecruitmentService) UpdateInterview(ctx context.Context, id, roundID uuid.UUID, patch models.RoundPatch) (*models.Application, error) {
	now := s.now()
	var round models.InterviewRound
	app, err := s.repo.UpdateInterviewRound(ctx, id, roundID, func(app *models.Application, r *models.InterviewRound) error {
		if err := patch.Apply(r, now); err != nil {
			return err
		}
		app.UpdatedAt = now
		round = *r
		return nil
	})
	if err != nil {
		return nil, wrap(err, "update interview")
	}
	s.emit(events.InterviewUpdated, app, round)
	return app, nil
}

// CompleteInterview records the outcome of a round. The application status
// is left for HR to decide.
func (s *RecruitmentService) CompleteInterview(ctx context.Context, id, roundID uuid.UUID, outcome models.InterviewOutcome) (*models.Application, error) {
	now := s.now()
	var round models.InterviewRound
	app, err := s.repo.UpdateInterviewRound(ctx, id, roundID, func(app *models.Application, r *models.InterviewRound) error {
		if err := outcome.Complete(r, now); err != nil {
			return err
		}
		app.UpdatedAt = now
		round = *r
		return nil
	})
	if err != nil {
		return nil, wrap(err, "complete interview")
	}
	s.logger.Info("Interview completed",
		zap.String("application_id", id.String()),
		zap.String("round_id", roundID.String()),
		zap.String("outcome", string(outcome.Status)),
	)
	s.emit(events.InterviewCompleted, app, round)
	return app, nil
}

// ConvertToEmployee issues an employee code and creates the employee and
// the opening Joining stage. An application converts at most once.
func (s *RecruitmentService) ConvertToEmployee(ctx context.Context, id uuid.UUID) (*models.Application, *models.Employee, error) {
	now := s.now()
	app, emp, err := s.repo.ConvertApplication(ctx, id, func(app *models.Application) (*models.Employee, *models.LifecycleRecord, error) {
		if !app.CanConvert() {
			return nil, nil, e.InvalidState("conversion requires %s or %s, application is %s",
				models.StatusSelected, models.StatusOnboarding, app.Status)
		}
		if app.EmployeeID != "" {
			return nil, nil, e.InvalidState("application already converted to employee %s", app.EmployeeID)
		}
		code, err := s.opts.issuer.IssueEmployeeID(ctx, app)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to issue employee id: %w", err)
		}

		emp := &models.Employee{
			ID:            uuid.New(),
			EmployeeCode:  code,
			ApplicationID: app.ID,
			FullName:      app.Candidate.FullName,
			Email:         app.Candidate.Email,
			Phone:         app.Candidate.Phone,
			CreatedAt:     now,
		}
		joining := models.StageEvent{Stage: models.StageJoining, RecordedBy: Actor(ctx), Remarks: "Converted from application"}
		if o := app.OfferLetter; o != nil && o.Status == models.OfferAccepted {
			emp.Department = o.Department
			emp.JoiningDate = o.JoiningDate
			emp.Salary = o.Salary
			emp.WorkType = o.WorkType
			joining.EffectiveDate = o.JoiningDate
		}
		rec := &models.LifecycleRecord{
			EmployeeID:   code,
			EmployeeName: emp.FullName,
			Department:   emp.Department,
		}
		if _, err := rec.Append(joining, now); err != nil {
			return nil, nil, err
		}

		app.EmployeeID = code
		app.UpdatedAt = now
		return emp, rec, nil
	})
	if err != nil {
		return nil, nil, wrap(err, "convert to employee")
	}

	s.logger.Info("Candidate converted to employee",
		zap.String("application_id", id.String()),
		zap.String("employee_id", emp.EmployeeCode),
	)
	s.emit(events.EmployeeConverted, app, emp)
	return app, emp, nil
}
