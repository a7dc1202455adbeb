package controller

import (
	"context"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/models"
	"go.uber.org/zap"
)

// StageInput is the request to append a lifecycle stage. The header fields
// are only used when the record does not exist yet.
type StageInput struct {
	EmployeeID   string            `json:"employeeId"`
	EmployeeName string            `json:"employeeName,omitempty"`
	Department   string            `json:"department,omitempty"`
	Event        models.StageEvent `json:"stageEvent"`
}

// LifecycleView carries the derived current stage and status.
type LifecycleView struct {
	*models.LifecycleRecord
	CurrentStage models.LifecycleStage   `json:"currentStage"`
	Status       models.EmploymentStatus `json:"status"`
}

func lifecycleView(rec *models.LifecycleRecord) *LifecycleView {
	return &LifecycleView{
		LifecycleRecord: rec,
		CurrentStage:    rec.CurrentStage(),
		Status:          rec.Status(),
	}
}

// LifecycleService records employee journeys as append-only stage events.
type LifecycleService struct {
	repo     LifecycleRepository
	producer EventProducer
	logger   *zap.Logger
	now      func() time.Time
}

func NewLifecycleService(repo LifecycleRepository, producer EventProducer, logger *zap.Logger, opts ...Option) *LifecycleService {
	o := buildOptions(opts)
	return &LifecycleService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("lifecycle_service"),
		now:      o.now,
	}
}

// AppendStage validates the stage-specific fields and appends the event.
// Earlier stages are never read back for writing.
func (s *LifecycleService) AppendStage(ctx context.Context, in StageInput) (*LifecycleView, error) {
	if in.EmployeeID == "" {
		return nil, e.Invalid("employeeId", "is required")
	}
	ev := in.Event
	if ev.RecordedBy == "" {
		ev.RecordedBy = Actor(ctx)
	}
	rec := &models.LifecycleRecord{
		EmployeeID:   in.EmployeeID,
		EmployeeName: in.EmployeeName,
		Department:   in.Department,
	}
	added, err := rec.Append(ev, s.now().UTC())
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.AppendLifecycleStage(ctx, rec)
	if err != nil {
		return nil, wrap(err, "append lifecycle stage")
	}
	view := lifecycleView(stored)
	s.logger.Info("Lifecycle stage appended",
		zap.String("employee_id", in.EmployeeID),
		zap.String("stage", string(added.Stage)),
		zap.String("status", string(view.Status)),
	)
	go func() {
		s.producer.Produce(events.LifecycleStageAppended, in.EmployeeID, added)
	}()
	return view, nil
}

func (s *LifecycleService) GetLifecycle(ctx context.Context, employeeID string) (*LifecycleView, error) {
	rec, err := s.repo.GetLifecycle(ctx, employeeID)
	if err != nil {
		return nil, wrap(err, "get lifecycle")
	}
	return lifecycleView(rec), nil
}

func (s *LifecycleService) ListLifecycles(ctx context.Context) ([]*LifecycleView, error) {
	recs, err := s.repo.ListLifecycles(ctx)
	if err != nil {
		return nil, wrap(err, "list lifecycles")
	}
	views := make([]*LifecycleView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, lifecycleView(rec))
	}
	return views, nil
}
