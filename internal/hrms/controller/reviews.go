package controller

import (
	"context"
	"time"

	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService runs the KPI based performance review workflow.
type ReviewService struct {
	repo       ReviewRepository
	producer   EventProducer
	authorizer ReviewAuthorizer
	logger     *zap.Logger
	now        func() time.Time
}

func NewReviewService(repo ReviewRepository, producer EventProducer, authorizer ReviewAuthorizer,
	logger *zap.Logger, opts ...Option,
) *ReviewService {
	o := buildOptions(opts)
	return &ReviewService{
		repo:       repo,
		producer:   producer,
		authorizer: authorizer,
		logger:     logger.Named("review_service"),
		now:        o.now,
	}
}

func (s *ReviewService) emit(eventType events.EventType, review *models.PerformanceReview) {
	go func() {
		s.producer.Produce(eventType, review.ID.String(), review)
	}()
}

// CreateReview validates the review and stores it as Draft. Nothing is
// stored when any field fails.
func (s *ReviewService) CreateReview(ctx context.Context, in models.NewReview) (*models.PerformanceReview, error) {
	review, err := in.Build(s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, wrap(err, "create review")
	}
	s.logger.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("employee_id", review.EmployeeID),
	)
	s.emit(events.ReviewCreated, review)
	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error) {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return nil, wrap(err, "get review")
	}
	return review, nil
}

func (s *ReviewService) ListReviews(ctx context.Context, filter models.ReviewFilter) ([]*models.PerformanceReview, error) {
	reviews, err := s.repo.ListReviews(ctx, filter)
	if err != nil {
		return nil, wrap(err, "list reviews")
	}
	return reviews, nil
}

func (s *ReviewService) update(ctx context.Context, id uuid.UUID, step string,
	fn func(review *models.PerformanceReview, now time.Time) error,
) (*models.PerformanceReview, error) {
	now := s.now().UTC()
	review, err := s.repo.UpdateReview(ctx, id, func(r *models.PerformanceReview) error {
		return fn(r, now)
	})
	if err != nil {
		return nil, wrap(err, step)
	}
	s.emit(events.ReviewUpdated, review)
	return review, nil
}

// UpdateKPIs replaces the KPI set of a Draft review.
func (s *ReviewService) UpdateKPIs(ctx context.Context, id uuid.UUID, kpis []models.KPI) (*models.PerformanceReview, error) {
	return s.update(ctx, id, "update KPIs", func(r *models.PerformanceReview, now time.Time) error {
		return r.ReplaceKPIs(kpis, now)
	})
}

// SubmitSelfAssessment records the employee's assessment.
func (s *ReviewService) SubmitSelfAssessment(ctx context.Context, id uuid.UUID, comments string,
	values []models.AchievedValue,
) (*models.PerformanceReview, error) {
	return s.update(ctx, id, "submit self assessment", func(r *models.PerformanceReview, now time.Time) error {
		return r.SubmitSelfAssessment(comments, values, now)
	})
}

func (s *ReviewService) StartManagerReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error) {
	return s.update(ctx, id, "start manager review", func(r *models.PerformanceReview, now time.Time) error {
		return r.StartManagerReview(now)
	})
}

func (s *ReviewService) LockReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error) {
	return s.update(ctx, id, "lock review", func(r *models.PerformanceReview, now time.Time) error {
		return r.Lock(now)
	})
}

// SubmitManagerReview stores the single manager review. The authorizer is
// consulted against the stored review, and the write only lands when no
// manager review exists yet.
func (s *ReviewService) SubmitManagerReview(ctx context.Context, id uuid.UUID, in models.ManagerReviewInput) (*models.PerformanceReview, error) {
	now := s.now().UTC()
	review, err := s.repo.UpdateReview(ctx, id, func(r *models.PerformanceReview) error {
		if err := s.authorizer.AuthorizeManagerReview(ctx, r); err != nil {
			return err
		}
		reviewer := Actor(ctx)
		if reviewer == "" {
			reviewer = r.ManagerID
		}
		return r.ApplyManagerReview(in, reviewer, now)
	})
	if err != nil {
		return nil, wrap(err, "submit manager review")
	}
	s.logger.Info("Manager review submitted",
		zap.String("review_id", id.String()),
		zap.String("reviewed_by", review.ManagerReview.ReviewedBy),
	)
	s.emit(events.ReviewManagerReviewed, review)
	return review, nil
}
