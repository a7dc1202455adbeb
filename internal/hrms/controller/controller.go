// Package controller implements the core business logic (service layer)
// of the recruitment pipeline, employee lifecycle and performance review
// workflows, orchestrating repository operations and sending relevant events.
package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
)

type EventProducer interface {
	Produce(eventType events.EventType, aggregateID string, payload any)
}

// ApplicationRepository defines the storage interface for applications.
// Every method taking a callback runs it inside a single transaction
// against the current stored state.
type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplications(ctx context.Context) ([]*models.Application, error)
	UpdateApplication(ctx context.Context, id uuid.UUID,
		fn func(app *models.Application) error) (*models.Application, error)
	AppendInterviewRound(ctx context.Context, id uuid.UUID,
		build func(app *models.Application) (*models.InterviewRound, error)) (*models.Application, error)
	UpdateInterviewRound(ctx context.Context, id, roundID uuid.UUID,
		fn func(app *models.Application, round *models.InterviewRound) error) (*models.Application, error)
	ConvertApplication(ctx context.Context, id uuid.UUID,
		fn func(app *models.Application) (*models.Employee, *models.LifecycleRecord, error),
	) (*models.Application, *models.Employee, error)
}

// LifecycleRepository stores append-only lifecycle records.
type LifecycleRepository interface {
	AppendLifecycleStage(ctx context.Context, rec *models.LifecycleRecord) (*models.LifecycleRecord, error)
	GetLifecycle(ctx context.Context, employeeID string) (*models.LifecycleRecord, error)
	ListLifecycles(ctx context.Context) ([]*models.LifecycleRecord, error)
}

// ReviewRepository stores performance reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.PerformanceReview) error
	GetReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error)
	ListReviews(ctx context.Context, filter models.ReviewFilter) ([]*models.PerformanceReview, error)
	UpdateReview(ctx context.Context, id uuid.UUID,
		fn func(review *models.PerformanceReview) error) (*models.PerformanceReview, error)
}

// OfferNotifier delivers an offer to the candidate. Failures must wrap
// errors.ErrDelivery.
type OfferNotifier interface {
	SendOffer(ctx context.Context, app *models.Application, reminder bool) error
}

// EmployeeIDIssuer hands out employee codes on conversion.
type EmployeeIDIssuer interface {
	IssueEmployeeID(ctx context.Context, app *models.Application) (string, error)
}

// ReviewAuthorizer decides whether the caller in ctx may write the manager
// review of review.
type ReviewAuthorizer interface {
	AuthorizeManagerReview(ctx context.Context, review *models.PerformanceReview) error
}

// UUIDIssuer derives employee codes from random UUIDs.
type UUIDIssuer struct{}

func (UUIDIssuer) IssueEmployeeID(context.Context, *models.Application) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("EMP-%s", strings.ToUpper(id[:8])), nil
}

type options struct {
	now      func() time.Time
	issuer   EmployeeIDIssuer
	template []models.DocumentRequirement
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEmployeeIDIssuer replaces the UUID based issuer.
func WithEmployeeIDIssuer(issuer EmployeeIDIssuer) Option {
	return func(o *options) { o.issuer = issuer }
}

// WithChecklistTemplate replaces the default onboarding documents.
func WithChecklistTemplate(template []models.DocumentRequirement) Option {
	return func(o *options) {
		if len(template) > 0 {
			o.template = template
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		issuer:   UUIDIssuer{},
		template: models.DefaultChecklist,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type actorKey struct{}

// WithActor stores the id of the authenticated caller, used for audit fields.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the caller stored by WithActor.
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
