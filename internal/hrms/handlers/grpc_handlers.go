package handlers

import (
	"bytes"
	"context"

	"github.com/gartstein/hrms/internal/hrms/controller"
	"github.com/gartstein/hrms/internal/hrms/models"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// WorkflowServer is the server API of hrms.v1.WorkflowService.
type WorkflowServer interface {
	CreateApplication(context.Context, *models.NewApplication) (*models.Application, error)
	GetApplication(context.Context, *IDRequest) (*models.Application, error)
	ListApplications(context.Context, *ApplicationFilterRequest) (*ApplicationList, error)
	ExportApplications(context.Context, *ApplicationFilterRequest) (*httpbody.HttpBody, error)
	ExpiringOffers(context.Context, *Empty) (*ApplicationList, error)
	SetStatus(context.Context, *SetStatusRequest) (*models.Application, error)
	SetCurrentRound(context.Context, *SetCurrentRoundRequest) (*models.Application, error)
	ScheduleInterview(context.Context, *ScheduleInterviewRequest) (*models.Application, error)
	UpdateInterview(context.Context, *UpdateInterviewRequest) (*models.Application, error)
	CompleteInterview(context.Context, *CompleteInterviewRequest) (*models.Application, error)
	GenerateOffer(context.Context, *GenerateOfferRequest) (*models.Application, error)
	SendOffer(context.Context, *IDRequest) (*models.Application, error)
	SendOfferReminder(context.Context, *IDRequest) (*models.Application, error)
	DuplicateOffer(context.Context, *DuplicateOfferRequest) (*models.Application, error)
	RecordOfferResponse(context.Context, *OfferResponseRequest) (*models.Application, error)
	ConvertToEmployee(context.Context, *IDRequest) (*ConvertResponse, error)
	GetChecklist(context.Context, *IDRequest) (*controller.ChecklistView, error)
	UploadDocument(context.Context, *DocumentRequest) (*controller.ChecklistView, error)
	VerifyDocument(context.Context, *DocumentRequest) (*controller.ChecklistView, error)
	AppendStage(context.Context, *controller.StageInput) (*controller.LifecycleView, error)
	GetLifecycle(context.Context, *EmployeeRequest) (*controller.LifecycleView, error)
	ListLifecycles(context.Context, *Empty) (*LifecycleList, error)
	CreateReview(context.Context, *models.NewReview) (*models.PerformanceReview, error)
	GetReview(context.Context, *IDRequest) (*models.PerformanceReview, error)
	ListReviews(context.Context, *ReviewFilterRequest) (*ReviewList, error)
	UpdateKPIs(context.Context, *UpdateKPIsRequest) (*models.PerformanceReview, error)
	SubmitSelfAssessment(context.Context, *SelfAssessmentRequest) (*models.PerformanceReview, error)
	StartManagerReview(context.Context, *IDRequest) (*models.PerformanceReview, error)
	SubmitManagerReview(context.Context, *ManagerReviewRequest) (*models.PerformanceReview, error)
	LockReview(context.Context, *IDRequest) (*models.PerformanceReview, error)
}

// WorkflowHandler provides the gRPC methods of the workflow service,
// mapping requests to the recruitment, lifecycle and review controllers.
type WorkflowHandler struct {
	recruitment RecruitmentController
	lifecycle   LifecycleController
	reviews     ReviewController
	logger      *zap.Logger
}

var _ WorkflowServer = (*WorkflowHandler)(nil)

// NewWorkflowHandler constructs a WorkflowHandler.
func NewWorkflowHandler(recruitment RecruitmentController, lifecycle LifecycleController, reviews ReviewController,
	logger *zap.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		recruitment: recruitment,
		lifecycle:   lifecycle,
		reviews:     reviews,
		logger:      logger.Named("grpc_handler"),
	}
}

// CreateApplication stores a new candidate application.
func (h *WorkflowHandler) CreateApplication(ctx context.Context, req *models.NewApplication) (*models.Application, error) {
	app, err := h.recruitment.CreateApplication(ctx, *req)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) GetApplication(ctx context.Context, req *IDRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.GetApplication(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) ListApplications(ctx context.Context, req *ApplicationFilterRequest) (*ApplicationList, error) {
	filter, err := applicationFilter(req)
	if err != nil {
		return nil, err
	}
	apps, err := h.recruitment.ListApplications(ctx, filter)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ApplicationList{Applications: apps}, nil
}

// ExportApplications renders the filtered applications as a CSV body.
func (h *WorkflowHandler) ExportApplications(ctx context.Context, req *ApplicationFilterRequest) (*httpbody.HttpBody, error) {
	filter, err := applicationFilter(req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := h.recruitment.ExportApplications(ctx, &buf, filter); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &httpbody.HttpBody{ContentType: "text/csv", Data: buf.Bytes()}, nil
}

func (h *WorkflowHandler) ExpiringOffers(ctx context.Context, _ *Empty) (*ApplicationList, error) {
	apps, err := h.recruitment.ExpiringOffers(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ApplicationList{Applications: apps}, nil
}

// SetStatus overwrites the application status and records the comment.
func (h *WorkflowHandler) SetStatus(ctx context.Context, req *SetStatusRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.SetStatus(ctx, id, req.StatusChange)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) SetCurrentRound(ctx context.Context, req *SetCurrentRoundRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.SetCurrentRound(ctx, id, req.CurrentRound)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

// ScheduleInterview books an evaluator slot for a new round.
func (h *WorkflowHandler) ScheduleInterview(ctx context.Context, req *ScheduleInterviewRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.ScheduleInterview(ctx, id, req.ScheduleRequest)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) UpdateInterview(ctx context.Context, req *UpdateInterviewRequest) (*models.Application, error) {
	id, roundID, err := parseRoundIDs(req.ID, req.RoundID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.UpdateInterview(ctx, id, roundID, req.RoundPatch)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) CompleteInterview(ctx context.Context, req *CompleteInterviewRequest) (*models.Application, error) {
	id, roundID, err := parseRoundIDs(req.ID, req.RoundID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.CompleteInterview(ctx, id, roundID, req.InterviewOutcome)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

// GenerateOffer attaches a Pending offer letter.
func (h *WorkflowHandler) GenerateOffer(ctx context.Context, req *GenerateOfferRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.GenerateOffer(ctx, id, req.OfferTerms)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) SendOffer(ctx context.Context, req *IDRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.SendOffer(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) SendOfferReminder(ctx context.Context, req *IDRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.SendOfferReminder(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) DuplicateOffer(ctx context.Context, req *DuplicateOfferRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	source, err := parseID("sourceApplicationId", req.SourceApplicationID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.DuplicateOffer(ctx, source, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

func (h *WorkflowHandler) RecordOfferResponse(ctx context.Context, req *OfferResponseRequest) (*models.Application, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, err := h.recruitment.RecordOfferResponse(ctx, id, req.Decision)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return app, nil
}

// ConvertToEmployee creates the employee record of a hired candidate.
func (h *WorkflowHandler) ConvertToEmployee(ctx context.Context, req *IDRequest) (*ConvertResponse, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	app, emp, err := h.recruitment.ConvertToEmployee(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ConvertResponse{Application: app, Employee: emp}, nil
}

func (h *WorkflowHandler) GetChecklist(ctx context.Context, req *IDRequest) (*controller.ChecklistView, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	view, err := h.recruitment.GetChecklist(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return view, nil
}

func (h *WorkflowHandler) UploadDocument(ctx context.Context, req *DocumentRequest) (*controller.ChecklistView, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	view, err := h.recruitment.UploadDocument(ctx, id, req.DocumentType, req.DocumentURL)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return view, nil
}

func (h *WorkflowHandler) VerifyDocument(ctx context.Context, req *DocumentRequest) (*controller.ChecklistView, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	view, err := h.recruitment.VerifyDocument(ctx, id, req.DocumentType, req.Approved, req.Remarks)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return view, nil
}

// AppendStage records a lifecycle event for an employee.
func (h *WorkflowHandler) AppendStage(ctx context.Context, req *controller.StageInput) (*controller.LifecycleView, error) {
	view, err := h.lifecycle.AppendStage(ctx, *req)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return view, nil
}

func (h *WorkflowHandler) GetLifecycle(ctx context.Context, req *EmployeeRequest) (*controller.LifecycleView, error) {
	if req.EmployeeID == "" {
		return nil, status.Error(codes.InvalidArgument, "employeeId is required")
	}
	view, err := h.lifecycle.GetLifecycle(ctx, req.EmployeeID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return view, nil
}

func (h *WorkflowHandler) ListLifecycles(ctx context.Context, _ *Empty) (*LifecycleList, error) {
	views, err := h.lifecycle.ListLifecycles(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &LifecycleList{Records: views}, nil
}

// CreateReview opens a Draft performance review.
func (h *WorkflowHandler) CreateReview(ctx context.Context, req *models.NewReview) (*models.PerformanceReview, error) {
	review, err := h.reviews.CreateReview(ctx, *req)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}

func (h *WorkflowHandler) GetReview(ctx context.Context, req *IDRequest) (*models.PerformanceReview, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	review, err := h.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}

func (h *WorkflowHandler) ListReviews(ctx context.Context, req *ReviewFilterRequest) (*ReviewList, error) {
	reviews, err := h.reviews.ListReviews(ctx, models.ReviewFilter{
		EmployeeID: req.EmployeeID,
		ManagerID:  req.ManagerID,
		Status:     models.ReviewStatus(req.Status),
	})
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ReviewList{Reviews: reviews}, nil
}

func (h *WorkflowHandler) UpdateKPIs(ctx context.Context, req *UpdateKPIsRequest) (*models.PerformanceReview, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	review, err := h.reviews.UpdateKPIs(ctx, id, req.KPIs)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}

func (h *WorkflowHandler) SubmitSelfAssessment(ctx context.Context, req *SelfAssessmentRequest) (*models.PerformanceReview, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	review, err := h.reviews.SubmitSelfAssessment(ctx, id, req.Comments, req.AchievedValues)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}

func (h *WorkflowHandler) StartManagerReview(ctx context.Context, req *IDRequest) (*models.PerformanceReview, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	review, err := h.reviews.StartManagerReview(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}

// SubmitManagerReview writes the single manager review of a review.
func (h *WorkflowHandler) SubmitManagerReview(ctx context.Context, req *ManagerReviewRequest) (*models.PerformanceReview, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	review, err := h.reviews.SubmitManagerReview(ctx, id, req.ManagerReviewInput)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}

func (h *WorkflowHandler) LockReview(ctx context.Context, req *IDRequest) (*models.PerformanceReview, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	review, err := h.reviews.LockReview(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return review, nil
}
