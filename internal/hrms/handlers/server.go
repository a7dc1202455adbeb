// Package handlers provides gRPC and HTTP server implementations for
// serving the WorkflowService, bridging the transport layer and the
// recruitment, lifecycle and review services.
package handlers

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/hrms/internal/hrms/auth"
	"github.com/gartstein/hrms/internal/hrms/controller"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// RecruitmentController is the recruitment and onboarding logic the
// handlers invoke.
type RecruitmentController interface {
	CreateApplication(ctx context.Context, in models.NewApplication) (*models.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	ExportApplications(ctx context.Context, w io.Writer, filter models.ApplicationFilter) error
	ExpiringOffers(ctx context.Context) ([]models.Application, error)
	SetStatus(ctx context.Context, id uuid.UUID, change models.StatusChange) (*models.Application, error)
	SetCurrentRound(ctx context.Context, id uuid.UUID, round models.RoundType) (*models.Application, error)
	ScheduleInterview(ctx context.Context, id uuid.UUID, req models.ScheduleRequest) (*models.Application, error)
	UpdateInterview(ctx context.Context, id, roundID uuid.UUID, patch models.RoundPatch) (*models.Application, error)
	CompleteInterview(ctx context.Context, id, roundID uuid.UUID, outcome models.InterviewOutcome) (*models.Application, error)
	GenerateOffer(ctx context.Context, id uuid.UUID, terms models.OfferTerms) (*models.Application, error)
	DuplicateOffer(ctx context.Context, sourceID, targetID uuid.UUID) (*models.Application, error)
	SendOffer(ctx context.Context, id uuid.UUID) (*models.Application, error)
	SendOfferReminder(ctx context.Context, id uuid.UUID) (*models.Application, error)
	RecordOfferResponse(ctx context.Context, id uuid.UUID, decision models.OfferStatus) (*models.Application, error)
	ConvertToEmployee(ctx context.Context, id uuid.UUID) (*models.Application, *models.Employee, error)
	GetChecklist(ctx context.Context, id uuid.UUID) (*controller.ChecklistView, error)
	UploadDocument(ctx context.Context, id uuid.UUID, docType, url string) (*controller.ChecklistView, error)
	VerifyDocument(ctx context.Context, id uuid.UUID, docType string, approved bool, remarks string) (*controller.ChecklistView, error)
}

// LifecycleController records employee lifecycle stages.
type LifecycleController interface {
	AppendStage(ctx context.Context, in controller.StageInput) (*controller.LifecycleView, error)
	GetLifecycle(ctx context.Context, employeeID string) (*controller.LifecycleView, error)
	ListLifecycles(ctx context.Context) ([]*controller.LifecycleView, error)
}

// ReviewController drives performance reviews.
type ReviewController interface {
	CreateReview(ctx context.Context, in models.NewReview) (*models.PerformanceReview, error)
	GetReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error)
	ListReviews(ctx context.Context, filter models.ReviewFilter) ([]*models.PerformanceReview, error)
	UpdateKPIs(ctx context.Context, id uuid.UUID, kpis []models.KPI) (*models.PerformanceReview, error)
	SubmitSelfAssessment(ctx context.Context, id uuid.UUID, comments string, values []models.AchievedValue) (*models.PerformanceReview, error)
	StartManagerReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error)
	SubmitManagerReview(ctx context.Context, id uuid.UUID, in models.ManagerReviewInput) (*models.PerformanceReview, error)
	LockReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error)
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	gatewayConn  *grpc.ClientConn
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	return &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
}

// RegisterGRPCHandler registers the WorkflowService implementation.
func (s *Server) RegisterGRPCHandler(h *WorkflowHandler) {
	s.grpcServer.RegisterService(&WorkflowServiceDesc, h)
}

// RegisterHTTPGateway sets up the HTTP reverse proxy to the local gRPC
// endpoint. The auth middleware runs innermost; extra middleware wraps it
// in the order given.
func (s *Server) RegisterHTTPGateway(dialOpts []grpc.DialOption, jwtSecret string,
	middleware ...func(http.Handler) http.Handler,
) error {
	conn, err := grpc.NewClient("localhost"+s.grpcEndpoint, dialOpts...)
	if err != nil {
		return fmt.Errorf("dial gRPC endpoint: %w", err)
	}
	gw, err := NewGateway(conn, s.logger)
	if err != nil {
		_ = conn.Close()
		return err
	}

	handler := auth.HTTPMiddleware(gw, jwtSecret)
	for _, mw := range middleware {
		handler = mw(handler)
	}

	s.gatewayConn = conn
	s.httpServer.Handler = handler
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if s.gatewayConn != nil {
		if err := s.gatewayConn.Close(); err != nil {
			s.logger.Warn("Gateway connection close error", zap.Error(err))
		}
	}
	s.grpcServer.GracefulStop()

	s.logger.Info("Servers stopped")
}
