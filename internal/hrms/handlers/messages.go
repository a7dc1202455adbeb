package handlers

import (
	"github.com/gartstein/hrms/internal/hrms/controller"
	"github.com/gartstein/hrms/internal/hrms/models"
)

// Request and response messages of hrms.v1.WorkflowService. They travel as
// JSON on both the gRPC and the HTTP surface.

type Empty struct{}

type IDRequest struct {
	ID string `json:"id"`
}

type ApplicationFilterRequest struct {
	Status       []string `json:"status,omitempty"`
	CurrentRound string   `json:"currentRound,omitempty"`
	JobID        string   `json:"jobId,omitempty"`
	InTalentPool *bool    `json:"inTalentPool,omitempty"`
	Search       string   `json:"search,omitempty"`
}

type ApplicationList struct {
	Applications []models.Application `json:"applications"`
}

type SetStatusRequest struct {
	ID string `json:"id"`
	models.StatusChange
}

type SetCurrentRoundRequest struct {
	ID           string           `json:"id"`
	CurrentRound models.RoundType `json:"currentRound"`
}

type ScheduleInterviewRequest struct {
	ID string `json:"id"`
	models.ScheduleRequest
}

type UpdateInterviewRequest struct {
	ID      string `json:"id"`
	RoundID string `json:"roundId"`
	models.RoundPatch
}

type CompleteInterviewRequest struct {
	ID      string `json:"id"`
	RoundID string `json:"roundId"`
	models.InterviewOutcome
}

type GenerateOfferRequest struct {
	ID string `json:"id"`
	models.OfferTerms
}

type DuplicateOfferRequest struct {
	ID                  string `json:"id"`
	SourceApplicationID string `json:"sourceApplicationId"`
}

type OfferResponseRequest struct {
	ID       string             `json:"id"`
	Decision models.OfferStatus `json:"decision"`
}

type ConvertResponse struct {
	Application *models.Application `json:"application"`
	Employee    *models.Employee    `json:"employee"`
}

type DocumentRequest struct {
	ID           string `json:"id"`
	DocumentType string `json:"documentType"`
	DocumentURL  string `json:"documentUrl,omitempty"`
	Approved     bool   `json:"approved,omitempty"`
	Remarks      string `json:"remarks,omitempty"`
}

type EmployeeRequest struct {
	EmployeeID string `json:"employeeId"`
}

type LifecycleList struct {
	Records []*controller.LifecycleView `json:"records"`
}

type ReviewFilterRequest struct {
	EmployeeID string `json:"employeeId,omitempty"`
	ManagerID  string `json:"managerId,omitempty"`
	Status     string `json:"status,omitempty"`
}

type ReviewList struct {
	Reviews []*models.PerformanceReview `json:"reviews"`
}

type UpdateKPIsRequest struct {
	ID   string       `json:"id"`
	KPIs []models.KPI `json:"kpis"`
}

type SelfAssessmentRequest struct {
	ID             string                 `json:"id"`
	Comments       string                 `json:"comments"`
	AchievedValues []models.AchievedValue `json:"achievedValues,omitempty"`
}

type ManagerReviewRequest struct {
	ID string `json:"id"`
	models.ManagerReviewInput
}
