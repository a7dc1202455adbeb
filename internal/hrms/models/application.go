// Package models defines the domain model of the recruitment pipeline,
// employee lifecycle and performance review workflows.
package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus is the pipeline position of an Application.
type ApplicationStatus string

const (
	StatusApplication ApplicationStatus = "Application"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusInterview   ApplicationStatus = "Interview"
	StatusSelected    ApplicationStatus = "Selected"
	StatusOffer       ApplicationStatus = "Offer"
	StatusOnboarding  ApplicationStatus = "Onboarding"
	StatusRejected    ApplicationStatus = "Rejected"
)

// ApplicationStatuses lists the statuses in canonical pipeline order.
var ApplicationStatuses = []ApplicationStatus{
	StatusApplication,
	StatusShortlisted,
	StatusInterview,
	StatusSelected,
	StatusOffer,
	StatusOnboarding,
	StatusRejected,
}

// Valid reports membership. Any valid status may follow any other.
func (s ApplicationStatus) Valid() bool {
	return slices.Contains(ApplicationStatuses, s)
}

// RoundType names an interview round.
type RoundType string

const (
	RoundNone         RoundType = "None"
	RoundAptitudeTest RoundType = "Aptitude Test"
	RoundTechnical    RoundType = "Technical Round"
	RoundInterview    RoundType = "Interview Round"
	RoundHR           RoundType = "HR Round"
)

// RoundTypes lists the round types in pipeline order.
var RoundTypes = []RoundType{RoundNone, RoundAptitudeTest, RoundTechnical, RoundInterview, RoundHR}

func (r RoundType) Valid() bool {
	return slices.Contains(RoundTypes, r)
}

// CandidateInfo is the candidate's submitted profile.
type CandidateInfo struct {
	FullName       string          `json:"fullName" validate:"required,max=200"`
	Email          string          `json:"email" validate:"required,email"`
	Phone          string          `json:"phone" validate:"required,min=6,max=20"`
	Skills         []string        `json:"skills"`
	Experience     string          `json:"experience"`
	Education      string          `json:"education"`
	AppliedDate    time.Time       `json:"appliedDate"`
	ExpectedSalary decimal.Decimal `json:"expectedSalary"`
}

// Screening is computed outside this service and stored as given.
type Screening struct {
	Result                 string  `json:"result"`
	OverallMatchPercentage float64 `json:"overallMatchPercentage" validate:"gte=0,lte=100"`
	PriorityScore          float64 `json:"priorityScore"`
}

// StatusComment is one entry of an application's audit trail.
type StatusComment struct {
	Status          ApplicationStatus `json:"status"`
	Comment         string            `json:"comment"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	ChangedBy       string            `json:"changedBy,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Application is a candidate's submission for a job.
type Application struct {
	ID              uuid.UUID            `json:"id"`
	Candidate       CandidateInfo        `json:"candidateInfo"`
	JobID           *uuid.UUID           `json:"jobId,omitempty"`
	AppliedJobRole  string               `json:"appliedJobRole,omitempty"`
	Status          ApplicationStatus    `json:"status"`
	CurrentRound    RoundType            `json:"currentRound"`
	InterviewRounds []InterviewRound     `json:"interviewRounds"`
	Screening       Screening            `json:"screening"`
	OfferLetter     *OfferLetter         `json:"offerLetter,omitempty"`
	InTalentPool    bool                 `json:"inTalentPool"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	EmployeeID      string               `json:"employeeId,omitempty"`
	Comments        []StatusComment      `json:"comments"`
	Onboarding      *OnboardingChecklist `json:"onboarding,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// JobRef returns the job id when set, falling back to the applied role.
func (a *Application) JobRef() string {
	if a.JobID != nil && *a.JobID != uuid.Nil {
		return a.JobID.String()
	}
	return a.AppliedJobRole
}

// CanReceiveOffer reports whether an offer letter may be generated.
func (a *Application) CanReceiveOffer() bool {
	return a.Status == StatusSelected || a.Status == StatusOffer
}

// CanConvert reports whether the candidate may be converted to an employee.
func (a *Application) CanConvert() bool {
	return a.Status == StatusSelected || a.Status == StatusOnboarding
}

// Round returns the interview round with the given id.
func (a *Application) Round(id uuid.UUID) (*InterviewRound, bool) {
	for i := range a.InterviewRounds {
		if a.InterviewRounds[i].ID == id {
			return &a.InterviewRounds[i], true
		}
	}
	return nil, false
}

// NewApplication is the input for creating an application.
type NewApplication struct {
	Candidate      CandidateInfo     `json:"candidateInfo" validate:"required"`
	JobID          *uuid.UUID        `json:"jobId,omitempty"`
	AppliedJobRole string            `json:"appliedJobRole,omitempty" validate:"required_without=JobID"`
	Status         ApplicationStatus `json:"status,omitempty"`
	Screening      Screening         `json:"screening"`
}

// StatusChange is the input of a status update. Optional fields are left
// untouched when nil.
type StatusChange struct {
	Status          ApplicationStatus `json:"status"`
	Comments        string            `json:"comments"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	InTalentPool    *bool             `json:"inTalentPool,omitempty"`
	CurrentRound    *RoundType        `json:"currentRound,omitempty"`
	ChangedBy       string            `json:"-"`
}

// Employee is the record created by converting a candidate.
type Employee struct {
	ID            uuid.UUID       `json:"id"`
	EmployeeCode  string          `json:"employeeCode"`
	ApplicationID uuid.UUID       `json:"applicationId"`
	FullName      string          `json:"fullName"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Department    string          `json:"department"`
	JoiningDate   string          `json:"joiningDate"`
	Salary        decimal.Decimal `json:"salary"`
	WorkType      WorkType        `json:"workType,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
