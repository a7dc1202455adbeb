// Package models contains the persisted row shapes of the workflow
// aggregates, configured to work using GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Application is the root row of an application aggregate. Child rows are
// stored in their own tables and loaded with Preload.
type Application struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FullName               string          `gorm:"size:200;not null"`
	Email                  string          `gorm:"size:320;index"`
	Phone                  string          `gorm:"size:20"`
	Skills                 []string        `gorm:"serializer:json"`
	Experience             string          `gorm:"size:500"`
	Education              string          `gorm:"size:500"`
	AppliedDate            time.Time
	ExpectedSalary         decimal.Decimal `gorm:"type:numeric(14,2)"`
	JobID                  *uuid.UUID      `gorm:"type:uuid;index"`
	AppliedJobRole         string          `gorm:"size:200"`
	Status                 string          `gorm:"size:32;index;not null"`
	CurrentRound           string          `gorm:"size:32"`
	ScreeningResult        string          `gorm:"size:64"`
	OverallMatchPercentage float64
	PriorityScore          float64
	InTalentPool           bool            `gorm:"index"`
	RejectionReason        string          `gorm:"size:1000"`
	EmployeeID             *string         `gorm:"size:64;uniqueIndex"`
	CreatedAt              time.Time
	UpdatedAt              time.Time

	InterviewRounds []InterviewRound     `gorm:"foreignKey:ApplicationID"`
	Offer           *OfferLetter         `gorm:"foreignKey:ApplicationID"`
	Comments        []StatusComment      `gorm:"foreignKey:ApplicationID"`
	Documents       []OnboardingDocument `gorm:"foreignKey:ApplicationID"`
}

func (Application) TableName() string { return "applications" }

// InterviewRound rows are insert-ordered by Seq. SlotKey is non-null only
// while the round holds its evaluator slot, and is unique.
type InterviewRound struct {
	Seq           uint64    `gorm:"primaryKey;autoIncrement"`
	ID            uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ApplicationID uuid.UUID `gorm:"type:uuid;index;not null"`
	RoundType     string    `gorm:"size:32;not null"`
	ScheduledDate string    `gorm:"size:10;not null"`
	ScheduledTime string    `gorm:"size:5;not null"`
	EvaluatorID   string    `gorm:"size:64;index;not null"`
	Mode          string    `gorm:"size:16"`
	MeetingLink   string    `gorm:"size:500"`
	Venue         string    `gorm:"size:500"`
	Status        string    `gorm:"size:32;not null"`
	Feedback      string    `gorm:"size:3000"`
	Rating        *int
	SlotKey       *string `gorm:"size:200;uniqueIndex"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (InterviewRound) TableName() string { return "interview_rounds" }

// OfferLetter is keyed by its application; regenerating replaces the row.
type OfferLetter struct {
	ApplicationID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ID              uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Status          string          `gorm:"size:16;index;not null"`
	Salary          decimal.Decimal `gorm:"type:numeric(14,2)"`
	JoiningDate     string          `gorm:"size:10"`
	Department      string          `gorm:"size:100"`
	WorkType        string          `gorm:"size:16"`
	ProbationPeriod string          `gorm:"size:50"`
	NoticePeriod    string          `gorm:"size:50"`
	ExpiryDate      string          `gorm:"size:10;index"`
	DocumentURL     string          `gorm:"size:500"`
	SentAt          *time.Time
	RespondedAt     *time.Time
	ReminderCount   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (OfferLetter) TableName() string { return "offer_letters" }

// StatusComment rows are never updated.
type StatusComment struct {
	Seq             uint64    `gorm:"primaryKey;autoIncrement"`
	ApplicationID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Status          string    `gorm:"size:32;not null"`
	Comment         string    `gorm:"size:3000"`
	RejectionReason string    `gorm:"size:1000"`
	ChangedBy       string    `gorm:"size:64"`
	CreatedAt       time.Time
}

func (StatusComment) TableName() string { return "application_status_comments" }

// OnboardingDocument is one checklist item.
type OnboardingDocument struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_onboarding_app_type"`
	DocType       string    `gorm:"size:64;not null;uniqueIndex:idx_onboarding_app_type"`
	Position      int
	Label         string `gorm:"size:200"`
	Required      bool
	Status        string `gorm:"size:16;not null"`
	DocumentURL   string `gorm:"size:500"`
	Remarks       string `gorm:"size:1000"`
	VerifiedBy    string `gorm:"size:64"`
	UploadedAt    *time.Time
	VerifiedAt    *time.Time
}

func (OnboardingDocument) TableName() string { return "onboarding_documents" }

// Employee is created once per converted application.
type Employee struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeCode  string          `gorm:"size:64;uniqueIndex;not null"`
	ApplicationID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	FullName      string          `gorm:"size:200"`
	Email         string          `gorm:"size:320"`
	Phone         string          `gorm:"size:20"`
	Department    string          `gorm:"size:100"`
	JoiningDate   string          `gorm:"size:10"`
	Salary        decimal.Decimal `gorm:"type:numeric(14,2)"`
	WorkType      string          `gorm:"size:16"`
	CreatedAt     time.Time
}

func (Employee) TableName() string { return "employees" }
