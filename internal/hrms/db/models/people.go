package models

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleRecord is the header of an employee's journey.
type LifecycleRecord struct {
	EmployeeID   string `gorm:"size:64;primaryKey"`
	EmployeeName string `gorm:"size:200"`
	Department   string `gorm:"size:100"`
	CreatedAt    time.Time

	Stages []LifecycleStage `gorm:"foreignKey:EmployeeID;references:EmployeeID"`
}

func (LifecycleRecord) TableName() string { return "lifecycle_records" }

// LifecycleStage rows are insert-only and ordered by Seq.
type LifecycleStage struct {
	Seq           uint64    `gorm:"primaryKey;autoIncrement"`
	ID            uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	EmployeeID    string    `gorm:"size:64;index;not null"`
	Stage         string    `gorm:"size:32;not null"`
	EffectiveDate string    `gorm:"size:10"`
	Remarks       string    `gorm:"size:3000"`
	Reason        string    `gorm:"size:1000"`
	NewRole       string    `gorm:"size:200"`
	OldDepartment string    `gorm:"size:100"`
	NewDepartment string    `gorm:"size:100"`
	ExitDate      string    `gorm:"size:10"`
	ExitType      string    `gorm:"size:32"`
	RecordedBy    string    `gorm:"size:64"`
	CreatedAt     time.Time
}

func (LifecycleStage) TableName() string { return "lifecycle_stages" }

// PerformanceReview flattens the optional self assessment and manager
// review into nullable columns.
type PerformanceReview struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID           string    `gorm:"size:64;index;not null"`
	ManagerID            string    `gorm:"size:64;index;not null"`
	ReviewCycle          string    `gorm:"size:16;not null"`
	Period               string    `gorm:"size:64"`
	StartDate            string    `gorm:"size:10"`
	EndDate              string    `gorm:"size:10"`
	Rating               int
	Status               string `gorm:"size:32;index;not null"`
	SelfComments         string `gorm:"size:3000"`
	SelfSubmittedAt      *time.Time
	ManagerOverallRating *int
	ManagerFeedback      string `gorm:"size:3000"`
	ImprovementPlan      string `gorm:"size:3000"`
	ReviewedBy           string `gorm:"size:64"`
	ManagerReviewedAt    *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	KPIs []ReviewKPI `gorm:"foreignKey:ReviewID"`
}

func (PerformanceReview) TableName() string { return "performance_reviews" }

// ReviewKPI keeps the KPI order of its review through Seq.
type ReviewKPI struct {
	Seq           uint64    `gorm:"primaryKey;autoIncrement"`
	ID            uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ReviewID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Title         string    `gorm:"size:200;not null"`
	Description   string    `gorm:"size:1000"`
	Weightage     float64
	TargetValue   string `gorm:"size:200"`
	AchievedValue string `gorm:"size:200"`
	Status        string `gorm:"size:32"`
	Rating        float64
}

func (ReviewKPI) TableName() string { return "review_kpis" }

// All lists every row type for migration.
func All() []any {
	return []any{
		&Application{},
		&InterviewRound{},
		&OfferLetter{},
		&StatusComment{},
		&OnboardingDocument{},
		&Employee{},
		&LifecycleRecord{},
		&LifecycleStage{},
		&PerformanceReview{},
		&ReviewKPI{},
	}
}
