package models

import (
	"slices"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/google/uuid"
)

// LifecycleStage is one kind of employment-journey event.
type LifecycleStage string

const (
	StageJoining      LifecycleStage = "Joining"
	StageConfirmation LifecycleStage = "Confirmation"
	StageTransfer     LifecycleStage = "Transfer"
	StagePromotion    LifecycleStage = "Promotion"
	StageResignation  LifecycleStage = "Resignation"
	StageExit         LifecycleStage = "Exit"
)

var lifecycleStages = []LifecycleStage{
	StageJoining, StageConfirmation, StageTransfer, StagePromotion, StageResignation, StageExit,
}

func (s LifecycleStage) Valid() bool {
	return slices.Contains(lifecycleStages, s)
}

// ExitType qualifies an Exit stage.
type ExitType string

const (
	ExitResignation ExitType = "Resignation"
	ExitTermination ExitType = "Termination"
	ExitRetirement  ExitType = "Retirement"
	ExitOther       ExitType = "Other"
)

func (t ExitType) Valid() bool {
	switch t {
	case ExitResignation, ExitTermination, ExitRetirement, ExitOther:
		return true
	}
	return false
}

// EmploymentStatus is the display label derived from the latest stage.
type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "Active"
	EmploymentOnNotice   EmploymentStatus = "On Notice Period"
	EmploymentResigned   EmploymentStatus = "Resigned"
	EmploymentTerminated EmploymentStatus = "Terminated"
	EmploymentRetired    EmploymentStatus = "Retired"
	EmploymentInactive   EmploymentStatus = "Inactive"
)

// StageEvent is one appended lifecycle entry. Which optional fields are
// required depends on Stage.
type StageEvent struct {
	ID            uuid.UUID      `json:"id"`
	Stage         LifecycleStage `json:"stage"`
	EffectiveDate string         `json:"effectiveDate,omitempty" validate:"omitempty,isodate"`
	Remarks       string         `json:"remarks,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	NewRole       string         `json:"newRole,omitempty"`
	OldDepartment string         `json:"oldDepartment,omitempty"`
	NewDepartment string         `json:"newDepartment,omitempty"`
	ExitDate      string         `json:"exitDate,omitempty" validate:"omitempty,isodate"`
	ExitType      ExitType       `json:"exitType,omitempty"`
	RecordedBy    string         `json:"recordedBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Validate checks the stage-specific required fields.
func (s StageEvent) Validate() error {
	ve := e.NewValidationError()
	ve.Merge("", Validate(s))
	switch s.Stage {
	case StageJoining, StageConfirmation:
	case StageResignation:
		if s.Reason == "" {
			ve.Add("reason", "is required")
		}
	case StageExit:
		if s.Reason == "" {
			ve.Add("reason", "is required")
		}
		if s.ExitDate == "" {
			ve.Add("exitDate", "is required")
		}
		if !s.ExitType.Valid() {
			ve.Add("exitType", "must be one of: Resignation, Termination, Retirement, Other")
		}
	case StagePromotion:
		if s.NewRole == "" {
			ve.Add("newRole", "is required")
		}
	case StageTransfer:
		if s.OldDepartment == "" {
			ve.Add("oldDepartment", "is required")
		}
		if s.NewDepartment == "" {
			ve.Add("newDepartment", "is required")
		}
		if s.OldDepartment != "" && s.OldDepartment == s.NewDepartment {
			ve.Add("newDepartment", "must differ from oldDepartment")
		}
	default:
		ve.Add("stage", "is not a known lifecycle stage")
	}
	return ve.OrNil()
}

// Status maps a stage event to the employment status it leaves behind.
func (s StageEvent) Status() EmploymentStatus {
	switch s.Stage {
	case StageExit:
		switch s.ExitType {
		case ExitTermination:
			return EmploymentTerminated
		case ExitRetirement:
			return EmploymentRetired
		case ExitResignation:
			return EmploymentResigned
		default:
			return EmploymentInactive
		}
	case StageResignation:
		return EmploymentOnNotice
	default:
		return EmploymentActive
	}
}

// LifecycleRecord is an employee's append-only journey.
type LifecycleRecord struct {
	EmployeeID   string       `json:"employeeId"`
	EmployeeName string       `json:"employeeName,omitempty"`
	Department   string       `json:"department,omitempty"`
	Stages       []StageEvent `json:"stages"`
}

// CurrentStage is the stage of the latest event.
func (l *LifecycleRecord) CurrentStage() LifecycleStage {
	if len(l.Stages) == 0 {
		return ""
	}
	return l.Stages[len(l.Stages)-1].Stage
}

// Status is derived from the latest event; a record without events is Inactive.
func (l *LifecycleRecord) Status() EmploymentStatus {
	if len(l.Stages) == 0 {
		return EmploymentInactive
	}
	return l.Stages[len(l.Stages)-1].Status()
}

// Append validates ev and adds it to the end of the record.
func (l *LifecycleRecord) Append(ev StageEvent, now time.Time) (*StageEvent, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	ev.ID = uuid.New()
	ev.CreatedAt = now
	if ev.EffectiveDate == "" {
		ev.EffectiveDate = now.UTC().Format(DateLayout)
	}
	l.Stages = append(l.Stages, ev)
	return &l.Stages[len(l.Stages)-1], nil
}
