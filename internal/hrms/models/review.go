package models

import (
	"fmt"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReviewCycle is the cadence of a review.
type ReviewCycle string

const (
	CycleQuarterly  ReviewCycle = "Quarterly"
	CycleHalfYearly ReviewCycle = "Half-Yearly"
	CycleYearly     ReviewCycle = "Yearly"
)

// ReviewStatus is the position of a review in its workflow.
type ReviewStatus string

const (
	ReviewDraft          ReviewStatus = "Draft"
	ReviewSelfAssessment ReviewStatus = "Self Assessment"
	ReviewManagerReview  ReviewStatus = "Manager Review"
	ReviewCompleted      ReviewStatus = "Completed"
	ReviewLocked         ReviewStatus = "Locked"
)

var reviewTransitions = map[ReviewStatus][]ReviewStatus{
	ReviewDraft:          {ReviewSelfAssessment},
	ReviewSelfAssessment: {ReviewManagerReview, ReviewCompleted},
	ReviewManagerReview:  {ReviewCompleted},
	ReviewCompleted:      {ReviewLocked},
}

// CanTransition reports whether a review may move from s to next.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	for _, allowed := range reviewTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// KPIStatus is the progress label of a KPI.
type KPIStatus string

const (
	KPIAchieved     KPIStatus = "Achieved"
	KPIInProgress   KPIStatus = "In Progress"
	KPIBehindTarget KPIStatus = "Behind Target"
)

func (s KPIStatus) Valid() bool {
	return s == KPIAchieved || s == KPIInProgress || s == KPIBehindTarget
}

// WeightageTolerance is the allowed drift of the KPI weightage total from 100.
var WeightageTolerance = decimal.NewFromFloat(0.01)

var fullWeightage = decimal.NewFromInt(100)

// KPI is a weighted criterion of a review.
type KPI struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description" validate:"required"`
	Weightage     float64   `json:"weightage" validate:"gte=0,lte=100"`
	TargetValue   string    `json:"targetValue,omitempty"`
	AchievedValue string    `json:"achievedValue,omitempty"`
	Status        KPIStatus `json:"status,omitempty"`
	Rating        float64   `json:"rating" validate:"gte=0,lte=5"`
}

// ManagerReview is written once by the assigned manager.
type ManagerReview struct {
	OverallRating   int       `json:"overallRating"`
	Feedback        string    `json:"feedback"`
	ImprovementPlan string    `json:"improvementPlan,omitempty"`
	ReviewedBy      string    `json:"reviewedBy"`
	ReviewedAt      time.Time `json:"reviewedAt"`
}

// SelfAssessment is the employee's own submission.
type SelfAssessment struct {
	Comments    string    `json:"comments"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// PerformanceReview is a KPI-based review of one employee for one period.
type PerformanceReview struct {
	ID             uuid.UUID       `json:"id"`
	EmployeeID     string          `json:"employeeId"`
	ManagerID      string          `json:"managerId"`
	ReviewCycle    ReviewCycle     `json:"reviewCycle"`
	Period         string          `json:"period"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Rating         int             `json:"rating"`
	Status         ReviewStatus    `json:"status"`
	KPIs           []KPI           `json:"kpis"`
	SelfAssessment *SelfAssessment `json:"selfAssessment,omitempty"`
	ManagerReview  *ManagerReview  `json:"managerReview,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ReviewFilter narrows a review listing. Empty fields match everything.
type ReviewFilter struct {
	EmployeeID string
	ManagerID  string
	Status     ReviewStatus
}

// NewReview is the input of creating a review.
type NewReview struct {
	EmployeeID  string      `json:"employeeId" validate:"required"`
	ManagerID   string      `json:"managerId" validate:"required"`
	ReviewCycle ReviewCycle `json:"reviewCycle" validate:"required,oneof=Quarterly Half-Yearly Yearly"`
	Period      string      `json:"period" validate:"required"`
	StartDate   string      `json:"startDate" validate:"required,isodate"`
	EndDate     string      `json:"endDate" validate:"required,isodate"`
	Rating      int         `json:"rating" validate:"gte=1,lte=5"`
	KPIs        []KPI       `json:"kpis"`
}

// ValidateKPIs checks every KPI and the weightage total.
func ValidateKPIs(kpis []KPI) error {
	ve := e.NewValidationError()
	if len(kpis) == 0 {
		ve.Add("kpis", "at least one KPI is required")
		return ve
	}
	total := decimal.Zero
	for i, k := range kpis {
		ve.Merge(fmt.Sprintf("kpis[%d]", i), Validate(k))
		if k.Status != "" && !k.Status.Valid() {
			ve.Add(fmt.Sprintf("kpis[%d].status", i), "must be one of: Achieved, In Progress, Behind Target")
		}
		// Summed as decimals so 33.33 * 3 is exactly 99.99.
		total = total.Add(decimal.NewFromFloat(k.Weightage))
	}
	if total.Sub(fullWeightage).Abs().GreaterThan(WeightageTolerance) {
		ve.Addf("kpis", "weightage must total 100, got %s", total.String())
	}
	return ve.OrNil()
}

// Build validates the input and returns a Draft review.
func (n NewReview) Build(now time.Time) (*PerformanceReview, error) {
	ve := e.NewValidationError()
	ve.Merge("", Validate(n))
	start, err1 := ParseDate(n.StartDate)
	end, err2 := ParseDate(n.EndDate)
	if err1 == nil && err2 == nil && !start.Before(end) {
		ve.Add("endDate", "must be after startDate")
	}
	ve.Merge("", ValidateKPIs(n.KPIs))
	if ve.HasErrors() {
		return nil, ve
	}

	kpis := make([]KPI, len(n.KPIs))
	for i, k := range n.KPIs {
		k.ID = uuid.New()
		if k.Status == "" {
			k.Status = KPIInProgress
		}
		kpis[i] = k
	}
	return &PerformanceReview{
		ID:          uuid.New(),
		EmployeeID:  n.EmployeeID,
		ManagerID:   n.ManagerID,
		ReviewCycle: n.ReviewCycle,
		Period:      n.Period,
		StartDate:   n.StartDate,
		EndDate:     n.EndDate,
		Rating:      n.Rating,
		Status:      ReviewDraft,
		KPIs:        kpis,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ReplaceKPIs swaps the KPI set of a Draft review.
func (r *PerformanceReview) ReplaceKPIs(kpis []KPI, now time.Time) error {
	if r.Status != ReviewDraft {
		return e.InvalidState("KPIs can only be edited in %s, review is %s", ReviewDraft, r.Status)
	}
	if err := ValidateKPIs(kpis); err != nil {
		return err
	}
	next := make([]KPI, len(kpis))
	for i, k := range kpis {
		if k.ID == uuid.Nil {
			k.ID = uuid.New()
		}
		if k.Status == "" {
			k.Status = KPIInProgress
		}
		next[i] = k
	}
	r.KPIs = next
	r.UpdatedAt = now
	return nil
}

func (r *PerformanceReview) transition(next ReviewStatus, now time.Time) error {
	if !r.Status.CanTransition(next) {
		return e.InvalidState("review cannot move from %s to %s", r.Status, next)
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// AchievedValue is an employee-reported KPI result.
type AchievedValue struct {
	KPIID uuid.UUID `json:"kpiId"`
	Value string    `json:"value"`
}

// SubmitSelfAssessment moves a Draft review to Self Assessment.
func (r *PerformanceReview) SubmitSelfAssessment(comments string, values []AchievedValue, now time.Time) error {
	if r.Status != ReviewDraft {
		return e.InvalidState("self assessment requires %s, review is %s", ReviewDraft, r.Status)
	}
	index := r.kpiIndex()
	targets := make([]int, len(values))
	for n, v := range values {
		i, ok := index[v.KPIID]
		if !ok {
			return fmt.Errorf("%w: unknown KPI %s", e.ErrShapeMismatch, v.KPIID)
		}
		targets[n] = i
	}
	for n, v := range values {
		r.KPIs[targets[n]].AchievedValue = v.Value
	}
	r.SelfAssessment = &SelfAssessment{Comments: comments, SubmittedAt: now}
	return r.transition(ReviewSelfAssessment, now)
}

// StartManagerReview hands a self-assessed review to the manager.
func (r *PerformanceReview) StartManagerReview(now time.Time) error {
	return r.transition(ReviewManagerReview, now)
}

// Lock freezes a completed review.
func (r *PerformanceReview) Lock(now time.Time) error {
	return r.transition(ReviewLocked, now)
}

// KPIRating is a manager's rating of one KPI. KPIID may be omitted, in
// which case ratings are matched to KPIs by position.
type KPIRating struct {
	KPIID  uuid.UUID `json:"kpiId,omitempty"`
	Rating float64   `json:"rating"`
	Status KPIStatus `json:"status,omitempty"`
}

// ManagerReviewInput is the manager's submission.
type ManagerReviewInput struct {
	OverallRating   int         `json:"overallRating" validate:"gte=1,lte=5"`
	Feedback        string      `json:"feedback" validate:"required"`
	ImprovementPlan string      `json:"improvementPlan,omitempty"`
	KPIRatings      []KPIRating `json:"kpiRatings"`
}

// ApplyManagerReview records the single manager review and the KPI ratings
// and completes the review.
func (r *PerformanceReview) ApplyManagerReview(in ManagerReviewInput, reviewer string, now time.Time) error {
	if r.ManagerReview != nil {
		return e.InvalidState("manager review already submitted")
	}
	if r.Status != ReviewSelfAssessment && r.Status != ReviewManagerReview {
		return e.InvalidState("manager review requires %s or %s, review is %s",
			ReviewSelfAssessment, ReviewManagerReview, r.Status)
	}

	ve := e.NewValidationError()
	ve.Merge("", Validate(in))
	for i, kr := range in.KPIRatings {
		if kr.Rating < 0 || kr.Rating > 5 {
			ve.Add(fmt.Sprintf("kpiRatings[%d].rating", i), "must be between 0 and 5")
		}
		if kr.Status != "" && !kr.Status.Valid() {
			ve.Add(fmt.Sprintf("kpiRatings[%d].status", i), "must be one of: Achieved, In Progress, Behind Target")
		}
	}
	if ve.HasErrors() {
		return ve
	}

	targets, err := r.resolveRatings(in.KPIRatings)
	if err != nil {
		return err
	}
	for i, kr := range in.KPIRatings {
		k := &r.KPIs[targets[i]]
		k.Rating = kr.Rating
		if kr.Status != "" {
			k.Status = kr.Status
		}
	}
	r.ManagerReview = &ManagerReview{
		OverallRating:   in.OverallRating,
		Feedback:        in.Feedback,
		ImprovementPlan: in.ImprovementPlan,
		ReviewedBy:      reviewer,
		ReviewedAt:      now,
	}
	r.Status = ReviewCompleted
	r.UpdatedAt = now
	return nil
}

// resolveRatings maps each rating to a KPI index. Ratings carrying ids are
// matched by id; ratings without ids must line up one-to-one with the KPIs.
func (r *PerformanceReview) resolveRatings(ratings []KPIRating) ([]int, error) {
	keyed := 0
	for _, kr := range ratings {
		if kr.KPIID != uuid.Nil {
			keyed++
		}
	}

	targets := make([]int, len(ratings))
	switch keyed {
	case 0:
		if len(ratings) != len(r.KPIs) {
			return nil, fmt.Errorf("%w: got %d ratings for %d KPIs", e.ErrShapeMismatch, len(ratings), len(r.KPIs))
		}
		for i := range ratings {
			targets[i] = i
		}
	case len(ratings):
		index := r.kpiIndex()
		seen := make(map[uuid.UUID]bool, len(ratings))
		for i, kr := range ratings {
			pos, ok := index[kr.KPIID]
			if !ok {
				return nil, fmt.Errorf("%w: unknown KPI %s", e.ErrShapeMismatch, kr.KPIID)
			}
			if seen[kr.KPIID] {
				return nil, e.Invalid(fmt.Sprintf("kpiRatings[%d].kpiId", i), "is duplicated")
			}
			seen[kr.KPIID] = true
			targets[i] = pos
		}
	default:
		return nil, fmt.Errorf("%w: ratings must either all carry kpiId or none", e.ErrShapeMismatch)
	}
	return targets, nil
}

func (r *PerformanceReview) kpiIndex() map[uuid.UUID]int {
	index := make(map[uuid.UUID]int, len(r.KPIs))
	for i, k := range r.KPIs {
		index[k.ID] = i
	}
	return index
}
