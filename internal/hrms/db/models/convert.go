package models

import (
	"time"

	domain "github.com/gartstein/hrms/internal/hrms/models"
	"github.com/gartstein/hrms/internal/pkg/utils"
)

// FromApplication maps the root fields of an application. Children are
// mapped separately so that each can be written with its own strategy.
func FromApplication(a *domain.Application) *Application {
	row := &Application{
		ID:                     a.ID,
		FullName:               a.Candidate.FullName,
		Email:                  a.Candidate.Email,
		Phone:                  a.Candidate.Phone,
		Skills:                 a.Candidate.Skills,
		Experience:             a.Candidate.Experience,
		Education:              a.Candidate.Education,
		AppliedDate:            a.Candidate.AppliedDate,
		ExpectedSalary:         a.Candidate.ExpectedSalary,
		JobID:                  a.JobID,
		AppliedJobRole:         a.AppliedJobRole,
		Status:                 string(a.Status),
		CurrentRound:           string(a.CurrentRound),
		ScreeningResult:        a.Screening.Result,
		OverallMatchPercentage: a.Screening.OverallMatchPercentage,
		PriorityScore:          a.Screening.PriorityScore,
		InTalentPool:           a.InTalentPool,
		RejectionReason:        a.RejectionReason,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
	if a.EmployeeID != "" {
		row.EmployeeID = utils.Ptr(a.EmployeeID)
	}
	return row
}

// ToDomain rebuilds the aggregate from the root row and its preloaded children.
func (a *Application) ToDomain() *domain.Application {
	app := &domain.Application{
		ID: a.ID,
		Candidate: domain.CandidateInfo{
			FullName:       a.FullName,
			Email:          a.Email,
			Phone:          a.Phone,
			Skills:         a.Skills,
			Experience:     a.Experience,
			Education:      a.Education,
			AppliedDate:    a.AppliedDate,
			ExpectedSalary: a.ExpectedSalary,
		},
		JobID:          a.JobID,
		AppliedJobRole: a.AppliedJobRole,
		Status:         domain.ApplicationStatus(a.Status),
		CurrentRound:   domain.RoundType(a.CurrentRound),
		Screening: domain.Screening{
			Result:                 a.ScreeningResult,
			OverallMatchPercentage: a.OverallMatchPercentage,
			PriorityScore:          a.PriorityScore,
		},
		InTalentPool:    a.InTalentPool,
		RejectionReason: a.RejectionReason,
		EmployeeID:      utils.Deref(a.EmployeeID),
		InterviewRounds: make([]domain.InterviewRound, 0, len(a.InterviewRounds)),
		Comments:        make([]domain.StatusComment, 0, len(a.Comments)),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	for i := range a.InterviewRounds {
		app.InterviewRounds = append(app.InterviewRounds, a.InterviewRounds[i].ToDomain())
	}
	for _, c := range a.Comments {
		app.Comments = append(app.Comments, domain.StatusComment{
			Status:          domain.ApplicationStatus(c.Status),
			Comment:         c.Comment,
			RejectionReason: c.RejectionReason,
			ChangedBy:       c.ChangedBy,
			CreatedAt:       c.CreatedAt,
		})
	}
	if a.Offer != nil {
		app.OfferLetter = a.Offer.ToDomain()
	}
	if len(a.Documents) > 0 {
		list := &domain.OnboardingChecklist{Items: make([]domain.ChecklistItem, 0, len(a.Documents))}
		for _, d := range a.Documents {
			list.Items = append(list.Items, domain.ChecklistItem{
				ID:          d.ID,
				Type:        d.DocType,
				Label:       d.Label,
				Required:    d.Required,
				Status:      domain.DocumentStatus(d.Status),
				DocumentURL: d.DocumentURL,
				Remarks:     d.Remarks,
				VerifiedBy:  d.VerifiedBy,
				UploadedAt:  d.UploadedAt,
				VerifiedAt:  d.VerifiedAt,
			})
		}
		app.Onboarding = list
	}
	return app
}

// FromInterviewRound maps a round; the slot key is set only while the
// round holds its slot.
func FromInterviewRound(r *domain.InterviewRound) *InterviewRound {
	row := &InterviewRound{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		RoundType:     string(r.RoundType),
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		EvaluatorID:   r.EvaluatorID,
		Mode:          string(r.Mode),
		MeetingLink:   r.MeetingLink,
		Venue:         r.Venue,
		Status:        string(r.Status),
		Feedback:      r.Feedback,
		Rating:        r.Rating,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if key := r.SlotKey(); key != "" {
		row.SlotKey = utils.Ptr(key)
	}
	return row
}

func (r *InterviewRound) ToDomain() domain.InterviewRound {
	return domain.InterviewRound{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		RoundType:     domain.RoundType(r.RoundType),
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		EvaluatorID:   r.EvaluatorID,
		Mode:          domain.InterviewMode(r.Mode),
		MeetingLink:   r.MeetingLink,
		Venue:         r.Venue,
		Status:        domain.InterviewStatus(r.Status),
		Feedback:      r.Feedback,
		Rating:        r.Rating,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func FromOffer(o *domain.OfferLetter, a *domain.Application, now time.Time) *OfferLetter {
	return &OfferLetter{
		ApplicationID:   a.ID,
		ID:              o.ID,
		Status:          string(o.Status),
		Salary:          o.Salary,
		JoiningDate:     o.JoiningDate,
		Department:      o.Department,
		WorkType:        string(o.WorkType),
		ProbationPeriod: o.ProbationPeriod,
		NoticePeriod:    o.NoticePeriod,
		ExpiryDate:      o.ExpiryDate,
		DocumentURL:     o.DocumentURL,
		SentAt:          o.SentAt,
		RespondedAt:     o.RespondedAt,
		ReminderCount:   o.ReminderCount,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       now,
	}
}

func (o *OfferLetter) ToDomain() *domain.OfferLetter {
	return &domain.OfferLetter{
		ID:              o.ID,
		Status:          domain.OfferStatus(o.Status),
		Salary:          o.Salary,
		JoiningDate:     o.JoiningDate,
		Department:      o.Department,
		WorkType:        domain.WorkType(o.WorkType),
		ProbationPeriod: o.ProbationPeriod,
		NoticePeriod:    o.NoticePeriod,
		ExpiryDate:      o.ExpiryDate,
		DocumentURL:     o.DocumentURL,
		SentAt:          o.SentAt,
		RespondedAt:     o.RespondedAt,
		ReminderCount:   o.ReminderCount,
		CreatedAt:       o.CreatedAt,
	}
}

func FromStatusComment(a *domain.Application, c domain.StatusComment) *StatusComment {
	return &StatusComment{
		ApplicationID:   a.ID,
		Status:          string(c.Status),
		Comment:         c.Comment,
		RejectionReason: c.RejectionReason,
		ChangedBy:       c.ChangedBy,
		CreatedAt:       c.CreatedAt,
	}
}

// FromChecklist maps checklist items, keeping their order in Position.
func FromChecklist(a *domain.Application) []OnboardingDocument {
	if a.Onboarding == nil {
		return nil
	}
	docs := make([]OnboardingDocument, 0, len(a.Onboarding.Items))
	for i, it := range a.Onboarding.Items {
		docs = append(docs, OnboardingDocument{
			ID:            it.ID,
			ApplicationID: a.ID,
			DocType:       it.Type,
			Position:      i,
			Label:         it.Label,
			Required:      it.Required,
			Status:        string(it.Status),
			DocumentURL:   it.DocumentURL,
			Remarks:       it.Remarks,
			VerifiedBy:    it.VerifiedBy,
			UploadedAt:    it.UploadedAt,
			VerifiedAt:    it.VerifiedAt,
		})
	}
	return docs
}

func FromEmployee(emp *domain.Employee) *Employee {
	return &Employee{
		ID:            emp.ID,
		EmployeeCode:  emp.EmployeeCode,
		ApplicationID: emp.ApplicationID,
		FullName:      emp.FullName,
		Email:         emp.Email,
		Phone:         emp.Phone,
		Department:    emp.Department,
		JoiningDate:   emp.JoiningDate,
		Salary:        emp.Salary,
		WorkType:      string(emp.WorkType),
		CreatedAt:     emp.CreatedAt,
	}
}

func (emp *Employee) ToDomain() *domain.Employee {
	return &domain.Employee{
		ID:            emp.ID,
		EmployeeCode:  emp.EmployeeCode,
		ApplicationID: emp.ApplicationID,
		FullName:      emp.FullName,
		Email:         emp.Email,
		Phone:         emp.Phone,
		Department:    emp.Department,
		JoiningDate:   emp.JoiningDate,
		Salary:        emp.Salary,
		WorkType:      domain.WorkType(emp.WorkType),
		CreatedAt:     emp.CreatedAt,
	}
}

func FromStageEvent(employeeID string, ev *domain.StageEvent) *LifecycleStage {
	return &LifecycleStage{
		ID:            ev.ID,
		EmployeeID:    employeeID,
		Stage:         string(ev.Stage),
		EffectiveDate: ev.EffectiveDate,
		Remarks:       ev.Remarks,
		Reason:        ev.Reason,
		NewRole:       ev.NewRole,
		OldDepartment: ev.OldDepartment,
		NewDepartment: ev.NewDepartment,
		ExitDate:      ev.ExitDate,
		ExitType:      string(ev.ExitType),
		RecordedBy:    ev.RecordedBy,
		CreatedAt:     ev.CreatedAt,
	}
}

func (s *LifecycleStage) ToDomain() domain.StageEvent {
	return domain.StageEvent{
		ID:            s.ID,
		Stage:         domain.LifecycleStage(s.Stage),
		EffectiveDate: s.EffectiveDate,
		Remarks:       s.Remarks,
		Reason:        s.Reason,
		NewRole:       s.NewRole,
		OldDepartment: s.OldDepartment,
		NewDepartment: s.NewDepartment,
		ExitDate:      s.ExitDate,
		ExitType:      domain.ExitType(s.ExitType),
		RecordedBy:    s.RecordedBy,
		CreatedAt:     s.CreatedAt,
	}
}

func (l *LifecycleRecord) ToDomain() *domain.LifecycleRecord {
	rec := &domain.LifecycleRecord{
		EmployeeID:   l.EmployeeID,
		EmployeeName: l.EmployeeName,
		Department:   l.Department,
		Stages:       make([]domain.StageEvent, 0, len(l.Stages)),
	}
	for i := range l.Stages {
		rec.Stages = append(rec.Stages, l.Stages[i].ToDomain())
	}
	return rec
}

// FromReview maps the review root; KPIs are mapped by FromKPIs.
func FromReview(r *domain.PerformanceReview) *PerformanceReview {
	row := &PerformanceReview{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		ManagerID:   r.ManagerID,
		ReviewCycle: string(r.ReviewCycle),
		Period:      r.Period,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Rating:      r.Rating,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if sa := r.SelfAssessment; sa != nil {
		row.SelfComments = sa.Comments
		row.SelfSubmittedAt = utils.Ptr(sa.SubmittedAt)
	}
	if mr := r.ManagerReview; mr != nil {
		row.ManagerOverallRating = utils.Ptr(mr.OverallRating)
		row.ManagerFeedback = mr.Feedback
		row.ImprovementPlan = mr.ImprovementPlan
		row.ReviewedBy = mr.ReviewedBy
		row.ManagerReviewedAt = utils.Ptr(mr.ReviewedAt)
	}
	return row
}

func FromKPIs(r *domain.PerformanceReview) []ReviewKPI {
	rows := make([]ReviewKPI, 0, len(r.KPIs))
	for _, k := range r.KPIs {
		rows = append(rows, ReviewKPI{
			ID:            k.ID,
			ReviewID:      r.ID,
			Title:         k.Title,
			Description:   k.Description,
			Weightage:     k.Weightage,
			TargetValue:   k.TargetValue,
			AchievedValue: k.AchievedValue,
			Status:        string(k.Status),
			Rating:        k.Rating,
		})
	}
	return rows
}

func (r *PerformanceReview) ToDomain() *domain.PerformanceReview {
	rev := &domain.PerformanceReview{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		ManagerID:   r.ManagerID,
		ReviewCycle: domain.ReviewCycle(r.ReviewCycle),
		Period:      r.Period,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Rating:      r.Rating,
		Status:      domain.ReviewStatus(r.Status),
		KPIs:        make([]domain.KPI, 0, len(r.KPIs)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, k := range r.KPIs {
		rev.KPIs = append(rev.KPIs, domain.KPI{
			ID:            k.ID,
			Title:         k.Title,
			Description:   k.Description,
			Weightage:     k.Weightage,
			TargetValue:   k.TargetValue,
			AchievedValue: k.AchievedValue,
			Status:        domain.KPIStatus(k.Status),
			Rating:        k.Rating,
		})
	}
	if r.SelfSubmittedAt != nil {
		rev.SelfAssessment = &domain.SelfAssessment{
			Comments:    r.SelfComments,
			SubmittedAt: *r.SelfSubmittedAt,
		}
	}
	if r.ManagerReviewedAt != nil {
		rev.ManagerReview = &domain.ManagerReview{
			OverallRating:   utils.Deref(r.ManagerOverallRating),
			Feedback:        r.ManagerFeedback,
			ImprovementPlan: r.ImprovementPlan,
			ReviewedBy:      r.ReviewedBy,
			ReviewedAt:      *r.ManagerReviewedAt,
		}
	}
	return rev
}
