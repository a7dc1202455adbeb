package models

import (
	"fmt"
	"slices"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/google/uuid"
)

// InterviewMode selects between a meeting link and a venue.
type InterviewMode string

const (
	ModeOnline  InterviewMode = "Online"
	ModeOffline InterviewMode = "Offline"
)

// InterviewStatus tracks a single round.
type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "Scheduled"
	InterviewRescheduled InterviewStatus = "Rescheduled"
	InterviewCompleted   InterviewStatus = "Completed"
	InterviewPassed      InterviewStatus = "Passed"
	InterviewFailed      InterviewStatus = "Failed"
	InterviewNoShow      InterviewStatus = "No Show"
)

var interviewStatuses = []InterviewStatus{
	InterviewScheduled, InterviewRescheduled, InterviewCompleted,
	InterviewPassed, InterviewFailed, InterviewNoShow,
}

func (s InterviewStatus) Valid() bool {
	return slices.Contains(interviewStatuses, s)
}

// HoldsSlot reports whether a round in this status occupies its evaluator's slot.
func (s InterviewStatus) HoldsSlot() bool {
	return s == InterviewScheduled || s == InterviewRescheduled
}

// IsOutcome reports whether s closes a round.
func (s InterviewStatus) IsOutcome() bool {
	return s == InterviewPassed || s == InterviewFailed || s == InterviewNoShow
}

// InterviewRound is one scheduled interview of an application.
type InterviewRound struct {
	ID            uuid.UUID       `json:"id"`
	ApplicationID uuid.UUID       `json:"applicationId"`
	RoundType     RoundType       `json:"roundType"`
	ScheduledDate string          `json:"scheduledDate"`
	ScheduledTime string          `json:"scheduledTime"`
	EvaluatorID   string          `json:"evaluatorId"`
	Mode          InterviewMode   `json:"mode"`
	MeetingLink   string          `json:"meetingLink,omitempty"`
	Venue         string          `json:"venue,omitempty"`
	Status        InterviewStatus `json:"status"`
	Feedback      string          `json:"feedback,omitempty"`
	Rating        *int            `json:"rating,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SlotKey identifies the evaluator slot the round occupies. Empty when the
// round no longer holds a slot.
func (r *InterviewRound) SlotKey() string {
	if !r.Status.HoldsSlot() {
		return ""
	}
	return SlotKey(r.EvaluatorID, r.ScheduledDate, r.ScheduledTime)
}

// SlotKey builds the uniqueness key of an evaluator slot.
func SlotKey(evaluatorID, date, clock string) string {
	return fmt.Sprintf("%s|%s|%s", evaluatorID, date, clock)
}

// Overlaps reports whether both rounds hold the same evaluator slot.
func (r *InterviewRound) Overlaps(other *InterviewRound) bool {
	key := r.SlotKey()
	return key != "" && key == other.SlotKey()
}

// ScheduleRequest is the input of scheduling a round.
type ScheduleRequest struct {
	RoundType     RoundType     `json:"roundType"`
	ScheduledDate string        `json:"scheduledDate" validate:"required,isodate"`
	ScheduledTime string        `json:"scheduledTime" validate:"required,hhmm"`
	EvaluatorID   string        `json:"evaluatorId" validate:"required"`
	Mode          InterviewMode `json:"mode" validate:"required,oneof=Online Offline"`
	MeetingLink   string        `json:"meetingLink,omitempty" validate:"omitempty,url"`
	Venue         string        `json:"venue,omitempty" validate:"required_if=Mode Offline"`
}

func (req ScheduleRequest) validate() *e.ValidationError {
	ve := e.NewValidationError()
	ve.Merge("", Validate(req))
	if req.RoundType == RoundNone || !req.RoundType.Valid() {
		ve.Add("roundType", "must be an interview round")
	}
	if req.Mode == ModeOnline && req.MeetingLink == "" {
		ve.Add("meetingLink", "is required")
	}
	return ve
}

// NewRound validates req against today's date and builds a Scheduled round.
func NewRound(applicationID uuid.UUID, req ScheduleRequest, now time.Time) (*InterviewRound, error) {
	ve := req.validate()
	if d, err := ParseDate(req.ScheduledDate); err == nil && d.Before(Today(now)) {
		ve.Add("scheduledDate", "must be today or later")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	round := &InterviewRound{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		RoundType:     req.RoundType,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		EvaluatorID:   req.EvaluatorID,
		Mode:          req.Mode,
		Status:        InterviewScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	round.setLocation(req.MeetingLink, req.Venue)
	return round, nil
}

func (r *InterviewRound) setLocation(link, venue string) {
	switch r.Mode {
	case ModeOnline:
		r.MeetingLink, r.Venue = link, ""
	case ModeOffline:
		r.MeetingLink, r.Venue = "", venue
	}
}

// RoundPatch carries the editable fields of a round. Nil fields are kept.
type RoundPatch struct {
	RoundType     *RoundType       `json:"roundType,omitempty"`
	ScheduledDate *string          `json:"scheduledDate,omitempty"`
	ScheduledTime *string          `json:"scheduledTime,omitempty"`
	EvaluatorID   *string          `json:"evaluatorId,omitempty"`
	Mode          *InterviewMode   `json:"mode,omitempty"`
	MeetingLink   *string          `json:"meetingLink,omitempty"`
	Venue         *string          `json:"venue,omitempty"`
	Status        *InterviewStatus `json:"status,omitempty"`
	Feedback      *string          `json:"feedback,omitempty"`
}

// Apply validates and applies the patch. Moving the slot of a Scheduled
// round marks it Rescheduled.
func (p RoundPatch) Apply(r *InterviewRound, now time.Time) error {
	next := *r
	if p.RoundType != nil {
		next.RoundType = *p.RoundType
	}
	if p.ScheduledDate != nil {
		next.ScheduledDate = *p.ScheduledDate
	}
	if p.ScheduledTime != nil {
		next.ScheduledTime = *p.ScheduledTime
	}
	if p.EvaluatorID != nil {
		next.EvaluatorID = *p.EvaluatorID
	}
	if p.Mode != nil {
		next.Mode = *p.Mode
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Feedback != nil {
		next.Feedback = *p.Feedback
	}
	link, venue := r.MeetingLink, r.Venue
	if p.MeetingLink != nil {
		link = *p.MeetingLink
	}
	if p.Venue != nil {
		venue = *p.Venue
	}

	req := ScheduleRequest{
		RoundType:     next.RoundType,
		ScheduledDate: next.ScheduledDate,
		ScheduledTime: next.ScheduledTime,
		EvaluatorID:   next.EvaluatorID,
		Mode:          next.Mode,
		MeetingLink:   link,
		Venue:         venue,
	}
	ve := req.validate()
	if !next.Status.Valid() {
		ve.Add("status", "is not a known interview status")
	}
	moved := next.ScheduledDate != r.ScheduledDate || next.ScheduledTime != r.ScheduledTime
	if moved {
		if d, err := ParseDate(next.ScheduledDate); err == nil && d.Before(Today(now)) {
			ve.Add("scheduledDate", "must be today or later")
		}
	}
	if ve.HasErrors() {
		return ve
	}

	if moved && next.Status == InterviewScheduled {
		next.Status = InterviewRescheduled
	}
	next.setLocation(link, venue)
	next.UpdatedAt = now
	*r = next
	return nil
}

// InterviewOutcome closes a round.
type InterviewOutcome struct {
	Status   InterviewStatus `json:"status"`
	Feedback string          `json:"feedback"`
	Rating   *int            `json:"rating,omitempty"`
}

// Complete records the outcome on r. The parent application status is not
// touched.
func (o InterviewOutcome) Complete(r *InterviewRound, now time.Time) error {
	ve := e.NewValidationError()
	if !o.Status.IsOutcome() {
		ve.Addf("status", "must be one of: %s, %s, %s", InterviewPassed, InterviewFailed, InterviewNoShow)
	}
	if o.Rating != nil && (*o.Rating < 1 || *o.Rating > 5) {
		ve.Add("rating", "must be between 1 and 5")
	}
	if ve.HasErrors() {
		return ve
	}
	r.Status = o.Status
	r.Feedback = o.Feedback
	r.Rating = o.Rating
	r.UpdatedAt = now
	return nil
}
