package models

import (
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferStatus moves Pending -> Sent -> Accepted|Rejected and never back.
type OfferStatus string

const (
	OfferPending  OfferStatus = "Pending"
	OfferSent     OfferStatus = "Sent"
	OfferAccepted OfferStatus = "Accepted"
	OfferRejected OfferStatus = "Rejected"
)

// Responded reports whether the candidate has answered.
func (s OfferStatus) Responded() bool {
	return s == OfferAccepted || s == OfferRejected
}

// WorkType is the offered work arrangement.
type WorkType string

const (
	WorkFromHome   WorkType = "WFH"
	WorkFromOffice WorkType = "WFO"
	WorkHybrid     WorkType = "Hybrid"
)

// ExpiringSoonWindow is how close to expiry an unanswered offer is flagged.
const ExpiringSoonWindow = 3 * 24 * time.Hour

// OfferTerms is the offer generation form.
type OfferTerms struct {
	Salary          decimal.Decimal `json:"salary"`
	JoiningDate     string          `json:"joiningDate" validate:"required,isodate"`
	Department      string          `json:"department" validate:"required"`
	WorkType        WorkType        `json:"workType" validate:"required,oneof=WFH WFO Hybrid"`
	ProbationPeriod string          `json:"probationPeriod,omitempty"`
	NoticePeriod    string          `json:"noticePeriod,omitempty"`
	ExpiryDate      string          `json:"expiryDate,omitempty" validate:"omitempty,isodate"`
	DocumentURL     string          `json:"documentUrl,omitempty" validate:"omitempty,url"`
}

// Validate checks the form, including the salary which the tag validator
// cannot inspect.
func (t OfferTerms) Validate() error {
	ve := e.NewValidationError()
	ve.Merge("", Validate(t))
	if !t.Salary.IsPositive() {
		ve.Add("salary", "must be greater than 0")
	}
	if t.ExpiryDate != "" && t.JoiningDate != "" {
		exp, err1 := ParseDate(t.ExpiryDate)
		join, err2 := ParseDate(t.JoiningDate)
		if err1 == nil && err2 == nil && exp.After(join) {
			ve.Add("expiryDate", "must not be after joiningDate")
		}
	}
	return ve.OrNil()
}

// OfferLetter is the offer sub-record of an application.
type OfferLetter struct {
	ID              uuid.UUID       `json:"id"`
	Status          OfferStatus     `json:"status"`
	Salary          decimal.Decimal `json:"salary"`
	JoiningDate     string          `json:"joiningDate"`
	Department      string          `json:"department"`
	WorkType        WorkType        `json:"workType"`
	ProbationPeriod string          `json:"probationPeriod,omitempty"`
	NoticePeriod    string          `json:"noticePeriod,omitempty"`
	ExpiryDate      string          `json:"expiryDate,omitempty"`
	DocumentURL     string          `json:"documentUrl,omitempty"`
	SentAt          *time.Time      `json:"sentAt,omitempty"`
	RespondedAt     *time.Time      `json:"respondedAt,omitempty"`
	ReminderCount   int             `json:"reminderCount"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewOffer builds a Pending offer from validated terms.
func NewOffer(terms OfferTerms, now time.Time) (*OfferLetter, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	return &OfferLetter{
		ID:              uuid.New(),
		Status:          OfferPending,
		Salary:          terms.Salary,
		JoiningDate:     terms.JoiningDate,
		Department:      terms.Department,
		WorkType:        terms.WorkType,
		ProbationPeriod: terms.ProbationPeriod,
		NoticePeriod:    terms.NoticePeriod,
		ExpiryDate:      terms.ExpiryDate,
		DocumentURL:     terms.DocumentURL,
		CreatedAt:       now,
	}, nil
}

// Terms returns the form values of o.
func (o *OfferLetter) Terms() OfferTerms {
	return OfferTerms{
		Salary:          o.Salary,
		JoiningDate:     o.JoiningDate,
		Department:      o.Department,
		WorkType:        o.WorkType,
		ProbationPeriod: o.ProbationPeriod,
		NoticePeriod:    o.NoticePeriod,
		ExpiryDate:      o.ExpiryDate,
	}
}

// Duplicate returns a fresh Pending copy of o with no link back to it.
func (o *OfferLetter) Duplicate(now time.Time) *OfferLetter {
	return &OfferLetter{
		ID:              uuid.New(),
		Status:          OfferPending,
		Salary:          o.Salary,
		JoiningDate:     o.JoiningDate,
		Department:      o.Department,
		WorkType:        o.WorkType,
		ProbationPeriod: o.ProbationPeriod,
		NoticePeriod:    o.NoticePeriod,
		ExpiryDate:      o.ExpiryDate,
		CreatedAt:       now,
	}
}

// IsExpiringSoon is true when the expiry date is within three days of now
// and the candidate has not answered.
func (o *OfferLetter) IsExpiringSoon(now time.Time) bool {
	if o.ExpiryDate == "" || o.Status.Responded() {
		return false
	}
	exp, err := ParseDate(o.ExpiryDate)
	if err != nil {
		return false
	}
	today := Today(now)
	return !exp.Before(today) && exp.Sub(today) <= ExpiringSoonWindow
}

// IsExpired is true once the expiry date has passed without an answer.
func (o *OfferLetter) IsExpired(now time.Time) bool {
	if o.ExpiryDate == "" || o.Status.Responded() {
		return false
	}
	exp, err := ParseDate(o.ExpiryDate)
	if err != nil {
		return false
	}
	return exp.Before(Today(now))
}

// MarkSent moves a Pending or Sent offer to Sent. Resending counts as a
// reminder.
func (o *OfferLetter) MarkSent(now time.Time) error {
	switch o.Status {
	case OfferPending:
	case OfferSent:
		o.ReminderCount++
	default:
		return e.InvalidState("offer is %s", o.Status)
	}
	o.Status = OfferSent
	sent := now
	o.SentAt = &sent
	return nil
}

// Respond records the candidate's answer on a Sent offer.
func (o *OfferLetter) Respond(decision OfferStatus, now time.Time) error {
	if !decision.Responded() {
		return e.Invalid("decision", "must be Accepted or Rejected")
	}
	if o.Status != OfferSent {
		return e.InvalidState("offer is %s, expected %s", o.Status, OfferSent)
	}
	o.Status = decision
	at := now
	o.RespondedAt = &at
	return nil
}
