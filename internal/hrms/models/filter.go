package models

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ApplicationFilter selects applications. Zero-valued fields match all.
type ApplicationFilter struct {
	Statuses     []ApplicationStatus
	CurrentRound RoundType
	JobRef       string
	InTalentPool *bool
	Search       string
}

// Matches reports whether a satisfies every set criterion.
func (f ApplicationFilter) Matches(a *Application) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	if f.CurrentRound != "" && a.CurrentRound != f.CurrentRound {
		return false
	}
	if f.JobRef != "" && a.JobRef() != f.JobRef {
		return false
	}
	if f.InTalentPool != nil && a.InTalentPool != *f.InTalentPool {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return matchesSearch(a, q)
	}
	return true
}

func matchesSearch(a *Application, q string) bool {
	if strings.Contains(strings.ToLower(a.Candidate.FullName), q) ||
		strings.Contains(strings.ToLower(a.Candidate.Email), q) {
		return true
	}
	for _, s := range a.Candidate.Skills {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// FilterApplications returns the applications matching f, in input order.
// The input slice is not modified.
func FilterApplications(apps []Application, f ApplicationFilter) []Application {
	out := make([]Application, 0, len(apps))
	for i := range apps {
		if f.Matches(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out
}

var exportHeader = []string{
	"Application ID", "Full Name", "Email", "Phone", "Job", "Status", "Current Round",
	"Applied Date", "Expected Salary", "Match %", "Interviews", "Offer Status", "Talent Pool",
}

// ExportCSV writes apps as CSV rows with a header line.
func ExportCSV(w io.Writer, apps []Application) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, a := range apps {
		offer := ""
		if a.OfferLetter != nil {
			offer = string(a.OfferLetter.Status)
		}
		applied := ""
		if !a.Candidate.AppliedDate.IsZero() {
			applied = a.Candidate.AppliedDate.UTC().Format(DateLayout)
		}
		row := []string{
			a.ID.String(),
			a.Candidate.FullName,
			a.Candidate.Email,
			a.Candidate.Phone,
			a.JobRef(),
			string(a.Status),
			string(a.CurrentRound),
			applied,
			a.Candidate.ExpectedSalary.String(),
			strconv.FormatFloat(a.Screening.OverallMatchPercentage, 'f', -1, 64),
			strconv.Itoa(len(a.InterviewRounds)),
			offer,
			strconv.FormatBool(a.InTalentPool),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExpiringOffers returns the applications whose offer is expiring soon.
func ExpiringOffers(apps []Application, now time.Time) []Application {
	var out []Application
	for _, a := range apps {
		if a.OfferLetter != nil && a.OfferLetter.IsExpiringSoon(now) {
			out = append(out, a)
		}
	}
	return out
}
