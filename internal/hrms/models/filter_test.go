package models

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/gartstein/hrms/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleApplications() []Application {
	jobID := uuid.New()
	return []Application{
		{
			ID:           uuid.New(),
			Candidate:    CandidateInfo{FullName: "Asha Rao", Email: "asha@example.com", Skills: []string{"Go", "Kafka"}},
			JobID:        &jobID,
			Status:       StatusInterview,
			CurrentRound: RoundTechnical,
		},
		{
			ID:             uuid.New(),
			Candidate:      CandidateInfo{FullName: "Ben Ode", Email: "ben@example.com", Skills: []string{"Java"}},
			AppliedJobRole: "Backend Engineer",
			Status:         StatusRejected,
			CurrentRound:   RoundNone,
			InTalentPool:   true,
		},
		{
			ID:             uuid.New(),
			Candidate:      CandidateInfo{FullName: "Chen Li", Email: "chen@example.com", Skills: []string{"golang"}},
			AppliedJobRole: "Backend Engineer",
			Status:         StatusSelected,
			CurrentRound:   RoundHR,
			OfferLetter:    &OfferLetter{Status: OfferSent, ExpiryDate: "2026-06-02"},
		},
	}
}

func TestFilterApplications(t *testing.T) {
	apps := sampleApplications()

	tests := []struct {
		name   string
		filter ApplicationFilter
		want   []string
	}{
		{name: "no criteria", filter: ApplicationFilter{}, want: []string{"Asha Rao", "Ben Ode", "Chen Li"}},
		{name: "by status", filter: ApplicationFilter{Statuses: []ApplicationStatus{StatusRejected, StatusSelected}}, want: []string{"Ben Ode", "Chen Li"}},
		{name: "by round", filter: ApplicationFilter{CurrentRound: RoundTechnical}, want: []string{"Asha Rao"}},
		{name: "by role fallback", filter: ApplicationFilter{JobRef: "Backend Engineer"}, want: []string{"Ben Ode", "Chen Li"}},
		{name: "talent pool", filter: ApplicationFilter{InTalentPool: utils.Ptr(true)}, want: []string{"Ben Ode"}},
		{name: "search skills case-insensitively", filter: ApplicationFilter{Search: "GO"}, want: []string{"Asha Rao", "Chen Li"}},
		{name: "search email", filter: ApplicationFilter{Search: "ben@"}, want: []string{"Ben Ode"}},
		{name: "combined", filter: ApplicationFilter{Search: "go", Statuses: []ApplicationStatus{StatusSelected}}, want: []string{"Chen Li"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterApplications(apps, tt.filter)
			names := make([]string, 0, len(got))
			for _, a := range got {
				names = append(names, a.Candidate.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
	assert.Len(t, apps, 3, "input is not modified")
}

func TestExportCSV(t *testing.T) {
	apps := sampleApplications()
	apps[0].Candidate.ExpectedSalary = decimal.NewFromInt(900000)
	apps[0].Candidate.AppliedDate = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, apps))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Application ID", rows[0][0])
	assert.Equal(t, "Asha Rao", rows[1][1])
	assert.Equal(t, "2026-02-03", rows[1][7])
	assert.Equal(t, "900000", rows[1][8])
	assert.Equal(t, "Backend Engineer", rows[2][4])
	assert.Equal(t, "Sent", rows[3][11])
}

func TestExpiringOffers(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got := ExpiringOffers(sampleApplications(), now)
	require.Len(t, got, 1)
	assert.Equal(t, "Chen Li", got[0].Candidate.FullName)
}
