package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// SetupTestDB opens an isolated in-memory SQLite database. A single
// connection keeps SQLite from reporting lock errors under concurrent tests.
func SetupTestDB(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	repo, err := Open(sqlite.Open(dsn), WithMaxOpenConns(1))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newApplication(status models.ApplicationStatus) *models.Application {
	return &models.Application{
		ID: uuid.New(),
		Candidate: models.CandidateInfo{
			FullName:       "Asha Rao",
			Email:          "asha@example.com",
			Phone:          "+91 98450 00000",
			Skills:         []string{"Go", "Kafka"},
			AppliedDate:    testNow,
			ExpectedSalary: decimal.NewFromInt(1100000),
		},
		AppliedJobRole: "Backend Engineer",
		Status:         status,
		CurrentRound:   models.RoundNone,
		Screening:      models.Screening{Result: "Strong", OverallMatchPercentage: 82, PriorityScore: 7},
		Comments: []models.StatusComment{
			{Status: status, Comment: "created", CreatedAt: testNow},
		},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func newRound(appID uuid.UUID, evaluator, date, clock string) *models.InterviewRound {
	return &models.InterviewRound{
		ID:            uuid.New(),
		ApplicationID: appID,
		RoundType:     models.RoundTechnical,
		ScheduledDate: date,
		ScheduledTime: clock,
		EvaluatorID:   evaluator,
		Mode:          models.ModeOnline,
		MeetingLink:   "https://meet.example.com/abc",
		Status:        models.InterviewScheduled,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func schedule(repo *Repository, appID uuid.UUID, evaluator, date, clock string) (*models.Application, error) {
	return repo.AppendInterviewRound(context.Background(), appID, func(app *models.Application) (*models.InterviewRound, error) {
		return newRound(app.ID, evaluator, date, clock), nil
	})
}

func TestCreateApplication(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusApplication)
	require.NoError(t, repo.CreateApplication(ctx, app), "CreateApplication should succeed")

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err, "GetApplication should retrieve the created application")
	assert.Equal(t, app.Candidate.FullName, got.Candidate.FullName)
	assert.Equal(t, []string{"Go", "Kafka"}, got.Candidate.Skills)
	assert.True(t, app.Candidate.ExpectedSalary.Equal(got.Candidate.ExpectedSalary))
	assert.Equal(t, models.StatusApplication, got.Status)
	assert.Equal(t, app.Screening, got.Screening)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "created", got.Comments[0].Comment)
	assert.Nil(t, got.OfferLetter)
	assert.Nil(t, got.Onboarding)
}

func TestGetApplicationNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetApplication(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound, "GetApplication should return ErrNotFound for missing application")
}

func TestListApplications(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := newApplication(models.StatusApplication)
	second := newApplication(models.StatusRejected)
	second.CreatedAt = testNow.Add(time.Hour)
	require.NoError(t, repo.CreateApplication(ctx, first))
	require.NoError(t, repo.CreateApplication(ctx, second))

	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, first.ID, apps[0].ID)
	assert.Equal(t, second.ID, apps[1].ID)
}

func TestApplicationRoundTrip(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusSelected)
	require.NoError(t, repo.CreateApplication(ctx, app))
	_, err := schedule(repo, app.ID, "emp-7", "2026-03-05", "10:00")
	require.NoError(t, err)

	offer, err := models.NewOffer(models.OfferTerms{
		Salary:      decimal.NewFromInt(1200000),
		JoiningDate: "2026-04-01",
		Department:  "Engineering",
		WorkType:    models.WorkFromOffice,
		ExpiryDate:  "2026-03-20",
	}, testNow)
	require.NoError(t, err)

	saved, err := repo.UpdateApplication(ctx, app.ID, func(a *models.Application) error {
		a.OfferLetter = offer
		a.Status = models.StatusOffer
		a.Comments = append(a.Comments, models.StatusComment{Status: models.StatusOffer, Comment: "offer", CreatedAt: testNow})
		return nil
	})
	require.NoError(t, err)

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Status, got.Status)
	require.Len(t, got.InterviewRounds, 1)
	assert.Equal(t, saved.InterviewRounds[0].ID, got.InterviewRounds[0].ID)
	assert.Equal(t, saved.InterviewRounds[0].SlotKey(), got.InterviewRounds[0].SlotKey())
	assert.Equal(t, saved.InterviewRounds[0].MeetingLink, got.InterviewRounds[0].MeetingLink)

	require.NotNil(t, got.OfferLetter)
	assert.Equal(t, offer.ID, got.OfferLetter.ID)
	assert.Equal(t, models.OfferPending, got.OfferLetter.Status)
	assert.True(t, offer.Salary.Equal(got.OfferLetter.Salary))
	assert.Equal(t, offer.JoiningDate, got.OfferLetter.JoiningDate)
	assert.Equal(t, offer.Department, got.OfferLetter.Department)
	assert.Equal(t, offer.WorkType, got.OfferLetter.WorkType)
	assert.Equal(t, offer.ExpiryDate, got.OfferLetter.ExpiryDate)
	assert.Len(t, got.Comments, 2)
}

func TestUpdateApplicationReplacesOffer(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusSelected)
	require.NoError(t, repo.CreateApplication(ctx, app))

	terms := models.OfferTerms{
		Salary:      decimal.NewFromInt(1000000),
		JoiningDate: "2026-04-01",
		Department:  "Engineering",
		WorkType:    models.WorkHybrid,
	}
	for _, salary := range []int64{1000000, 1300000} {
		terms.Salary = decimal.NewFromInt(salary)
		_, err := repo.UpdateApplication(ctx, app.ID, func(a *models.Application) error {
			offer, err := models.NewOffer(terms, testNow)
			a.OfferLetter = offer
			return err
		})
		require.NoError(t, err)
	}

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OfferLetter)
	assert.True(t, decimal.NewFromInt(1300000).Equal(got.OfferLetter.Salary))
}

func TestUpdateApplicationRollsBack(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusApplication)
	require.NoError(t, repo.CreateApplication(ctx, app))

	boom := errors.New("boom")
	_, err := repo.UpdateApplication(ctx, app.ID, func(a *models.Application) error {
		a.Status = models.StatusRejected
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplication, got.Status, "failed update must not persist")
}

func TestUpdateApplicationNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.UpdateApplication(context.Background(), uuid.New(), func(*models.Application) error { return nil })
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestAppendInterviewRoundConflict(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := newApplication(models.StatusInterview)
	second := newApplication(models.StatusInterview)
	require.NoError(t, repo.CreateApplication(ctx, first))
	require.NoError(t, repo.CreateApplication(ctx, second))

	_, err := schedule(repo, first.ID, "emp-7", "2026-03-05", "10:00")
	require.NoError(t, err)

	_, err = schedule(repo, second.ID, "emp-7", "2026-03-05", "10:00")
	assert.ErrorIs(t, err, e.ErrConflict, "same evaluator and slot must conflict across applications")

	_, err = schedule(repo, second.ID, "emp-7", "2026-03-05", "11:00")
	assert.NoError(t, err, "a different time is free")

	_, err = schedule(repo, second.ID, "emp-8", "2026-03-05", "10:00")
	assert.NoError(t, err, "a different evaluator is free")

	got, err := repo.GetApplication(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, got.InterviewRounds, 2, "the conflicting round must not be stored")
}

func TestUpdateInterviewRoundReleasesSlot(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusInterview)
	require.NoError(t, repo.CreateApplication(ctx, app))
	saved, err := schedule(repo, app.ID, "emp-7", "2026-03-05", "10:00")
	require.NoError(t, err)
	roundID := saved.InterviewRounds[0].ID

	_, err = repo.UpdateInterviewRound(ctx, app.ID, roundID, func(_ *models.Application, r *models.InterviewRound) error {
		r.Status = models.InterviewPassed
		return nil
	})
	require.NoError(t, err)

	_, err = schedule(repo, app.ID, "emp-7", "2026-03-05", "10:00")
	assert.NoError(t, err, "a completed round no longer holds its slot")
}

func TestUpdateInterviewRoundConflictExcludesSelf(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusInterview)
	require.NoError(t, repo.CreateApplication(ctx, app))
	_, err := schedule(repo, app.ID, "emp-7", "2026-03-05", "10:00")
	require.NoError(t, err)
	saved, err := schedule(repo, app.ID, "emp-7", "2026-03-05", "11:00")
	require.NoError(t, err)
	roundID := saved.InterviewRounds[1].ID

	_, err = repo.UpdateInterviewRound(ctx, app.ID, roundID, func(_ *models.Application, r *models.InterviewRound) error {
		r.Feedback = "same slot, new notes"
		return nil
	})
	assert.NoError(t, err, "keeping its own slot is not a conflict")

	_, err = repo.UpdateInterviewRound(ctx, app.ID, roundID, func(_ *models.Application, r *models.InterviewRound) error {
		r.ScheduledTime = "10:00"
		return nil
	})
	assert.ErrorIs(t, err, e.ErrConflict)

	_, err = repo.UpdateInterviewRound(ctx, app.ID, uuid.New(), func(*models.Application, *models.InterviewRound) error {
		return nil
	})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestConcurrentScheduleSameSlot(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	const callers = 8
	ids := make([]uuid.UUID, callers)
	for i := range ids {
		app := newApplication(models.StatusInterview)
		require.NoError(t, repo.CreateApplication(ctx, app))
		ids[i] = app.ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := schedule(repo, id, "emp-7", "2026-03-05", "10:00")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, e.ErrConflict):
				conflicts++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, ok, "exactly one caller may take the slot")
	assert.Equal(t, callers-1, conflicts)
}

func TestConcurrentAppendsArePreserved(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusInterview)
	require.NoError(t, repo.CreateApplication(ctx, app))

	const rounds = 6
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := schedule(repo, app.ID, fmt.Sprintf("emp-%d", i), "2026-03-05", "10:00")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, got.InterviewRounds, rounds)
}

func TestConvertApplication(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusOnboarding)
	require.NoError(t, repo.CreateApplication(ctx, app))

	convert := func(code string) error {
		_, _, err := repo.ConvertApplication(ctx, app.ID, func(a *models.Application) (*models.Employee, *models.LifecycleRecord, error) {
			a.EmployeeID = code
			emp := &models.Employee{
				ID:            uuid.New(),
				EmployeeCode:  code,
				ApplicationID: a.ID,
				FullName:      a.Candidate.FullName,
				CreatedAt:     testNow,
			}
			rec := &models.LifecycleRecord{EmployeeID: code, EmployeeName: a.Candidate.FullName}
			_, err := rec.Append(models.StageEvent{Stage: models.StageJoining}, testNow)
			return emp, rec, err
		})
		return err
	}

	require.NoError(t, convert("EMP-0001"))

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "EMP-0001", got.EmployeeID)

	rec, err := repo.GetLifecycle(ctx, "EMP-0001")
	require.NoError(t, err)
	assert.Equal(t, models.StageJoining, rec.CurrentStage())
	assert.Equal(t, models.EmploymentActive, rec.Status())

	err = convert("EMP-0002")
	assert.ErrorIs(t, err, e.ErrConflict, "one application yields at most one employee row")
}

func TestAppendLifecycleStagePreservesOrder(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	events := []models.StageEvent{
		{Stage: models.StageJoining},
		{Stage: models.StageConfirmation},
		{Stage: models.StageTransfer, OldDepartment: "Sales", NewDepartment: "Engineering"},
		{Stage: models.StagePromotion, NewRole: "Lead"},
		{Stage: models.StageResignation, Reason: "relocating"},
	}
	var ids []uuid.UUID
	for _, ev := range events {
		rec := &models.LifecycleRecord{EmployeeID: "EMP-1", EmployeeName: "Asha Rao"}
		added, err := rec.Append(ev, testNow)
		require.NoError(t, err)
		ids = append(ids, added.ID)
		_, err = repo.AppendLifecycleStage(ctx, rec)
		require.NoError(t, err)
	}

	rec, err := repo.GetLifecycle(ctx, "EMP-1")
	require.NoError(t, err)
	require.Len(t, rec.Stages, len(events))
	for i, st := range rec.Stages {
		assert.Equal(t, ids[i], st.ID)
		assert.Equal(t, events[i].Stage, st.Stage)
	}
	assert.Equal(t, models.EmploymentOnNotice, rec.Status())
	assert.Equal(t, "Asha Rao", rec.EmployeeName)

	all, err := repo.ListLifecycles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.GetLifecycle(ctx, "EMP-404")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func newReview(t *testing.T) *models.PerformanceReview {
	t.Helper()
	review, err := models.NewReview{
		EmployeeID:  "EMP-1",
		ManagerID:   "MGR-1",
		ReviewCycle: models.CycleQuarterly,
		Period:      "Q1 2026",
		StartDate:   "2026-01-01",
		EndDate:     "2026-03-31",
		Rating:      4,
		KPIs: []models.KPI{
			{Title: "Delivery", Description: "Ship roadmap items", Weightage: 60},
			{Title: "Quality", Description: "Keep defects low", Weightage: 40},
		},
	}.Build(testNow)
	require.NoError(t, err)
	return review
}

func TestReviewLifecycle(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	review := newReview(t)
	require.NoError(t, repo.CreateReview(ctx, review))

	_, err := repo.UpdateReview(ctx, review.ID, func(r *models.PerformanceReview) error {
		return r.SubmitSelfAssessment("done", []models.AchievedValue{{KPIID: r.KPIs[1].ID, Value: "2 defects"}}, testNow)
	})
	require.NoError(t, err)

	got, err := repo.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewSelfAssessment, got.Status)
	require.NotNil(t, got.SelfAssessment)
	assert.Equal(t, "done", got.SelfAssessment.Comments)
	require.Len(t, got.KPIs, 2)
	assert.Equal(t, review.KPIs[0].ID, got.KPIs[0].ID, "KPI order is kept")
	assert.Equal(t, "2 defects", got.KPIs[1].AchievedValue)

	listed, err := repo.ListReviews(ctx, models.ReviewFilter{ManagerID: "MGR-1"})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	listed, err = repo.ListReviews(ctx, models.ReviewFilter{Status: models.ReviewDraft})
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = repo.GetReview(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestManagerReviewFirstWriteWins(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	review := newReview(t)
	require.NoError(t, repo.CreateReview(ctx, review))
	_, err := repo.UpdateReview(ctx, review.ID, func(r *models.PerformanceReview) error {
		return r.SubmitSelfAssessment("", nil, testNow)
	})
	require.NoError(t, err)

	submit := func(feedback string) error {
		_, err := repo.UpdateReview(ctx, review.ID, func(r *models.PerformanceReview) error {
			return r.ApplyManagerReview(models.ManagerReviewInput{
				OverallRating: 4,
				Feedback:      feedback,
				KPIRatings:    []models.KPIRating{{Rating: 4}, {Rating: 3}},
			}, "MGR-1", testNow)
		})
		return err
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = submit(fmt.Sprintf("feedback %d", i))
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, e.ErrInvalidState)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "only the first manager review is stored")

	got, err := repo.GetReview(ctx, review.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ManagerReview)
	assert.Equal(t, models.ReviewCompleted, got.Status)
	assert.Equal(t, 4.0, got.KPIs[0].Rating)
}

func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := newApplication(models.StatusApplication)
	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		if err := txRepo.CreateApplication(ctx, app); err != nil {
			return err
		}
		return errors.New("rollback")
	})
	assert.Error(t, err)

	_, err = repo.GetApplication(ctx, app.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "rolled back application should not exist")
}
