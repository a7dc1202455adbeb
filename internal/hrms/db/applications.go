package db

import (
	"context"
	"fmt"

	dbmodels "github.com/gartstein/hrms/internal/hrms/db/models"
	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func preloadApplication(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("InterviewRounds", orderBy("seq")).
		Preload("Comments", orderBy("seq")).
		Preload("Offer").
		Preload("Documents", orderBy("position"))
}

func loadApplication(tx *gorm.DB, id uuid.UUID) (*models.Application, error) {
	var row dbmodels.Application
	if err := preloadApplication(tx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain(), nil
}

func (r *Repository) CreateApplication(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(dbmodels.FromApplication(app)).Error; err != nil {
			return translate(err)
		}
		return insertComments(tx, app, app.Comments)
	})
}

func (r *Repository) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return loadApplication(r.db.WithContext(ctx), id)
}

// ListApplications returns every application in creation order.
func (r *Repository) ListApplications(ctx context.Context) ([]*models.Application, error) {
	var rows []dbmodels.Application
	if err := preloadApplication(r.db.WithContext(ctx)).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	apps := make([]*models.Application, 0, len(rows))
	for i := range rows {
		apps = append(apps, rows[i].ToDomain())
	}
	return apps, nil
}

// UpdateApplication loads the application under a row lock, applies fn and
// writes the root row, offer, new comments and checklist back in the same
// transaction. Interview rounds are written only by AppendInterviewRound
// and UpdateInterviewRound.
func (r *Repository) UpdateApplication(ctx context.Context, id uuid.UUID,
	fn func(app *models.Application) error,
) (*models.Application, error) {
	var out *models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := loadApplication(forUpdate(tx), id)
		if err != nil {
			return err
		}
		seen := len(app.Comments)
		if err := fn(app); err != nil {
			return err
		}
		if err := saveApplication(tx, app, seen); err != nil {
			return err
		}
		out = app
		return nil
	})
	return out, err
}

// ConvertApplication applies fn to the locked application and persists the
// employee it issues, the application and the opening lifecycle stage
// atomically.
func (r *Repository) ConvertApplication(ctx context.Context, id uuid.UUID,
	fn func(app *models.Application) (*models.Employee, *models.LifecycleRecord, error),
) (*models.Application, *models.Employee, error) {
	var (
		outApp *models.Application
		outEmp *models.Employee
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := loadApplication(forUpdate(tx), id)
		if err != nil {
			return err
		}
		seen := len(app.Comments)
		emp, rec, err := fn(app)
		if err != nil {
			return err
		}
		if err := tx.Create(dbmodels.FromEmployee(emp)).Error; err != nil {
			return translate(err)
		}
		if err := saveApplication(tx, app, seen); err != nil {
			return err
		}
		if err := appendStages(tx, rec); err != nil {
			return err
		}
		outApp, outEmp = app, emp
		return nil
	})
	return outApp, outEmp, err
}

func saveApplication(tx *gorm.DB, app *models.Application, seenComments int) error {
	if err := tx.Omit(clause.Associations).Save(dbmodels.FromApplication(app)).Error; err != nil {
		return translate(err)
	}
	if app.OfferLetter != nil {
		if err := tx.Save(dbmodels.FromOffer(app.OfferLetter, app, app.UpdatedAt)).Error; err != nil {
			return translate(err)
		}
	}
	if seenComments < len(app.Comments) {
		if err := insertComments(tx, app, app.Comments[seenComments:]); err != nil {
			return err
		}
	}
	docs := dbmodels.FromChecklist(app)
	for i := range docs {
		if err := tx.Save(&docs[i]).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

func insertComments(tx *gorm.DB, app *models.Application, comments []models.StatusComment) error {
	if len(comments) == 0 {
		return nil
	}
	rows := make([]*dbmodels.StatusComment, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, dbmodels.FromStatusComment(app, c))
	}
	if err := tx.Create(rows).Error; err != nil {
		return fmt.Errorf("failed to append status comments: %w", translate(err))
	}
	return nil
}

// AppendInterviewRound builds a round against the locked application and
// inserts it. The slot check and the insert share one transaction and the
// unique slot index rejects any concurrent winner.
func (r *Repository) AppendInterviewRound(ctx context.Context, appID uuid.UUID,
	build func(app *models.Application) (*models.InterviewRound, error),
) (*models.Application, error) {
	var out *models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := loadApplication(forUpdate(tx), appID)
		if err != nil {
			return err
		}
		seen := len(app.Comments)
		round, err := build(app)
		if err != nil {
			return err
		}
		row := dbmodels.FromInterviewRound(round)
		if err := checkSlot(tx, row); err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return translate(err)
		}
		app.InterviewRounds = append(app.InterviewRounds, *round)
		if err := saveApplication(tx, app, seen); err != nil {
			return err
		}
		out = app
		return nil
	})
	return out, err
}

// UpdateInterviewRound applies fn to one round of the locked application and
// writes the round back, re-checking its slot against every other round.
func (r *Repository) UpdateInterviewRound(ctx context.Context, appID, roundID uuid.UUID,
	fn func(app *models.Application, round *models.InterviewRound) error,
) (*models.Application, error) {
	var out *models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := loadApplication(forUpdate(tx), appID)
		if err != nil {
			return err
		}
		round, ok := app.Round(roundID)
		if !ok {
			return fmt.Errorf("%w: interview round %s", e.ErrNotFound, roundID)
		}
		seen := len(app.Comments)
		if err := fn(app, round); err != nil {
			return err
		}
		row := dbmodels.FromInterviewRound(round)
		if err := checkSlot(tx, row); err != nil {
			return err
		}
		res := tx.Model(&dbmodels.InterviewRound{}).
			Where("id = ?", row.ID).
			Select("*").
			Omit("seq", "id", "application_id", "created_at").
			Updates(row)
		if res.Error != nil {
			return translate(res.Error)
		}
		if err := saveApplication(tx, app, seen); err != nil {
			return err
		}
		out = app
		return nil
	})
	return out, err
}

func checkSlot(tx *gorm.DB, row *dbmodels.InterviewRound) error {
	if row.SlotKey == nil {
		return nil
	}
	var count int64
	err := tx.Model(&dbmodels.InterviewRound{}).
		Where("slot_key = ? AND id <> ?", *row.SlotKey, row.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: evaluator %s already has a round on %s at %s",
			e.ErrConflict, row.EvaluatorID, row.ScheduledDate, row.ScheduledTime)
	}
	return nil
}
