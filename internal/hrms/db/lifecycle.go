package db

import (
	"context"

	dbmodels "github.com/gartstein/hrms/internal/hrms/db/models"
	"github.com/gartstein/hrms/internal/hrms/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppendLifecycleStage inserts the stages carried by rec, creating the record
// header on first use. Existing stages are never read or rewritten, so
// concurrent appends for one employee both survive.
func (r *Repository) AppendLifecycleStage(ctx context.Context, rec *models.LifecycleRecord) (*models.LifecycleRecord, error) {
	var out *models.LifecycleRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendStages(tx, rec); err != nil {
			return err
		}
		loaded, err := loadLifecycle(tx, rec.EmployeeID)
		if err != nil {
			return err
		}
		out = loaded
		return nil
	})
	return out, err
}

func appendStages(tx *gorm.DB, rec *models.LifecycleRecord) error {
	header := &dbmodels.LifecycleRecord{
		EmployeeID:   rec.EmployeeID,
		EmployeeName: rec.EmployeeName,
		Department:   rec.Department,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(header).Error; err != nil {
		return translate(err)
	}
	if len(rec.Stages) == 0 {
		return nil
	}
	rows := make([]*dbmodels.LifecycleStage, 0, len(rec.Stages))
	for i := range rec.Stages {
		rows = append(rows, dbmodels.FromStageEvent(rec.EmployeeID, &rec.Stages[i]))
	}
	return translate(tx.Create(rows).Error)
}

func loadLifecycle(tx *gorm.DB, employeeID string) (*models.LifecycleRecord, error) {
	var row dbmodels.LifecycleRecord
	err := tx.Preload("Stages", orderBy("seq")).First(&row, "employee_id = ?", employeeID).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.ToDomain(), nil
}

func (r *Repository) GetLifecycle(ctx context.Context, employeeID string) (*models.LifecycleRecord, error) {
	return loadLifecycle(r.db.WithContext(ctx), employeeID)
}

func (r *Repository) ListLifecycles(ctx context.Context) ([]*models.LifecycleRecord, error) {
	var rows []dbmodels.LifecycleRecord
	err := r.db.WithContext(ctx).Preload("Stages", orderBy("seq")).Order("employee_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*models.LifecycleRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
