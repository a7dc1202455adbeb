package db

import (
	"context"

	dbmodels "github.com/gartstein/hrms/internal/hrms/db/models"
	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func loadReview(tx *gorm.DB, id uuid.UUID) (*models.PerformanceReview, error) {
	var row dbmodels.PerformanceReview
	if err := tx.Preload("KPIs", orderBy("seq")).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain(), nil
}

func (r *Repository) CreateReview(ctx context.Context, review *models.PerformanceReview) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(dbmodels.FromReview(review)).Error; err != nil {
			return translate(err)
		}
		return insertKPIs(tx, review)
	})
}

func (r *Repository) GetReview(ctx context.Context, id uuid.UUID) (*models.PerformanceReview, error) {
	return loadReview(r.db.WithContext(ctx), id)
}

func (r *Repository) ListReviews(ctx context.Context, filter models.ReviewFilter) ([]*models.PerformanceReview, error) {
	q := r.db.WithContext(ctx).Preload("KPIs", orderBy("seq"))
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.ManagerID != "" {
		q = q.Where("manager_id = ?", filter.ManagerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	var rows []dbmodels.PerformanceReview
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.PerformanceReview, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// UpdateReview applies fn to the locked review and writes it back. When fn
// records the manager review, the write only succeeds if no manager review
// has been stored in the meantime.
func (r *Repository) UpdateReview(ctx context.Context, id uuid.UUID,
	fn func(review *models.PerformanceReview) error,
) (*models.PerformanceReview, error) {
	var out *models.PerformanceReview
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := loadReview(forUpdate(tx), id)
		if err != nil {
			return err
		}
		reviewed := review.ManagerReview != nil
		if err := fn(review); err != nil {
			return err
		}

		q := tx.Model(&dbmodels.PerformanceReview{}).Where("id = ?", id)
		if !reviewed && review.ManagerReview != nil {
			q = q.Where("manager_reviewed_at IS NULL")
		}
		res := q.Select("*").Omit("id", "created_at").Updates(dbmodels.FromReview(review))
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return e.InvalidState("manager review already submitted")
		}

		if err := tx.Where("review_id = ?", id).Delete(&dbmodels.ReviewKPI{}).Error; err != nil {
			return err
		}
		if err := insertKPIs(tx, review); err != nil {
			return err
		}
		out = review
		return nil
	})
	return out, err
}

func insertKPIs(tx *gorm.DB, review *models.PerformanceReview) error {
	rows := dbmodels.FromKPIs(review)
	if len(rows) == 0 {
		return nil
	}
	return translate(tx.Create(&rows).Error)
}
