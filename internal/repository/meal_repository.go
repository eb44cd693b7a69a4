package repository

import (
	"context"
	"time"

	"github.com/dynprot/engine/internal/models"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealRepository stores meal entries. Ranges are half-open: [from, to).
type MealRepository interface {
	BaseRepository[models.MealEntry]
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MealEntry, error)
	SumProteinBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (float64, error)
	DeleteBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
}

type mealRepository struct {
	BaseRepository[models.MealEntry]
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) MealRepository {
	return &mealRepository{BaseRepository: NewBaseRepository[models.MealEntry](db, "meal"), db: db}
}

func (r *mealRepository) inRange(ctx context.Context, userID uuid.UUID, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.MealEntry{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from.UTC(), to.UTC())
}

func (r *mealRepository) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MealEntry, error) {
	out := []models.MealEntry{}
	if err := r.inRange(ctx, userID, from, to).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list meals failed")
	}
	return out, nil
}

func (r *mealRepository) SumProteinBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (float64, error) {
	var total float64
	err := r.inRange(ctx, userID, from, to).Select("COALESCE(SUM(protein_grams), 0)").Scan(&total).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "sum protein failed")
	}
	return total, nil
}

func (r *mealRepository) DeleteBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from.UTC(), to.UTC()).
		Delete(&models.MealEntry{})
	if res.Error != nil {
		return 0, appErr.Wrap(res.Error, appErr.CodeInternal, "delete meals failed")
	}
	return res.RowsAffected, nil
}
