package repository

import (
	"context"
	"errors"

	"github.com/dynprot/engine/internal/models"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID, dest *models.Profile) error
	// CompleteOnboarding upserts the profile and flags the user as onboarded
	// in a single transaction.
	CompleteOnboarding(ctx context.Context, p *models.Profile) error
	UpdateGoal(ctx context.Context, userID uuid.UUID, goal int) error
	UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]any) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID, dest *models.Profile) error {
	if err := r.db.WithContext(ctx).First(dest, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "profile not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get profile failed")
	}
	return nil
}

func (r *profileRepository) CompleteOnboarding(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", p.UserID).
			Updates(map[string]any{"onboarding_completed": true, "display_name": p.DisplayName})
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "mark onboarding failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeNotFound, "user not found")
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(p).Error
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "upsert profile failed")
		}
		return nil
	})
}

func (r *profileRepository) UpdateGoal(ctx context.Context, userID uuid.UUID, goal int) error {
	return r.UpdateFields(ctx, userID, map[string]any{"daily_protein_goal": goal})
}

func (r *profileRepository) UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update profile failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "profile not found")
	}
	return nil
}
