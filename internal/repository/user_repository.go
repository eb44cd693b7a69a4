package repository

import (
	"context"
	"errors"

	"github.com/dynprot/engine/internal/models"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	BaseRepository[models.User]
	GetByEmail(ctx context.Context, email string, dest *models.User) error
	GetWithProfile(ctx context.Context, id uuid.UUID, dest *models.User) error
	GetWithProfileByEmail(ctx context.Context, email string, dest *models.User) error
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error
}

type userRepository struct {
	BaseRepository[models.User]
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository[models.User](db, "user"), db: db}
}

// GetByEmail matches case-insensitively; stored e-mails are already lower-cased.
func (r *userRepository) GetByEmail(ctx context.Context, email string, dest *models.User) error {
	err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "user not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get user by email failed")
	}
	return nil
}

func (r *userRepository) GetWithProfile(ctx context.Context, id uuid.UUID, dest *models.User) error {
	err := r.db.WithContext(ctx).Preload("Profile").First(dest, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "user not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get user with profile failed")
	}
	return nil
}

func (r *userRepository) GetWithProfileByEmail(ctx context.Context, email string, dest *models.User) error {
	err := r.db.WithContext(ctx).Preload("Profile").Where("email = ?", models.NormalizeEmail(email)).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "user not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get user with profile failed")
	}
	return nil
}

func (r *userRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("display_name", name)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update display name failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "user not found")
	}
	return nil
}
