package repository

import (
	"context"
	"slices"

	"github.com/dynprot/engine/internal/models"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository interface {
	BaseRepository[models.ChatMessage]
	// ListRecent returns the newest limit messages in chronological order.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error)
	CountBySender(ctx context.Context, userID uuid.UUID, sender string) (int64, error)
}

type chatRepository struct {
	BaseRepository[models.ChatMessage]
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{BaseRepository: NewBaseRepository[models.ChatMessage](db, "chat message"), db: db}
}

func (r *chatRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	out := []models.ChatMessage{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list chat history failed")
	}
	slices.Reverse(out)
	return out, nil
}

func (r *chatRepository) CountBySender(ctx context.Context, userID uuid.UUID, sender string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("user_id = ? AND sender = ?", userID, sender).Count(&n).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count chat messages failed")
	}
	return n, nil
}
