package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/queue"
	"github.com/dynprot/engine/internal/repository"
	"github.com/dynprot/engine/internal/services"
	"github.com/dynprot/engine/internal/storage"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskHandler runs the background jobs of the chat pipeline.
type TaskHandler struct {
	userRepo repository.UserRepository
	chatRepo repository.ChatRepository
	store    storage.Store
}

func NewTaskHandler(userRepo repository.UserRepository, chatRepo repository.ChatRepository, store storage.Store) *TaskHandler {
	return &TaskHandler{userRepo: userRepo, chatRepo: chatRepo, store: store}
}

// Register binds every task type on mux.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypeWelcome, h.HandleWelcome)
	mux.HandleFunc(queue.TypeUploadPurge, h.HandleUploadPurge)
}

// HandleWelcome posts the first assistant message. It does nothing when the
// user already received one, so retries are harmless.
func (h *TaskHandler) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	var p queue.WelcomePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid welcome task payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		logger.L().Error("invalid user id in welcome task", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	logger.L().Info("handling welcome task", zap.String("user_id", id.String()))

	var u models.User
	if err := h.userRepo.GetWithProfile(ctx, id, &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			logger.L().Warn("welcome task for unknown user", zap.String("user_id", id.String()))
			return nil
		}
		return err
	}
	if u.Profile == nil {
		logger.L().Warn("welcome task before onboarding", zap.String("user_id", id.String()))
		return nil
	}

	sent, err := h.chatRepo.CountBySender(ctx, id, models.SenderAI)
	if err != nil {
		return err
	}
	if sent > 0 {
		logger.L().Info("welcome already sent", zap.String("user_id", id.String()))
		return nil
	}

	msg := &models.ChatMessage{
		UserID:  id,
		Content: services.WelcomeReply(u.Profile.DisplayName, u.Profile.DailyProteinGoal),
		Type:    models.MessageTypeText,
		Sender:  models.SenderAI,
	}
	if err := h.chatRepo.Create(ctx, msg); err != nil {
		logger.L().Error("store welcome message failed", zap.Error(err))
		return err
	}
	return nil
}

// HandleUploadPurge deletes a stored meal photo once its retention ends.
func (h *TaskHandler) HandleUploadPurge(ctx context.Context, t *asynq.Task) error {
	var p queue.UploadPurgePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.Key == "" {
		logger.L().Error("invalid purge task payload", zap.Error(err))
		return fmt.Errorf("%w: invalid purge payload", asynq.SkipRetry)
	}
	if h.store == nil {
		return fmt.Errorf("%w: no upload store configured", asynq.SkipRetry)
	}

	if err := h.store.Delete(ctx, p.Key); err != nil {
		logger.L().Error("purge upload failed", zap.String("key", p.Key), zap.Error(err))
		return err
	}
	logger.L().Info("upload purged", zap.String("key", p.Key))
	return nil
}
