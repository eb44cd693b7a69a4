package services

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/dynprot/engine/internal/assistant/intent"
	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/internal/assistant/nutrition"
	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/queue"
	"github.com/dynprot/engine/internal/repository"
	"github.com/dynprot/engine/internal/storage"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
	"github.com/dynprot/engine/pkg/utils"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	unnamedFood = "Aliment non identifié"
)

// IntentClassifier is satisfied by *intent.Classifier.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) intent.Classification
}

// MealAnalyzer is satisfied by *nutrition.Analyzer.
type MealAnalyzer interface {
	AnalyzeText(ctx context.Context, description string) *nutrition.Result
	AnalyzeImage(ctx context.Context, img llm.Image, message string) *nutrition.Result
}

// Coach is satisfied by *coach.Coach.
type Coach interface {
	Reply(ctx context.Context, message string) string
}

type ChatService interface {
	HandleMessage(ctx context.Context, userID uuid.UUID, message string) (*ChatReply, error)
	HandleImageMessage(ctx context.Context, userID uuid.UUID, message string, img *ImageUpload) (*ChatReply, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error)
	Speak(ctx context.Context, text string) ([]byte, error)
}

type ChatReply struct {
	Response string            `json:"response"`
	Analysis *nutrition.Result `json:"analysis"`
	Action   intent.Action     `json:"action,omitempty"`
}

type ImageUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ChatDeps wires the chat service. Speaker, Store and AsynqClient are optional.
type ChatDeps struct {
	Chats           repository.ChatRepository
	Meals           MealService
	Profiles        ProfileService
	Classifier      IntentClassifier
	Analyzer        MealAnalyzer
	Coach           Coach
	Speaker         llm.Speaker
	Store           storage.Store
	AsynqClient     *asynq.Client
	UploadRetention time.Duration
}

type chatService struct {
	ChatDeps
}

func NewChatService(deps ChatDeps) ChatService {
	if deps.UploadRetention == 0 {
		deps.UploadRetention = 24 * time.Hour
	}
	return &chatService{ChatDeps: deps}
}

var _ ChatService = (*chatService)(nil)

func (s *chatService) HandleMessage(ctx context.Context, userID uuid.UUID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, appErr.New(appErr.CodeInvalid, "message is required")
	}
	logger.L().Info("chat message", zap.String("user_id", userID.String()))

	if err := s.save(ctx, userID, message, models.SenderUser, nil); err != nil {
		return nil, err
	}

	cls := s.Classifier.Classify(ctx, message)
	if cls.Action == intent.ActionGoalUpdate && cls.Data.NewGoal == nil {
		cls.Action = intent.ActionGeneral
	}
	reply := &ChatReply{Action: cls.Action}

	var err error
	switch cls.Action {
	case intent.ActionMeal:
		reply.Analysis = s.Analyzer.AnalyzeText(ctx, message)
		reply.Response, err = s.recordMeal(ctx, userID, reply.Analysis, message, NoProteinFoundReply)
	case intent.ActionGoalUpdate:
		goal := *cls.Data.NewGoal
		err = s.Profiles.UpdateGoal(ctx, userID, goal)
		switch {
		case err == nil:
			reply.Response = GoalUpdatedReply(goal)
		case appErr.IsCode(err, appErr.CodeNotFound):
			reply.Response, err = ProfileMissingReply, nil
		}
	case intent.ActionStatus:
		reply.Response, err = s.progressReply(ctx, userID, false)
	case intent.ActionResetMeals:
		var n int64
		if n, err = s.Meals.ResetToday(ctx, userID); err == nil {
			reply.Response = ResetReply(n)
		}
	default:
		reply.Action = intent.ActionGeneral
		reply.Response = s.Coach.Reply(ctx, message)
	}
	if err != nil {
		return s.unavailable(ctx, userID, reply.Action, reply.Analysis, err)
	}

	if err := s.save(ctx, userID, reply.Response, models.SenderAI, reply.Analysis); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *chatService) HandleImageMessage(ctx context.Context, userID uuid.UUID, message string, img *ImageUpload) (*ChatReply, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, appErr.New(appErr.CodeInvalid, "no image file provided")
	}
	message = strings.TrimSpace(message)
	logger.L().Info("chat image", zap.String("user_id", userID.String()), zap.Int("bytes", len(img.Data)))

	if message != "" {
		if err := s.save(ctx, userID, message, models.SenderUser, nil); err != nil {
			return nil, err
		}
	}

	s.keepUpload(ctx, img)

	analysis := s.Analyzer.AnalyzeImage(ctx, llm.Image{Data: img.Data, MediaType: img.ContentType}, message)
	var description string
	if analysis != nil {
		description = analysis.Reasoning
	}
	response, err := s.recordMeal(ctx, userID, analysis, description, NoFoodInImageReply)
	if err != nil {
		return s.unavailable(ctx, userID, intent.ActionMeal, analysis, err)
	}

	if err := s.save(ctx, userID, response, models.SenderAI, analysis); err != nil {
		return nil, err
	}
	return &ChatReply{Response: response, Analysis: analysis, Action: intent.ActionMeal}, nil
}

func (s *chatService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.Chats.ListRecent(ctx, userID, limit)
}

func (s *chatService) Speak(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "text is required")
	}
	if s.Speaker == nil {
		return nil, appErr.New(appErr.CodeUnavailable, "speech synthesis is not configured")
	}
	audio, err := s.Speaker.Speech(ctx, text)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "speech synthesis failed")
	}
	return audio, nil
}

// recordMeal stores every identified food under description and renders the
// progress reply.
func (s *chatService) recordMeal(ctx context.Context, userID uuid.UUID, res *nutrition.Result, description, emptyReply string) (string, error) {
	if res == nil || len(res.Foods) == 0 {
		return emptyReply, nil
	}

	saved := 0
	for _, f := range res.Foods {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			name = unnamedFood
		}
		_, err := s.Meals.AddMeal(ctx, &AddMealInput{
			UserID:               userID,
			ProductName:          name,
			VisualDescription:    description,
			ProteinGrams:         f.ProteinInPortion,
			EstimatedWeightGrams: f.EstimatedGrams,
			Method:               string(res.Method),
			Source:               models.SourceAIAnalysis,
		})
		if err != nil {
			logger.L().Error("save analysed food failed", zap.Error(err), zap.String("food", name))
			continue
		}
		saved++
	}
	if saved == 0 {
		return NothingSavedReply, nil
	}
	return s.progressReply(ctx, userID, true)
}

func (s *chatService) progressReply(ctx context.Context, userID uuid.UUID, mealSaved bool) (string, error) {
	today, err := s.Meals.ParseDay("")
	if err != nil {
		return "", err
	}
	p, err := s.Meals.DailyProgress(ctx, userID, today)
	if err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return ProfileMissingReply, nil
		}
		return "", err
	}
	return FormatProgress(p, mealSaved), nil
}

// unavailable answers a failed turn with the canned reply and logs it like
// any other assistant message. The cause is returned only when even that
// write fails.
func (s *chatService) unavailable(ctx context.Context, userID uuid.UUID, action intent.Action, analysis *nutrition.Result, cause error) (*ChatReply, error) {
	logger.L().Error("chat turn failed",
		zap.String("user_id", userID.String()),
		zap.String("action", string(action)),
		zap.Error(cause),
	)
	if err := s.save(ctx, userID, UnavailableReply, models.SenderAI, analysis); err != nil {
		return nil, cause
	}
	return &ChatReply{Response: UnavailableReply, Analysis: analysis, Action: action}, nil
}

func (s *chatService) save(ctx context.Context, userID uuid.UUID, content, sender string, analysis *nutrition.Result) error {
	msg := &models.ChatMessage{
		UserID:  userID,
		Content: content,
		Type:    models.MessageTypeText,
		Sender:  sender,
	}
	if analysis != nil {
		b, err := json.Marshal(analysis)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "encode analysis failed")
		}
		msg.Metadata = datatypes.JSON(b)
	}
	return s.Chats.Create(ctx, msg)
}

// keepUpload stores the photo for the retention window. Failures are logged
// only; the analysis works from memory.
func (s *chatService) keepUpload(ctx context.Context, img *ImageUpload) {
	if s.Store == nil {
		return
	}
	key := utils.ContentKey("meals", img.Data, path.Ext(img.Filename))
	if err := s.Store.Put(ctx, key, img.Data, img.ContentType); err != nil {
		logger.L().Warn("store upload failed", zap.Error(err))
		return
	}

	if s.AsynqClient == nil {
		logger.L().Warn("asynq client not configured, skipping upload purge", zap.String("key", key))
		return
	}
	task, err := queue.NewUploadPurgeTask(key, s.UploadRetention)
	if err != nil {
		logger.L().Error("build purge task failed", zap.Error(err))
		return
	}
	if _, err := s.AsynqClient.EnqueueContext(ctx, task); err != nil {
		logger.L().Error("enqueue purge task failed", zap.Error(err), zap.String("key", key))
	}
}
