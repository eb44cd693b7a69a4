package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/queue"
	"github.com/dynprot/engine/internal/repository"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type ProfileService interface {
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, in *OnboardingInput) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// UpdateGoal sets the daily goal; zero is allowed (chat "objectif à zéro").
	UpdateGoal(ctx context.Context, userID uuid.UUID, goal int) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, in *UpdateProfileInput) (*models.User, error)
}

type OnboardingInput struct {
	DisplayName      string
	Age              int
	WeightKg         float64
	ActivityLevel    string
	PrimaryObjective string
	DailyProteinGoal int
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	DisplayName      *string
	Age              *int
	WeightKg         *float64
	ActivityLevel    *string
	PrimaryObjective *string
	DailyProteinGoal *int
}

type profileService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	asynqClient *asynq.Client
}

func NewProfileService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, client *asynq.Client) ProfileService {
	return &profileService{userRepo: userRepo, profileRepo: profileRepo, asynqClient: client}
}

var _ ProfileService = (*profileService)(nil)

func (s *profileService) CompleteOnboarding(ctx context.Context, userID uuid.UUID, in *OnboardingInput) (*models.User, error) {
	logger.L().Info("complete onboarding", zap.String("user_id", userID.String()))

	p := &models.Profile{
		UserID:           userID,
		DisplayName:      strings.TrimSpace(in.DisplayName),
		Age:              in.Age,
		WeightKg:         in.WeightKg,
		ActivityLevel:    in.ActivityLevel,
		PrimaryObjective: in.PrimaryObjective,
		DailyProteinGoal: in.DailyProteinGoal,
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	if p.DailyProteinGoal <= 0 {
		return nil, appErr.New(appErr.CodeInvalid, "daily protein goal must be positive")
	}

	if err := s.profileRepo.CompleteOnboarding(ctx, p); err != nil {
		return nil, err
	}

	s.enqueueWelcome(ctx, userID)
	return s.GetProfile(ctx, userID)
}

func (s *profileService) enqueueWelcome(ctx context.Context, userID uuid.UUID) {
	if s.asynqClient == nil {
		logger.L().Warn("asynq client not configured, skipping welcome enqueue", zap.String("user_id", userID.String()))
		return
	}
	task, err := queue.NewWelcomeTask(userID)
	if err != nil {
		logger.L().Error("build welcome task failed", zap.Error(err))
		return
	}
	if _, err := s.asynqClient.EnqueueContext(ctx, task); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.L().Error("enqueue welcome task failed", zap.Error(err), zap.String("user_id", userID.String()))
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.userRepo.GetWithProfile(ctx, userID, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *profileService) UpdateGoal(ctx context.Context, userID uuid.UUID, goal int) error {
	logger.L().Info("update protein goal", zap.String("user_id", userID.String()), zap.Int("goal", goal))
	if goal < 0 {
		return appErr.New(appErr.CodeInvalid, "daily protein goal cannot be negative")
	}
	return s.profileRepo.UpdateGoal(ctx, userID, goal)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in *UpdateProfileInput) (*models.User, error) {
	logger.L().Info("update profile", zap.String("user_id", userID.String()))

	var current models.Profile
	if err := s.profileRepo.GetByUserID(ctx, userID, &current); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.DisplayName != nil {
		current.DisplayName = strings.TrimSpace(*in.DisplayName)
		fields["display_name"] = current.DisplayName
	}
	if in.Age != nil {
		current.Age = *in.Age
		fields["age"] = current.Age
	}
	if in.WeightKg != nil {
		current.WeightKg = *in.WeightKg
		fields["weight_kg"] = current.WeightKg
	}
	if in.ActivityLevel != nil {
		current.ActivityLevel = *in.ActivityLevel
		fields["activity_level"] = current.ActivityLevel
	}
	if in.PrimaryObjective != nil {
		current.PrimaryObjective = *in.PrimaryObjective
		fields["primary_objective"] = current.PrimaryObjective
	}
	if in.DailyProteinGoal != nil {
		if *in.DailyProteinGoal <= 0 {
			return nil, appErr.New(appErr.CodeInvalid, "daily protein goal must be positive")
		}
		current.DailyProteinGoal = *in.DailyProteinGoal
		fields["daily_protein_goal"] = current.DailyProteinGoal
	}
	if err := validateProfile(&current); err != nil {
		return nil, err
	}

	if err := s.profileRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		if err := s.userRepo.UpdateDisplayName(ctx, userID, current.DisplayName); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(ctx, userID)
}

func validateProfile(p *models.Profile) error {
	switch {
	case p.DisplayName == "":
		return appErr.New(appErr.CodeInvalid, "display name is required")
	case p.Age <= 0 || p.Age > 130:
		return appErr.New(appErr.CodeInvalid, "age must be between 1 and 130")
	case p.WeightKg <= 0 || p.WeightKg > 500:
		return appErr.New(appErr.CodeInvalid, "weight must be between 0 and 500 kg")
	case p.ActivityLevel != "" && !slices.Contains(models.ActivityLevels, p.ActivityLevel):
		return appErr.Newf(appErr.CodeInvalid, "unknown activity level %q", p.ActivityLevel)
	case p.PrimaryObjective != "" && !slices.Contains(models.Objectives, p.PrimaryObjective):
		return appErr.Newf(appErr.CodeInvalid, "unknown objective %q", p.PrimaryObjective)
	}
	return nil
}
