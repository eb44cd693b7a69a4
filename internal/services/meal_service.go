package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/repository"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// MealService is the per-user meal ledger. Calendar days are cut in the
// configured time zone.
type MealService interface {
	AddMeal(ctx context.Context, in *AddMealInput) (*models.MealEntry, error)
	ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.MealEntry, error)
	DailyProgress(ctx context.Context, userID uuid.UUID, day time.Time) (*DailyProgress, error)
	// WeeklyProgress covers the last 7 days including today, oldest first.
	WeeklyProgress(ctx context.Context, userID uuid.UUID) ([]DailyProgress, error)
	// DeleteMeal removes one entry. A non-nil owner must match the entry's user.
	DeleteMeal(ctx context.Context, mealID uint64, owner uuid.UUID) error
	ResetToday(ctx context.Context, userID uuid.UUID) (int64, error)
	// ParseDay reads a YYYY-MM-DD date; an empty string means today.
	ParseDay(s string) (time.Time, error)
}

type AddMealInput struct {
	UserID               uuid.UUID
	ProductName          string
	VisualDescription    string
	ProteinGrams         float64
	EstimatedWeightGrams float64
	Method               string
	Source               string
}

type DailyProgress struct {
	Date            string  `json:"date"`
	DisplayName     string  `json:"display_name,omitempty"`
	TotalProtein    float64 `json:"total_protein"`
	Goal            int     `json:"daily_protein_goal"`
	ProgressPercent float64 `json:"progress_percent"`
}

// Remaining is the protein still to eat today, never negative.
func (p *DailyProgress) Remaining() float64 {
	return math.Max(0, round1(float64(p.Goal)-p.TotalProtein))
}

type MealOption func(*mealService)

// WithMealClock overrides the ledger's notion of now.
func WithMealClock(now func() time.Time) MealOption {
	return func(s *mealService) { s.now = now }
}

type mealService struct {
	mealRepo    repository.MealRepository
	profileRepo repository.ProfileRepository
	loc         *time.Location
	now         func() time.Time
}

func NewMealService(mealRepo repository.MealRepository, profileRepo repository.ProfileRepository, loc *time.Location, opts ...MealOption) MealService {
	if loc == nil {
		loc = time.UTC
	}
	s := &mealService{mealRepo: mealRepo, profileRepo: profileRepo, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ MealService = (*mealService)(nil)

func (s *mealService) AddMeal(ctx context.Context, in *AddMealInput) (*models.MealEntry, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "product name is required")
	}

	e := &models.MealEntry{
		UserID:               in.UserID,
		ProductName:          name,
		VisualDescription:    in.VisualDescription,
		ProteinGrams:         math.Max(0, in.ProteinGrams),
		EstimatedWeightGrams: math.Max(0, in.EstimatedWeightGrams),
		Method:               in.Method,
		Source:               in.Source,
		CreatedAt:            s.now().UTC(),
	}
	if err := s.mealRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	logger.L().Info("meal added",
		zap.String("user_id", in.UserID.String()),
		zap.Uint64("meal_id", e.ID),
		zap.Float64("protein", e.ProteinGrams))
	return e, nil
}

func (s *mealService) ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.MealEntry, error) {
	from, to := s.dayBounds(day)
	return s.mealRepo.ListBetween(ctx, userID, from, to)
}

func (s *mealService) DailyProgress(ctx context.Context, userID uuid.UUID, day time.Time) (*DailyProgress, error) {
	var p models.Profile
	if err := s.profileRepo.GetByUserID(ctx, userID, &p); err != nil {
		return nil, err
	}

	from, to := s.dayBounds(day)
	total, err := s.mealRepo.SumProteinBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return &DailyProgress{
		Date:            from.Format(dateLayout),
		DisplayName:     p.DisplayName,
		TotalProtein:    round1(total),
		Goal:            p.DailyProteinGoal,
		ProgressPercent: percent(total, p.DailyProteinGoal),
	}, nil
}

func (s *mealService) WeeklyProgress(ctx context.Context, userID uuid.UUID) ([]DailyProgress, error) {
	var p models.Profile
	if err := s.profileRepo.GetByUserID(ctx, userID, &p); err != nil {
		return nil, err
	}

	today, _ := s.dayBounds(s.now())
	from := today.AddDate(0, 0, -6)
	to := today.AddDate(0, 0, 1)

	entries, err := s.mealRepo.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64, 7)
	for _, e := range entries {
		totals[e.CreatedAt.In(s.loc).Format(dateLayout)] += e.ProteinGrams
	}

	out := make([]DailyProgress, 0, 7)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		out = append(out, DailyProgress{
			Date:            key,
			TotalProtein:    round1(totals[key]),
			Goal:            p.DailyProteinGoal,
			ProgressPercent: percent(totals[key], p.DailyProteinGoal),
		})
	}
	return out, nil
}

func (s *mealService) DeleteMeal(ctx context.Context, mealID uint64, owner uuid.UUID) error {
	var e models.MealEntry
	if err := s.mealRepo.GetByID(ctx, mealID, &e); err != nil {
		return err
	}
	if owner != uuid.Nil && e.UserID != owner {
		return appErr.New(appErr.CodeForbidden, "meal belongs to another user")
	}
	if err := s.mealRepo.Delete(ctx, mealID); err != nil {
		return err
	}
	logger.L().Info("meal deleted", zap.Uint64("meal_id", mealID), zap.String("user_id", e.UserID.String()))
	return nil
}

func (s *mealService) ResetToday(ctx context.Context, userID uuid.UUID) (int64, error) {
	from, to := s.dayBounds(s.now())
	n, err := s.mealRepo.DeleteBetween(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}
	logger.L().Info("today's meals reset", zap.String("user_id", userID.String()), zap.Int64("deleted", n))
	return n, nil
}

func (s *mealService) ParseDay(v string) (time.Time, error) {
	if v == "" {
		return s.now().In(s.loc), nil
	}
	d, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, appErr.Wrap(err, appErr.CodeInvalid, "date must be formatted YYYY-MM-DD")
	}
	return d, nil
}

// dayBounds returns [start, end) of the local calendar day containing t.
func (s *mealService) dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(s.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

func percent(total float64, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return round1(total * 100 / float64(goal))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
