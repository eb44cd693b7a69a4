package types

import (
	"github.com/dynprot/engine/internal/assistant/nutrition"
	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/services"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserResponse carries the user with its profile and, once a profile
// exists, the goal band recommended for it.
type UserResponse struct {
	User            *models.User        `json:"user"`
	RecommendedGoal *services.GoalRange `json:"recommended_goal,omitempty"`
}

type ChatResponse struct {
	Response string            `json:"response"`
	Analysis *nutrition.Result `json:"analysis"`
	Action   string            `json:"action,omitempty"`
}

type HistoryResponse struct {
	Messages []models.ChatMessage `json:"messages"`
}

type MealsResponse struct {
	Meals []models.MealEntry `json:"meals"`
}

type ProgressResponse struct {
	Progress *services.DailyProgress `json:"progress"`
}

type WeeklyProgressResponse struct {
	WeeklyProgress []services.DailyProgress `json:"weekly_progress"`
}

type ResetResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

type GoalResponse struct {
	DailyProteinGoal int `json:"daily_protein_goal"`
}

// NewUserResponse attaches the recommended goal when the profile is known.
func NewUserResponse(u *models.User) UserResponse {
	out := UserResponse{User: u}
	if u != nil && u.Profile != nil {
		g := services.RecommendGoal(u.Profile.WeightKg, u.Profile.ActivityLevel)
		out.RecommendedGoal = &g
	}
	return out
}
