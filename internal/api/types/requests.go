package types

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OnboardingRequest completes the profile. UserID is only read in legacy mode.
type OnboardingRequest struct {
	UserID           string  `json:"user_id,omitempty"`
	DisplayName      string  `json:"display_name" validate:"required"`
	Age              int     `json:"age" validate:"required,gt=0,lt=150"`
	Weight           float64 `json:"weight" validate:"required,gt=0"`
	ActivityLevel    string  `json:"activity_level" validate:"omitempty,oneof=sedentary lightly_active moderately_active very_active extremely_active"`
	PrimaryObjective string  `json:"primary_objective" validate:"omitempty,oneof=maintain_weight lose_weight gain_muscle improve_performance"`
	DailyProteinGoal int     `json:"daily_protein_goal" validate:"required,gt=0"`
}

type ChatMessageRequest struct {
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message" validate:"required"`
}

type SpeechRequest struct {
	Text string `json:"text" validate:"required"`
}

type GoalUpdateRequest struct {
	DailyProteinGoal int `json:"daily_protein_goal" validate:"gt=0"`
}

// ProfileUpdateRequest is partial; omitted fields keep their value.
type ProfileUpdateRequest struct {
	DisplayName      *string  `json:"display_name,omitempty" validate:"omitempty,min=1"`
	Age              *int     `json:"age,omitempty" validate:"omitempty,gt=0,lt=150"`
	Weight           *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	ActivityLevel    *string  `json:"activity_level,omitempty" validate:"omitempty,oneof=sedentary lightly_active moderately_active very_active extremely_active"`
	PrimaryObjective *string  `json:"primary_objective,omitempty" validate:"omitempty,oneof=maintain_weight lose_weight gain_muscle improve_performance"`
	DailyProteinGoal *int     `json:"daily_protein_goal,omitempty" validate:"omitempty,gt=0"`
}
