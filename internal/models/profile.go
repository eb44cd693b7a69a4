package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity levels.
const (
	ActivitySedentary        = "sedentary"
	ActivityLightlyActive    = "lightly_active"
	ActivityModeratelyActive = "moderately_active"
	ActivityVeryActive       = "very_active"
	ActivityExtremelyActive  = "extremely_active"
)

// Primary objectives.
const (
	ObjectiveMaintainWeight     = "maintain_weight"
	ObjectiveLoseWeight         = "lose_weight"
	ObjectiveGainMuscle         = "gain_muscle"
	ObjectiveImprovePerformance = "improve_performance"
)

// ActivityLevels lists the accepted activity slugs.
var ActivityLevels = []string{
	ActivitySedentary,
	ActivityLightlyActive,
	ActivityModeratelyActive,
	ActivityVeryActive,
	ActivityExtremelyActive,
}

// Objectives lists the accepted objective slugs.
var Objectives = []string{
	ObjectiveMaintainWeight,
	ObjectiveLoseWeight,
	ObjectiveGainMuscle,
	ObjectiveImprovePerformance,
}

// Profile holds the body metrics and the daily protein goal of a user.
type Profile struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName      string    `gorm:"not null" json:"display_name"`
	Age              int       `gorm:"not null" json:"age"`
	WeightKg         float64   `gorm:"not null" json:"weight_kg"`
	ActivityLevel    string    `gorm:"type:varchar(32)" json:"activity_level,omitempty"`
	PrimaryObjective string    `gorm:"type:varchar(32)" json:"primary_objective,omitempty"`
	DailyProteinGoal int       `gorm:"not null" json:"daily_protein_goal"`
	UpdatedAt        time.Time `json:"updated_at"`
}
