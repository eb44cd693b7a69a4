package services

import (
	"math"

	"github.com/dynprot/engine/internal/models"
)

// GoalRange is a recommended daily protein intake band in grams.
type GoalRange struct {
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Recommended int     `json:"recommended"`
	PerKgMin    float64 `json:"per_kg_min"`
	PerKgMax    float64 `json:"per_kg_max"`
}

var proteinPerKg = map[string][2]float64{
	models.ActivitySedentary:        {0.8, 1.0},
	models.ActivityLightlyActive:    {1.0, 1.2},
	models.ActivityModeratelyActive: {1.2, 1.4},
	models.ActivityVeryActive:       {1.4, 1.6},
	models.ActivityExtremelyActive:  {1.6, 2.0},
}

// RecommendGoal derives a daily goal band from body weight and activity.
// Unknown activity levels fall back to the sedentary band.
func RecommendGoal(weightKg float64, activityLevel string) GoalRange {
	band, ok := proteinPerKg[activityLevel]
	if !ok {
		band = proteinPerKg[models.ActivitySedentary]
	}
	lo := int(math.Round(weightKg * band[0]))
	hi := int(math.Round(weightKg * band[1]))
	return GoalRange{
		Min:         lo,
		Max:         hi,
		Recommended: int(math.Round(float64(lo+hi) / 2)),
		PerKgMin:    band[0],
		PerKgMax:    band[1],
	}
}
