package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis methods recorded on meal entries.
const (
	MethodTextAnalysis  = "text-analysis"
	MethodImageAnalysis = "image-analysis"
)

// SourceAIAnalysis marks entries created from an assistant analysis.
const SourceAIAnalysis = "ai-analysis"

// MealEntry is one food item recorded by a user. Protein is never negative.
type MealEntry struct {
	ID                   uint64    `gorm:"primaryKey" json:"id"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index:idx_meal_entries_user_created,priority:1" json:"user_id"`
	ProductName          string    `gorm:"type:text;not null" json:"product_name"`
	VisualDescription    string    `gorm:"type:text" json:"visual_description,omitempty"`
	ProteinGrams         float64   `gorm:"not null;default:0" json:"protein_grams"`
	EstimatedWeightGrams float64   `json:"estimated_weight_grams,omitempty"`
	Method               string    `gorm:"type:varchar(32)" json:"method,omitempty"`
	Source               string    `gorm:"type:varchar(64)" json:"source,omitempty"`
	CreatedAt            time.Time `gorm:"index:idx_meal_entries_user_created,priority:2" json:"created_at"`
}
