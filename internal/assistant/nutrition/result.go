// Package nutrition estimates the protein content of a meal from a
// description or a photo.
package nutrition

import (
	"math"

	"github.com/dynprot/engine/internal/assistant"
	"github.com/dynprot/engine/internal/models"
)

// Method records how a result was obtained.
type Method string

const (
	MethodText  Method = models.MethodTextAnalysis
	MethodImage Method = models.MethodImageAnalysis
)

// NoServiceReasoning is the reasoning of the canonical empty result.
const NoServiceReasoning = "no analysis service available"

// Food is one identified item.
type Food struct {
	Name             string  `json:"name" validate:"required"`
	EstimatedGrams   float64 `json:"estimated_grams"`
	ProteinPer100g   float64 `json:"protein_per_100g"`
	ProteinInPortion float64 `json:"protein_in_portion"`
}

// Result is the uniform analysis shape, whichever provider answered.
type Result struct {
	Foods        []Food               `json:"foods" validate:"required,dive"`
	TotalProtein float64              `json:"total_protein"`
	Confidence   assistant.Confidence `json:"confidence"`
	Method       Method               `json:"method"`
	Reasoning    string               `json:"reasoning"`
	// Provider is kept for logs only and never serialised.
	Provider string `json:"-"`
}

// Empty returns the canonical result used when no provider could answer.
func Empty(method Method) *Result {
	return &Result{
		Foods:        []Food{},
		TotalProtein: 0,
		Confidence:   assistant.ConfidenceLow,
		Method:       method,
		Reasoning:    NoServiceReasoning,
	}
}

// normalize enforces the invariants every returned result must hold.
func (r *Result) normalize(method Method) {
	r.Method = method
	r.Confidence = assistant.NormalizeConfidence(r.Confidence)
	if r.Foods == nil {
		r.Foods = []Food{}
	}

	var sum float64
	for i := range r.Foods {
		f := &r.Foods[i]
		f.EstimatedGrams = nonNegative(f.EstimatedGrams)
		f.ProteinPer100g = nonNegative(f.ProteinPer100g)
		f.ProteinInPortion = nonNegative(f.ProteinInPortion)
		sum += f.ProteinInPortion
	}

	r.TotalProtein = nonNegative(r.TotalProtein)
	if r.TotalProtein == 0 {
		r.TotalProtein = math.Round(sum*10) / 10
	}
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
