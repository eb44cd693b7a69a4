// Package assistant groups the language-model backed helpers: intent
// classification, meal analysis and the conversational coach.
package assistant

import "strings"

// Confidence is the self-reported certainty of a model answer.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NormalizeConfidence maps anything unexpected to low.
func NormalizeConfidence(c Confidence) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(string(c)))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
