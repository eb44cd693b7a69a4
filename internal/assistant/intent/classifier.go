// Package intent decides what a free-text chat message asks for.
package intent

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/dynprot/engine/internal/assistant"
	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/pkg/logger"
	"go.uber.org/zap"
)

// Action is the intent of a chat message.
type Action string

const (
	ActionMeal       Action = "MEAL"
	ActionGoalUpdate Action = "GOAL_UPDATE"
	ActionStatus     Action = "STATUS"
	ActionResetMeals Action = "RESET_MEALS"
	ActionGeneral    Action = "GENERAL"
)

// Data carries action-specific values.
type Data struct {
	NewGoal *int `json:"new_goal,omitempty"`
}

// Classification is the classifier verdict.
type Classification struct {
	Action     Action               `json:"action"`
	Confidence assistant.Confidence `json:"confidence"`
	Data       Data                 `json:"data"`
	Reasoning  string               `json:"reasoning"`
}

// verdict is the model reply. Only the action is strict; data values are
// read from the message itself, so their shape is not checked.
type verdict struct {
	Action     Action               `json:"action" validate:"required,oneof=MEAL GOAL_UPDATE STATUS RESET_MEALS GENERAL"`
	Confidence assistant.Confidence `json:"confidence"`
	Data       json.RawMessage      `json:"data"`
	Reasoning  string               `json:"reasoning"`
}

const (
	reasonUnavailable = "classifier unavailable"
	reasonUnparsable  = "could not parse classifier reply"
	reasonNoGoal      = "could not extract goal value from message"
)

const systemPrompt = `Tu classes les messages envoyés à une application de suivi des apports en protéines.
Lis le message puis réponds uniquement avec un objet JSON.

Actions :
- GOAL_UPDATE : l'utilisateur change son objectif (le mot "objectif" avec un nombre, ou une remise de l'objectif à zéro)
- MEAL : il décrit un aliment ou un repas qu'il a mangé
- STATUS : il demande où il en est, sans décrire de repas
- RESET_MEALS : il veut effacer, supprimer ou remettre à zéro les repas du jour
- GENERAL : toute autre conversation

Exemples :
- "objectif 150g" => GOAL_UPDATE, new_goal 150
- "remets mon objectif à zéro" => GOAL_UPDATE, new_goal 0
- "efface mes repas d'aujourd'hui" => RESET_MEALS

Format exact :
{"action": "GOAL_UPDATE|MEAL|STATUS|RESET_MEALS|GENERAL", "confidence": "high|medium|low", "data": {}, "reasoning": "courte explication"}`

var goalNumber = regexp.MustCompile(`(\d+)\s*g?`)

// Classifier asks a language model for the intent of a message. It never
// fails: upstream or decoding errors degrade to GENERAL with low confidence.
type Classifier struct {
	llm llm.Completer
}

func NewClassifier(c llm.Completer) *Classifier {
	return &Classifier{llm: c}
}

func (c *Classifier) Classify(ctx context.Context, message string) Classification {
	if c.llm == nil {
		return general(reasonUnavailable)
	}

	reply, err := c.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      message,
		Temperature: 0.3,
	})
	if err != nil {
		logger.L().Warn("intent classification failed", zap.Error(err))
		return general(reasonUnavailable)
	}

	var v verdict
	if err := llm.DecodeObject(reply, &v); err != nil {
		logger.L().Warn("intent reply rejected", zap.Error(err), zap.String("reply", reply))
		return general(reasonUnparsable)
	}
	out := Classification{
		Action:     v.Action,
		Confidence: assistant.NormalizeConfidence(v.Confidence),
		Reasoning:  v.Reasoning,
	}

	if out.Action == ActionGoalUpdate {
		goal, ok := ExtractGoal(message)
		if !ok {
			out.Action = ActionGeneral
			out.Reasoning = reasonNoGoal
		} else {
			out.Data.NewGoal = &goal
		}
	}

	logger.L().Debug("message classified", zap.String("action", string(out.Action)), zap.String("confidence", string(out.Confidence)))
	return out
}

// ExtractGoal reads the requested goal from the message text itself.
// "zero"/"zéro" wins over any number.
func ExtractGoal(message string) (int, bool) {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "zero") || strings.Contains(lower, "zéro") {
		return 0, true
	}
	m := goalNumber.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func general(reason string) Classification {
	return Classification{
		Action:     ActionGeneral,
		Confidence: assistant.ConfidenceLow,
		Reasoning:  reason,
	}
}
