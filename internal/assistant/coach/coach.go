// Package coach produces the assistant's conversational replies.
package coach

import (
	"context"
	"strings"

	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/pkg/logger"
	"go.uber.org/zap"
)

// FallbackReply is sent when the model cannot be reached.
const FallbackReply = "Désolé, je rencontre un problème technique. Pouvez-vous réessayer ?"

const persona = `Tu es DynProt, un coach qui aide chacun à atteindre son objectif quotidien de protéines.

Tu peux :
- encourager et motiver
- donner des conseils nutritionnels centrés sur les protéines
- proposer des aliments riches en protéines
- répondre aux questions de nutrition

Reste chaleureux et précis, avec des réponses courtes et accessibles.`

// Coach answers general conversation with the DynProt persona.
type Coach struct {
	llm llm.Completer
}

func New(c llm.Completer) *Coach {
	return &Coach{llm: c}
}

// Reply never fails; upstream errors turn into FallbackReply.
func (c *Coach) Reply(ctx context.Context, message string) string {
	if c.llm == nil {
		return FallbackReply
	}
	reply, err := c.llm.Complete(ctx, llm.Request{
		System:      persona,
		Prompt:      message,
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		logger.L().Warn("coach reply failed", zap.Error(err))
		return FallbackReply
	}
	return strings.TrimSpace(reply)
}
