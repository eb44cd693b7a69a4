package nutrition

import (
	"context"
	"strings"

	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/pkg/logger"
	"go.uber.org/zap"
)

// Provider is a named vision-capable model.
type Provider struct {
	Name      string
	Completer llm.Completer
	MaxTokens int
}

// Analyzer estimates meal protein. It never returns an error: failures end
// in the canonical empty result.
type Analyzer struct {
	text   llm.Completer
	vision []Provider
}

// NewAnalyzer takes the text model and the vision providers in trial order.
// A nil text model disables text analysis.
func NewAnalyzer(text llm.Completer, vision ...Provider) *Analyzer {
	return &Analyzer{text: text, vision: vision}
}

// AnalyzeText estimates the protein of a free-text meal description.
func (a *Analyzer) AnalyzeText(ctx context.Context, description string) *Result {
	if a.text == nil || strings.TrimSpace(description) == "" {
		return Empty(MethodText)
	}

	reply, err := a.text.Complete(ctx, llm.Request{
		System:      textSystemPrompt,
		Prompt:      description,
		Temperature: 0.3,
		MaxTokens:   400,
	})
	if err != nil {
		logger.L().Warn("text meal analysis failed", zap.Error(err))
		return Empty(MethodText)
	}

	var res Result
	if err := llm.DecodeObject(reply, &res); err != nil {
		logger.L().Warn("text meal analysis reply rejected", zap.Error(err))
		return Empty(MethodText)
	}
	res.normalize(MethodText)
	return &res
}

// AnalyzeImage tries each vision provider in turn with the same request and
// returns the first result naming at least one food.
func (a *Analyzer) AnalyzeImage(ctx context.Context, img llm.Image, message string) *Result {
	req := llm.Request{
		Prompt:      imagePrompt(message),
		Image:       &img,
		Temperature: 0.3,
	}

	for _, p := range a.vision {
		if err := ctx.Err(); err != nil {
			break
		}
		r := req
		r.MaxTokens = p.MaxTokens

		reply, err := p.Completer.Complete(ctx, r)
		if err != nil {
			logger.L().Warn("vision provider failed", zap.String("provider", p.Name), zap.Error(err))
			continue
		}

		var res Result
		if err := llm.DecodeObject(reply, &res); err != nil {
			logger.L().Warn("vision provider reply rejected", zap.String("provider", p.Name), zap.Error(err))
			continue
		}
		if len(res.Foods) == 0 {
			logger.L().Info("vision provider found no food", zap.String("provider", p.Name))
			continue
		}

		res.normalize(MethodImage)
		res.Provider = p.Name
		logger.L().Info("image analysed",
			zap.String("provider", p.Name),
			zap.Int("foods", len(res.Foods)),
			zap.Float64("total_protein", res.TotalProtein))
		return &res
	}

	return Empty(MethodImage)
}
